package exclusions

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrSecretNotFound is returned when a named secret does not exist.
var ErrSecretNotFound = errors.New("secret not found")

// SecretProvider resolves a named secret to its raw value.
type SecretProvider interface {
	Secret(ctx context.Context, name string) ([]byte, error)
}

// FileSecrets reads secrets from files in a directory, one file per secret,
// as mounted by Kubernetes or Docker secrets.
type FileSecrets struct {
	Dir string
}

// Secret reads Dir/name.
func (f FileSecrets) Secret(_ context.Context, name string) ([]byte, error) {
	if !filepath.IsLocal(name) {
		return nil, fmt.Errorf("invalid secret name %q", name)
	}
	data, err := os.ReadFile(filepath.Join(f.Dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading secret %s: %w", name, err)
	}
	return data, nil
}

// EnvSecrets reads secrets from environment variables. The secret name is
// upper-cased and every character outside [A-Z0-9_] becomes an underscore,
// so "google/sheets-sa" is read from GOOGLE_SHEETS_SA.
type EnvSecrets struct{}

// Secret reads the variable derived from name.
func (EnvSecrets) Secret(_ context.Context, name string) ([]byte, error) {
	key := EnvKey(name)
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil, fmt.Errorf("%w: %s (env %s)", ErrSecretNotFound, name, key)
	}
	return []byte(v), nil
}

// EnvKey maps a secret name to an environment variable name.
func EnvKey(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		default:
			return '_'
		}
	}, name)
}

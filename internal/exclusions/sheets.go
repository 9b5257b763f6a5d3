package exclusions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/google"

	"github.com/donaldgifford/shopping-notifier/pkg/matcher"
)

const (
	defaultSheetsURL    = "https://sheets.googleapis.com"
	sheetsReadOnlyScope = "https://www.googleapis.com/auth/spreadsheets.readonly"
)

// SheetsSource reads column A of a Google Sheets sheet, starting at row 2,
// with service-account credentials taken from a SecretProvider.
type SheetsSource struct {
	secrets       SecretProvider
	secretName    string
	spreadsheetID string
	sheetName     string
	baseURL       string
	client        *http.Client
	log           *slog.Logger
}

// SheetsOption configures a SheetsSource.
type SheetsOption func(*SheetsSource)

// WithSheetName overrides the sheet to read.
func WithSheetName(name string) SheetsOption {
	return func(s *SheetsSource) {
		if name != "" {
			s.sheetName = name
		}
	}
}

// WithSheetsURL overrides the API root, e.g. for tests.
func WithSheetsURL(u string) SheetsOption {
	return func(s *SheetsSource) {
		s.baseURL = strings.TrimRight(u, "/")
	}
}

// WithSheetsHTTPClient supplies an already authorized HTTP client. When
// set, no credentials are read from the secret provider.
func WithSheetsHTTPClient(c *http.Client) SheetsOption {
	return func(s *SheetsSource) {
		s.client = c
	}
}

// WithSheetsLogger sets a custom logger.
func WithSheetsLogger(l *slog.Logger) SheetsOption {
	return func(s *SheetsSource) {
		s.log = l
	}
}

// NewSheetsSource creates a source for spreadsheetID. secretName names the
// service-account JSON key in secrets.
func NewSheetsSource(
	secrets SecretProvider,
	secretName string,
	spreadsheetID string,
	opts ...SheetsOption,
) *SheetsSource {
	s := &SheetsSource{
		secrets:       secrets,
		secretName:    secretName,
		spreadsheetID: spreadsheetID,
		sheetName:     DefaultSheetName,
		baseURL:       defaultSheetsURL,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type valueRange struct {
	Range  string     `json:"range"`
	Values [][]string `json:"values"`
}

// Fetch reads the sheet. Reading stops at the first empty cell; cells that
// hold only whitespace are skipped.
func (s *SheetsSource) Fetch(ctx context.Context) ([]string, error) {
	client, err := s.httpClient(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		s.baseURL,
		url.PathEscape(s.spreadsheetID),
		url.PathEscape(s.sheetName+"!A2:A"),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating sheets request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", s.sheetName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading sheets response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheets API error (status %d): %s", resp.StatusCode, body)
	}

	var vr valueRange
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("parsing sheets response: %w", err)
	}

	shops := columnValues(vr.Values)
	s.log.Info("fetched global exclusions", "sheet", s.sheetName, "count", len(shops))
	return shops, nil
}

func (s *SheetsSource) httpClient(ctx context.Context) (*http.Client, error) {
	if s.client != nil {
		return s.client, nil
	}

	key, err := s.secrets.Secret(ctx, s.secretName)
	if err != nil {
		return nil, fmt.Errorf("loading sheets credentials: %w", err)
	}
	cfg, err := google.JWTConfigFromJSON(key, sheetsReadOnlyScope)
	if err != nil {
		return nil, fmt.Errorf("parsing sheets credentials: %w", err)
	}

	hc := cfg.Client(ctx)
	hc.Timeout = 30 * time.Second
	return hc, nil
}

func columnValues(rows [][]string) []string {
	shops := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 || row[0] == "" {
			break
		}
		if name := matcher.NormalizeShop(row[0]); name != "" {
			shops = append(shops, name)
		}
	}
	return shops
}

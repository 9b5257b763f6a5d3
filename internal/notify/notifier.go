// Package notify defines the notification interface and implementations
// for match delivery.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/donaldgifford/shopping-notifier/internal/retry"
)

var (
	// ErrNonRetryable is returned when the chat service rejects a message.
	ErrNonRetryable = errors.New("notification rejected")
	// ErrExhausted is returned when every attempt failed transiently.
	ErrExhausted = retry.ErrExhausted
)

// Notification contains the data needed to announce one matched item.
type Notification struct {
	Shop     string
	ItemName string
	// Price is already formatted for display, without currency suffix.
	Price string
	URL   string
	Label string
}

// Text renders the notification as a chat message body.
func (n *Notification) Text() string {
	return fmt.Sprintf("店舗名: %s\n商品名: %s\n価格: %s円\nURL: %s\nconfig.csvのnameカラムを参照した表示: %s",
		n.Shop, n.ItemName, n.Price, n.URL, n.Label)
}

// Notifier defines the interface for sending match notifications. A failed
// send affects only that notification.
type Notifier interface {
	Send(ctx context.Context, n *Notification) error
}

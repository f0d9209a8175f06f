package payments

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v75"
)

var (
	// ErrNotFound marks a processor resource that does not exist.
	ErrNotFound = errors.New("payments: resource not found")
	// ErrCardDeclined marks a card error raised by the processor.
	ErrCardDeclined = errors.New("payments: card declined")
)

// classify wraps a processor error so callers can match it with errors.Is.
// The original error stays in the chain.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var serr *stripe.Error
	if errors.As(err, &serr) {
		switch {
		case serr.Code == stripe.ErrorCodeResourceMissing, serr.HTTPStatusCode == http.StatusNotFound:
			return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
		case serr.Type == stripe.ErrorTypeCard:
			return fmt.Errorf("%s: %w: %w", op, ErrCardDeclined, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Message returns the processor's human readable message for err, if any.
func Message(err error) string {
	var serr *stripe.Error
	if errors.As(err, &serr) && serr.Msg != "" {
		return serr.Msg
	}
	return ""
}

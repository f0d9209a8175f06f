package billing

import (
	"errors"
	"fmt"

	"billing-dashboard/internal/infra/payments"
)

// Kind classifies workflow failures for the HTTP layer.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindPaymentFailed
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPaymentFailed:
		return "payment_failed"
	case KindUpstream:
		return "upstream"
	}
	return "unknown"
}

// Error is the only error type the billing workflows return. Message is safe
// to show to the customer; Detail carries processor data echoed with payment
// failures.
type Error struct {
	Kind    Kind
	Message string
	Detail  any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func notFoundError(msg string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: msg, Err: err}
}

func paymentFailed(msg string, detail any, err error) *Error {
	return &Error{Kind: KindPaymentFailed, Message: msg, Detail: detail, Err: err}
}

func upstreamError(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

// KindOf returns the kind of a billing error, or zero for any other error.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return 0
}

// fromGateway turns a gateway error into a billing error. Missing resources
// become NotFound with notFoundMsg, declined cards become PaymentFailed and
// everything else is an upstream failure reported as failMsg.
func fromGateway(err error, notFoundMsg, failMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, payments.ErrNotFound):
		return notFoundError(notFoundMsg, err)
	case errors.Is(err, payments.ErrCardDeclined):
		msg := payments.Message(err)
		if msg == "" {
			msg = "Your card was declined"
		}
		return paymentFailed("Payment failed", map[string]string{"reason": msg}, err)
	}
	return upstreamError(failMsg, err)
}

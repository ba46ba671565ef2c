package mailbox

import (
	"errors"
	"fmt"
)

// ConnectionError indicates the server could not be reached.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting to %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthError indicates the server rejected the credentials.
type AuthError struct {
	User string
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.User, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// MailboxError indicates the mailbox could not be selected.
type MailboxError struct {
	Mailbox string
	Err     error
}

func (e *MailboxError) Error() string {
	return fmt.Sprintf("selecting mailbox %s: %v", e.Mailbox, e.Err)
}

func (e *MailboxError) Unwrap() error { return e.Err }

// DeliveryError indicates the server rejected the send attempt.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// IsConnectionError reports whether err (or its chain) is a ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsAuthError reports whether err (or its chain) is an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsMailboxError reports whether err (or its chain) is a MailboxError.
func IsMailboxError(err error) bool {
	var me *MailboxError
	return errors.As(err, &me)
}

// IsDeliveryError reports whether err (or its chain) is a DeliveryError.
func IsDeliveryError(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de)
}

package mailbox

import (
	"errors"
	"fmt"
)

// AuthError indicates that the mail server rejected the credentials.
// It is fatal and must never trigger a reconnect attempt.
type AuthError struct {
	Username string
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("mailbox auth error (%s): %s", e.Username, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// ConnectivityError indicates that the mail server could not be
// reached, or that the session failed and could not be re-established.
// It is fatal after the single reconnect attempt allowed per fetch.
type ConnectivityError struct {
	Addr string
	Err  error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("mailbox unavailable (%s): %v", e.Addr, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// IsConnectivityError reports whether err (or any error in its chain)
// is a ConnectivityError.
func IsConnectivityError(err error) bool {
	var connErr *ConnectivityError
	return errors.As(err, &connErr)
}

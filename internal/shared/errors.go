package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserError carries a message that is safe to show to end users.
type UserError struct {
	Msg string
	Err error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *UserError) Unwrap() error { return e.Err }

// NewUserError wraps err with a user-facing message.
func NewUserError(msg string, err error) *UserError {
	return &UserError{Msg: msg, Err: err}
}

// UserSafeMessage returns a message suitable for rendering to the user.
// Unknown internal errors degrade to a generic message.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Msg
	}
	if errors.Is(err, ErrNotFound) {
		return "The requested record was not found"
	}
	if errors.Is(err, ErrInvalidCredentials) {
		return "Invalid email or password"
	}
	return "Something went wrong, please try again"
}

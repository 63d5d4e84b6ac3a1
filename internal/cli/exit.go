package cli

import "fmt"

// Process exit codes.
const (
	exitFailure    = 1
	exitConfig     = 2
	exitValidation = 3
)

// ExitError is an error that carries a specific process exit code.
// Commands return it to tell main how to exit.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// exitError creates a new ExitError with the given code and formatted message.
func exitError(code int, format string, args ...any) *ExitError {
	return &ExitError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

package provision

import (
	"errors"
	"fmt"
)

// Step identifies where a provisioning workflow halted.
type Step string

const (
	StepValidate       Step = "validate"
	StepCreateDatabase Step = "create_database"
	StepMigrate        Step = "migrate"
	StepSeed           Step = "seed"
	StepRegister       Step = "register"
)

var (
	// ErrInvalidSubdomain is returned when the requested subdomain fails
	// syntactic validation.
	ErrInvalidSubdomain = errors.New("invalid subdomain")

	// ErrReservedSubdomain is returned when the requested subdomain is on the
	// reserved list.
	ErrReservedSubdomain = errors.New("subdomain is reserved")

	// ErrMissingAdminCredentials is returned when the initial admin user
	// cannot be seeded for lack of credentials.
	ErrMissingAdminCredentials = errors.New("admin email and password are required")
)

// Error reports a provisioning failure and the step it halted at. Completed
// steps are never rolled back automatically; cleanup of partial results
// (an orphaned database after a migration failure, for instance) is an
// operator concern.
type Error struct {
	Step Step
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provisioning failed at %s: %v", e.Step, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// failedAt wraps err with the halting step.
func failedAt(step Step, err error) error {
	return &Error{Step: step, Err: err}
}

// StepOf extracts the halting step from a provisioning error.
func StepOf(err error) (Step, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Step, true
	}
	return "", false
}

package service

// NotFoundError indicates a referenced machine, report, user or order does
// not exist. Handlers surface it as 404.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// ValidationError indicates invalid input: wrong role, unknown enum value,
// backward status transition. Handlers surface it as 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ConflictError indicates the operation contradicts current state, such as
// assigning a technician to an already-assigned report. Handlers surface it
// as 409.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func notFound(msg string) error { return &NotFoundError{Msg: msg} }
func invalid(msg string) error  { return &ValidationError{Msg: msg} }
func conflict(msg string) error { return &ConflictError{Msg: msg} }

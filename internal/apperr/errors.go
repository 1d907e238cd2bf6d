package apperr

import (
	"errors"
	"strings"
)

// Kind is the behavioural category of an error.
type Kind int

const (
	Unknown Kind = iota
	Validation
	NotFound
	Conflict
	Protected
	CapExceeded
	Store
	Busy
)

var kindNames = map[Kind]string{
	Unknown:     "unknown",
	Validation:  "validation",
	NotFound:    "not_found",
	Conflict:    "conflict",
	Protected:   "protected_date",
	CapExceeded: "cap_exceeded",
	Store:       "store",
	Busy:        "busy",
}

func (k Kind) String() string { return kindNames[k] }

var (
	ErrInvalidSchedule  = errors.New("invalid schedule")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidStatus    = errors.New("invalid attendance status")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnknownClass     = errors.New("class not found")
	ErrUnknownStudent   = errors.New("student not found")
	ErrUnknownDate      = errors.New("date not scheduled")
	ErrDuplicateClass   = errors.New("class already exists")
	ErrDuplicateDate    = errors.New("date already scheduled")
	ErrDuplicateStudent = errors.New("student already exists")
	ErrProtectedDate    = errors.New("date has recorded attendance")
	ErrCapExceeded      = errors.New("schedule exceeds max classes")
	ErrBusy             = errors.New("store is busy")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// Error carries the category, the offending identifier and the cause.
type Error struct {
	Kind    Kind
	Subject string
	Err     error
	Fields  []FieldError
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString(e.Kind.String())
	}
	if e.Subject != "" {
		b.WriteString(": ")
		b.WriteString(e.Subject)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err under kind, naming the offending subject.
func New(kind Kind, err error, subject string) error {
	return &Error{Kind: kind, Subject: subject, Err: err}
}

// NewValidation builds a Validation error carrying per-field details.
func NewValidation(err error, subject string, fields ...FieldError) error {
	return &Error{Kind: Validation, Subject: subject, Err: err, Fields: fields}
}

// KindOf returns the category of err, or Unknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// SubjectOf returns the offending identifier carried by err, if any.
func SubjectOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Subject
	}
	return ""
}

// FieldsOf returns field-level validation details, if any.
func FieldsOf(err error) []FieldError {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

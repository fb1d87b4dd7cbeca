package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in the resource pipeline the error occurred
type Phase string

const (
	PhaseParse    Phase = "parse"    // identifier parsing
	PhaseResolve  Phase = "resolve"  // provider chain lookup
	PhaseCompile  Phase = "compile"  // asset compilation
	PhaseCollect  Phase = "collect"  // deferred collection
	PhaseRegister Phase = "register" // provider registration
	PhaseConfig   Phase = "config"   // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindMalformedIdentifier Kind = "malformed_identifier"
	KindNotFound            Kind = "not_found"
	KindCompile             Kind = "compile_failed"
	KindLifetimeLeak        Kind = "lifetime_leak"
	KindTypeMismatch        Kind = "type_mismatch"
	KindCycle               Kind = "dependency_cycle"
	KindClosed              Kind = "closed"
	KindRegistration        Kind = "registration"
	KindInvalidInput        Kind = "invalid_input"
	KindUnsupported         Kind = "unsupported"
)

// Sentinels for errors.Is. They match on Kind regardless of Phase.
var (
	ErrMalformedIdentifier = &Error{Kind: KindMalformedIdentifier}
	ErrResourceNotFound    = &Error{Kind: KindNotFound}
	ErrCompile             = &Error{Kind: KindCompile}
	ErrLifetimeLeak        = &Error{Kind: KindLifetimeLeak}
	ErrTypeMismatch        = &Error{Kind: KindTypeMismatch}
	ErrCycle               = &Error{Kind: KindCycle}
	ErrClosed              = &Error{Kind: KindClosed}
	ErrRegistration        = &Error{Kind: KindRegistration}
	ErrInvalidInput        = &Error{Kind: KindInvalidInput}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	ID     string
	GoType string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if e.ID != "" {
		b.WriteString(" ")
		b.WriteString(fmt.Sprintf("%q", e.ID))
	}

	if e.GoType != "" {
		b.WriteString(": Go type ")
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.GoType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a Phase matches any phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// ID sets the resource identifier the error refers to
func (b *Builder) ID(id string) *Builder {
	b.err.ID = id
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Is is errors.Is from the standard library, re-exported so callers
// importing this package do not need both.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As is errors.As from the standard library.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Convenience constructors for common error patterns

// MalformedIdentifier creates an error for identifier text missing the separator
func MalformedIdentifier(text, detail string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindMalformedIdentifier,
		ID:     text,
		Detail: detail,
	}
}

// NotFound creates a not-found error for an identifier no provider supplies
func NotFound(id, detail string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindNotFound,
		ID:     id,
		Detail: detail,
	}
}

// ReadFailed creates a not-found error for a provider that claimed a path but could not read it
func ReadFailed(id string, cause error) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindNotFound,
		ID:     id,
		Detail: "provider read failed",
		Cause:  cause,
	}
}

// Compile creates a compile error for an asset that failed to parse
func Compile(id string, cause error) *Error {
	return &Error{
		Phase: PhaseCompile,
		Kind:  KindCompile,
		ID:    id,
		Cause: cause,
	}
}

// CompileDetail creates a compile error with a message and no cause
func CompileDetail(id, format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindCompile,
		ID:     id,
		Detail: fmt.Sprintf(format, args...),
	}
}

// TypeMismatch creates an error for an identifier cached under another Go type
func TypeMismatch(id, cached, requested string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindTypeMismatch,
		ID:     id,
		GoType: requested,
		Detail: fmt.Sprintf("already cached as %s", cached),
	}
}

// Cycle creates an error for a resource that depends on itself
func Cycle(chain []string) *Error {
	id := ""
	if len(chain) > 0 {
		id = chain[len(chain)-1]
	}
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindCycle,
		ID:     id,
		Detail: strings.Join(chain, " -> "),
	}
}

// Closed creates an error for operations on a discarded cache
func Closed(what string) *Error {
	return &Error{
		Phase:  PhaseCollect,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s already shut down", what),
	}
}

// LifetimeLeak creates a diagnostic for a resource still held at discard time
func LifetimeLeak(id string, holders int) *Error {
	return &Error{
		Phase:  PhaseCollect,
		Kind:   KindLifetimeLeak,
		ID:     id,
		Value:  holders,
		Detail: fmt.Sprintf("%d outstanding holder(s)", holders),
	}
}

// Registration creates a provider registration error
func Registration(name, detail string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindRegistration,
		ID:     name,
		Detail: detail,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Config creates a configuration error
func Config(path string, cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidInput,
		ID:     path,
		Detail: "load config",
		Cause:  cause,
	}
}

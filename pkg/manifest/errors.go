package manifest

import (
	"errors"
	"fmt"
)

// Kind classifies manifest errors so callers can branch on failure mode
// without string matching.
type Kind int

const (
	// KindIO indicates a failure reading or writing a manifest file.
	KindIO Kind = iota + 1

	// KindParseSyntax indicates the input is not well-formed TOML.
	KindParseSyntax

	// KindInvalidFormat indicates structurally valid TOML that is not a
	// usable manifest (wrong root section, unresolvable workspace version).
	KindInvalidFormat

	// KindMissingField indicates a mandatory field is absent. Detail holds
	// the full dotted path, e.g. "plugin.id".
	KindMissingField

	// KindInvalidVersion is reserved for semantic-version validation.
	// Version strings are currently accepted as opaque text.
	KindInvalidVersion

	// KindCircularDependency indicates install-order computation found a
	// cycle. Detail holds the plugin id at which the cycle was detected.
	KindCircularDependency
)

// Error is the error type returned by all manifest operations.
type Error struct {
	Kind   Kind
	Detail string // field path, plugin id, or human-readable reason
	Err    error  // underlying cause, if any
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindIO:
		if e.Err != nil {
			return fmt.Sprintf("manifest: io error: %v", e.Err)
		}
		return fmt.Sprintf("manifest: io error: %s", e.Detail)
	case KindParseSyntax:
		if e.Err != nil {
			return fmt.Sprintf("manifest: toml parse error: %v", e.Err)
		}
		return fmt.Sprintf("manifest: toml parse error: %s", e.Detail)
	case KindInvalidFormat:
		return fmt.Sprintf("manifest: invalid format: %s", e.Detail)
	case KindMissingField:
		return fmt.Sprintf("manifest: missing required field: %s", e.Detail)
	case KindInvalidVersion:
		return fmt.Sprintf("manifest: invalid version: %s", e.Detail)
	case KindCircularDependency:
		return fmt.Sprintf("manifest: circular dependency detected: %s", e.Detail)
	}
	return fmt.Sprintf("manifest: unknown error: %s", e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// HasKind reports whether err is (or wraps) a manifest Error of the given kind.
func HasKind(err error, k Kind) bool {
	var me *Error
	return errors.As(err, &me) && me.Kind == k
}

func ioError(err error) *Error    { return &Error{Kind: KindIO, Err: err} }
func parseError(err error) *Error { return &Error{Kind: KindParseSyntax, Err: err} }
func invalidFormat(reason string) *Error {
	return &Error{Kind: KindInvalidFormat, Detail: reason}
}
func missingField(path string) *Error {
	return &Error{Kind: KindMissingField, Detail: path}
}
func circularDependency(id string) *Error {
	return &Error{Kind: KindCircularDependency, Detail: id}
}

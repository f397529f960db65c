// Package dpkerr defines the closed error taxonomy shared by every
// DataPak component: the reader, the writer, the codec layer and the
// extension registry all report failures as one of these kinds so that
// callers can distinguish them with errors.Is/errors.As instead of
// string-matching.
package dpkerr

import "fmt"

// Kind is one of the archive-level failure categories from the error
// model. The taxonomy is closed: new kinds are not expected to be added
// by callers.
type Kind int

const (
	// KindBadSignature means the archive did not begin with the
	// expected 8-byte signature.
	KindBadSignature Kind = iota
	// KindBadChecksum means the header CRC32 trailer, or a per-file
	// digest, did not match the recomputed value.
	KindBadChecksum
	// KindUnsupportedAccessMode means SeekTo was called on an archive
	// that is not random-access capable.
	KindUnsupportedAccessMode
	// KindCompression means the underlying codec reported an error, or
	// a compression dictionary failed to load.
	KindCompression
	// KindUnknownCompressionExtension means the header's compMethod tag
	// is not one this implementation recognizes.
	KindUnknownCompressionExtension
	// KindUnexpectedEOF means the stream ended before an expected
	// record was fully read.
	KindUnexpectedEOF
)

func (k Kind) String() string {
	switch k {
	case KindBadSignature:
		return "BadSignature"
	case KindBadChecksum:
		return "BadChecksum"
	case KindUnsupportedAccessMode:
		return "UnsupportedAccessMode"
	case KindCompression:
		return "Compression"
	case KindUnknownCompressionExtension:
		return "UnknownCompressionExtension"
	case KindUnexpectedEOF:
		return "UnexpectedEof"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type carried across the DataPak API. It
// wraps an optional underlying cause (e.g. the codec's own error) so
// that errors.Unwrap keeps working.
type Error struct {
	Kind   Kind
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, dpkerr.BadSignature) work against a *Error
// without comparing Detail/Cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds a plain *Error of the given kind with a formatted detail
// message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap builds a *Error of the given kind that wraps cause, used when an
// underlying codec or I/O error needs to be surfaced as one of the
// closed kinds.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), Cause: cause}
}

// Sentinel values for errors.Is comparisons against a bare kind, e.g.
//
//	if errors.Is(err, dpkerr.BadSignature) { ... }
var (
	BadSignature                = &Error{Kind: KindBadSignature}
	BadChecksum                 = &Error{Kind: KindBadChecksum}
	UnsupportedAccessMode       = &Error{Kind: KindUnsupportedAccessMode}
	Compression                 = &Error{Kind: KindCompression}
	UnknownCompressionExtension = &Error{Kind: KindUnknownCompressionExtension}
	UnexpectedEOF               = &Error{Kind: KindUnexpectedEOF}
)

// Collector aggregates independent failures so that callers can report
// every problem with a batch of operations at once instead of stopping
// at the first one.
type Collector struct {
	Errors []error
}

// Add appends err to the collector if it is non-nil, so callers can
// write c.Add(mightFail()) unconditionally.
func (c *Collector) Add(err error) {
	if err != nil {
		c.Errors = append(c.Errors, err)
	}
}

// Addf appends a formatted error to the collector.
func (c *Collector) Addf(format string, args ...interface{}) {
	c.Errors = append(c.Errors, fmt.Errorf(format, args...))
}

// HasErrors reports whether any error has been collected.
func (c *Collector) HasErrors() bool {
	return len(c.Errors) > 0
}

// Err returns nil if the collector is empty, the sole error if there is
// exactly one, or a combined error listing all of them.
func (c *Collector) Err() error {
	switch len(c.Errors) {
	case 0:
		return nil
	case 1:
		return c.Errors[0]
	default:
		msg := fmt.Sprintf("%d errors occurred:", len(c.Errors))
		for _, err := range c.Errors {
			msg += "\n  - " + err.Error()
		}
		return fmt.Errorf("%s", msg)
	}
}

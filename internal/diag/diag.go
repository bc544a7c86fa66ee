// Package diag defines the fatal diagnostics produced while merging and the
// literal message templates they carry. Tooling matches on these messages, so
// the wording is fixed.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sghaida/odimerge/internal/decl"
	"github.com/sghaida/odimerge/internal/logging"
	"github.com/sghaida/odimerge/internal/logging/logfields"
)

var log = logging.DefaultLogger.WithField(logfields.LogSubsys, "diag")

// Kind classifies a diagnostic.
type Kind uint8

const (
	// KindUser covers mistakes in a single contributing declaration.
	KindUser Kind = iota + 1
	// KindStructural covers cycles and non-termination across declarations.
	KindStructural
	// KindArtifact covers unreadable or incompatible hint artifacts.
	KindArtifact
	// KindScopeMismatch covers excludes and replaces across scopes.
	KindScopeMismatch
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindStructural:
		return "structural"
	case KindArtifact:
		return "artifact"
	case KindScopeMismatch:
		return "scope-mismatch"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Error is a fatal diagnostic pinned to a declaration.
type Error struct {
	Kind        Kind
	Pos         decl.Position
	Declaration decl.ClassID
	Message     string

	// Cause optionally links a sentinel so callers can use errors.Is.
	Cause error
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return e.Pos.String() + ": " + e.Message
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// WithCause sets Cause and returns e.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// New creates a diagnostic located at d.
func New(kind Kind, d *decl.Declaration, message string) *Error {
	e := &Error{Kind: kind, Message: message}
	if d != nil {
		e.Pos = d.Pos
		e.Declaration = d.ID
	}
	return e
}

// At creates a diagnostic at an explicit position.
func At(kind Kind, pos decl.Position, id decl.ClassID, message string) *Error {
	return &Error{Kind: kind, Pos: pos, Declaration: id, Message: message}
}

// As unwraps err into a diagnostic.
func As(err error) (*Error, bool) {
	var d *Error
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// IsKind reports whether err is a diagnostic of the given kind.
func IsKind(err error, kind Kind) bool {
	d, ok := As(err)
	return ok && d.Kind == kind
}

// Report logs a diagnostic once and returns err unchanged, so call sites can
// write `return diag.Report(err)`.
func Report(err error) error {
	if err == nil {
		return nil
	}
	if d, ok := As(err); ok {
		log.WithFields(logrus.Fields{
			logfields.Kind:        d.Kind.String(),
			logfields.Position:    d.Pos.String(),
			logfields.Declaration: d.Declaration.String(),
		}).Error(d.Message)
		return err
	}
	log.WithError(err).Error("merge failed")
	return err
}

func joinFQ(ids []decl.ClassID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}

func bracketFQ(ids []decl.ClassID) string { return "[" + joinFQ(ids) + "]" }

func sortedFQ(ids []decl.ClassID) []decl.ClassID {
	out := append([]decl.ClassID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

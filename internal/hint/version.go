package hint

import (
	"github.com/blang/semver/v4"
	"github.com/pkg/errors"
)

// FormatVersion is written into every record.
const FormatVersion = "1.1.0"

// minReadableVersion is the oldest record format this engine still reads.
const minReadableVersion = "1.0.0"

var readable = semver.MustParseRange(">=" + minReadableVersion + " <=" + FormatVersion)

// ErrVersionMismatch marks records written by an incompatible engine.
var ErrVersionMismatch = errors.New("incompatible hint format version")

// CheckVersion accepts records written by this engine or an older compatible
// one. Records from newer engines are rejected: forward compatibility is not
// provided.
func CheckVersion(v string) error {
	parsed, err := semver.Parse(v)
	if err != nil {
		return errors.Wrapf(ErrVersionMismatch, "unparsable version %q", v)
	}
	if !readable(parsed) {
		return errors.Wrapf(ErrVersionMismatch, "version %s, readable range is %s to %s",
			parsed, minReadableVersion, FormatVersion)
	}
	return nil
}

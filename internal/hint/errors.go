package hint

import (
	"fmt"

	"github.com/pkg/errors"
)

// ArtifactError reports an unusable hint artifact. It is distinct from user
// source errors: the fix is rebuilding the artifact, not editing code.
type ArtifactError struct {
	URL string
	Key string
	Err error
}

func (e *ArtifactError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("hint artifact %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("hint artifact %s: %s: %v", e.URL, e.Key, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// ErrConflict marks two different records under the same key.
var ErrConflict = errors.New("conflicting hint record")

func errConflict(other string) error {
	return errors.Wrapf(ErrConflict, "also provided by %s", other)
}

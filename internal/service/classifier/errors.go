package classifier

import "fmt"

// ArtifactLoadError reports a model or label artifact that is missing or malformed.
type ArtifactLoadError struct {
	Path string
	Err  error
}

func (e *ArtifactLoadError) Error() string {
	return fmt.Sprintf("load artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error {
	return e.Err
}

// DimensionMismatchError reports a feature vector or layout that does not
// match what the model was trained on.
type DimensionMismatchError struct {
	Expected int
	Got      int
	Context  string
}

func (e *DimensionMismatchError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("dimension mismatch (%s): expected %d, got %d", e.Context, e.Expected, e.Got)
	}
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

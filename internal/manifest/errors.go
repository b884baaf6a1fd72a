package manifest

import "fmt"

const (
	manifestNotFoundTemplateConstant = "manifest not found: %s"
	manifestParseTemplateConstant    = "unable to parse manifest %s: %v"
)

// ManifestNotFoundError indicates that no manifest exists at the resolved location.
type ManifestNotFoundError struct {
	Path string
}

// Error describes the missing manifest.
func (notFoundError ManifestNotFoundError) Error() string {
	return fmt.Sprintf(manifestNotFoundTemplateConstant, notFoundError.Path)
}

// ManifestParseError indicates that the manifest exists but is not a valid dependency declaration.
type ManifestParseError struct {
	Path  string
	Cause error
}

// Error describes the parse failure.
func (parseError ManifestParseError) Error() string {
	return fmt.Sprintf(manifestParseTemplateConstant, parseError.Path, parseError.Cause)
}

// Unwrap exposes the underlying cause.
func (parseError ManifestParseError) Unwrap() error {
	return parseError.Cause
}

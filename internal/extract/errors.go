package extract

import (
	"errors"
	"fmt"
)

// Classification tags every failure the extractor can produce. The
// set is closed; downstream code switches on it for messages and exit
// codes.
type Classification string

const (
	ClassInvalidInput Classification = "invalid-input"
	ClassParseError   Classification = "parse-error"
	ClassProtected    Classification = "protected-account"
	ClassLoginWall    Classification = "login-wall"
	ClassNoVideo      Classification = "no-video-found"
	ClassExtraction   Classification = "extraction-error"
)

// ClassifiedError pairs a failure classification with its cause and,
// when a debug directory was configured, the artifacts saved for it.
type ClassifiedError struct {
	Class     Classification
	Err       error
	Artifacts Artifacts
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Class, e.Err)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

func wrapClass(class Classification, err error) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{Class: class, Err: err}
}

func classifyf(class Classification, format string, args ...any) error {
	return &ClassifiedError{Class: class, Err: fmt.Errorf(format, args...)}
}

// ClassOf extracts the classification from err. Unclassified non-nil
// errors report as generic extraction errors.
func ClassOf(err error) Classification {
	if err == nil {
		return ""
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}
	return ClassExtraction
}

// ArtifactsOf returns the debug artifacts attached to err, if any.
func ArtifactsOf(err error) Artifacts {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Artifacts
	}
	return Artifacts{}
}

package domain

import "fmt"

// BundleLoadError means the bundle source was unreachable or produced a
// malformed graph/artifact. Fatal at startup; recovered to last-good on
// refresh.
type BundleLoadError struct {
	Source string
	Err    error
}

func (e BundleLoadError) Error() string {
	return fmt.Sprintf("failed to load model bundle from %s: %v", e.Source, e.Err)
}

func (e BundleLoadError) Unwrap() error {
	return e.Err
}

// MissingFeatureError means a required feature was absent from the input
// series. It is always surfaced - no default value is ever substituted.
type MissingFeatureError struct {
	FeatureName string
}

func (e MissingFeatureError) Error() string {
	return fmt.Sprintf("required feature %q missing from input series", e.FeatureName)
}

// InferenceError wraps a graph execution failure or tensor shape mismatch.
// Not retried - surfaced to the caller.
type InferenceError struct {
	Err error
}

func (e InferenceError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e InferenceError) Unwrap() error {
	return e.Err
}

// NormalizationResolutionError indicates an internal invariant violation,
// such as an empty feature window reaching the dynamic tier. The dynamic
// tier is otherwise universal, so this should not occur in practice.
type NormalizationResolutionError struct {
	Reason string
}

func (e NormalizationResolutionError) Error() string {
	return fmt.Sprintf("could not resolve normalization profile: %s", e.Reason)
}

package tool

import "fmt"

// Result is the outcome of one tool invocation.
type Result struct {
	Success   bool
	Output    string
	Error     string
	Metadata  map[string]any
	Truncated bool
	Diff      *FileDiff
	ExitCode  *int
}

// SuccessResult builds a successful result.
func SuccessResult(output string) Result {
	return Result{Success: true, Output: output}
}

// ErrorResult builds a failed result.
func ErrorResult(format string, args ...any) Result {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return Result{Success: false, Error: msg}
}

// WithOutput attaches partial output to a result.
func (r Result) WithOutput(output string) Result {
	r.Output = output
	return r
}

// WithMetadata sets a metadata key, allocating the map as needed.
func (r Result) WithMetadata(key string, value any) Result {
	md := make(map[string]any, len(r.Metadata)+1)
	for k, v := range r.Metadata {
		md[k] = v
	}
	md[key] = value
	r.Metadata = md
	return r
}

// ToModelOutput renders the result as sent back to the model.
func (r Result) ToModelOutput() string {
	if r.Success {
		return r.Output
	}
	if r.Output == "" {
		return "Error: " + r.Error
	}
	return fmt.Sprintf("Error: %s\n\nOutput:\n%s", r.Error, r.Output)
}

package domain

// GenerationResult is the immutable outcome of a single provider invocation.
// Providers return it instead of mutating the task.
type GenerationResult struct {
	Success          bool
	TaskID           string
	ContentType      ContentType
	URL              string
	ThumbnailURL     string
	ModelUsed        string
	ProcessingTimeMs int64
	ErrorCode        string
	ErrorMessage     string
	Metadata         map[string]any
}

// IsSuccess reports whether the result is genuinely successful. Both
// conditions must hold: a provider claiming success while carrying an error
// code is an invalid state and is treated as failure.
func (r *GenerationResult) IsSuccess() bool {
	return r != nil && r.Success && r.ErrorCode == ""
}

// FailureResult builds a failed result for the given task.
func FailureResult(taskID string, contentType ContentType, code, message string) *GenerationResult {
	return &GenerationResult{
		TaskID:       taskID,
		ContentType:  contentType,
		ErrorCode:    code,
		ErrorMessage: message,
	}
}

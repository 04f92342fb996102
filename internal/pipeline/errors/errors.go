package errors

import sterrors "errors"

var (
	ErrPipelineRequired = sterrors.New("logtap: pipeline is required")
	ErrSinkRequired     = sterrors.New("logtap: sink is required")
	ErrSinkNameRequired = sterrors.New("logtap: sink name is required")
	ErrConfigRequired   = sterrors.New("logtap: config is required")
	ErrLoggerRequired   = sterrors.New("logtap: logger is required")
	ErrPipelineClosed   = sterrors.New("logtap: pipeline is shut down")
	ErrTopicRequired    = sterrors.New("logtap: topic is required")
)

// ConfigValidationError wraps the problems found while validating a Config.
type ConfigValidationError struct {
	Err error
}

func (e ConfigValidationError) Error() string {
	return "logtap: invalid configuration: " + e.Err.Error()
}

func (e ConfigValidationError) Unwrap() error {
	return e.Err
}

// NewConfigValidationError wraps err in a ConfigValidationError.
// Returns nil if err is nil.
func NewConfigValidationError(err error) error {
	if err == nil {
		return nil
	}
	return ConfigValidationError{Err: err}
}

package secrets

import "fmt"

// ConfigurationError reports a required setting that is missing.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("secrets: missing required configuration %s", e.Setting)
}

// RetrievalError reports a failed secret fetch or an unusable payload.
type RetrievalError struct {
	SecretID string
	Err      error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("secrets: retrieving %q: %v", e.SecretID, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

package speech

import (
	"errors"
	"strings"
)

// ErrMissingCredentials reports an unset key or region.
var ErrMissingCredentials = errors.New("speech credentials missing")

// Credentials authenticate requests against a regional endpoint.
type Credentials struct {
	APIKey string
	Region string
}

// Validate reports which of SPEECH_API_KEY and SPEECH_API_REGION are missing.
func (c Credentials) Validate() error {
	var missing []string
	if strings.TrimSpace(c.APIKey) == "" {
		missing = append(missing, "SPEECH_API_KEY")
	}
	if strings.TrimSpace(c.Region) == "" {
		missing = append(missing, "SPEECH_API_REGION")
	}
	if len(missing) == 0 {
		return nil
	}
	return &missingError{names: missing}
}

type missingError struct {
	names []string
}

func (e *missingError) Error() string {
	return strings.Join(e.names, " and ") + " not set"
}

func (e *missingError) Unwrap() error {
	return ErrMissingCredentials
}

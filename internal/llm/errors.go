package llm

import "errors"

var (
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("gemini API key is not set")

	// ErrEmptyResponse is returned when the model response has no text.
	ErrEmptyResponse = errors.New("model returned no content")

	// ErrMalformedResponse is returned when the model text is not the
	// expected JSON document.
	ErrMalformedResponse = errors.New("model returned malformed JSON")
)

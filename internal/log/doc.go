// Package log builds slog loggers that redact secrets.
//
// a11yscan handles Gemini API keys, site cookies and custom auth headers.
// SecureHandler masks attributes whose key names look sensitive, values
// that look like credentials, and "key=" query parameters inside URLs and
// error messages, so verbose logs can be shared.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
package log

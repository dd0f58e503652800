package recognize

import "errors"

// ErrMissingOutput indicates the recognizer exited successfully but did
// not write a sidecar for one of its inputs.
var ErrMissingOutput = errors.New("recognizer produced no output")

// ErrAPIKeyMissing indicates OPENAI_API_KEY is not set.
var ErrAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

// ErrRateLimit indicates the API rate limit was exceeded (temporary, retryable).
var ErrRateLimit = errors.New("rate limit exceeded")

// ErrQuotaExceeded indicates the API quota was exceeded (billing issue, not retryable).
var ErrQuotaExceeded = errors.New("quota exceeded")

// ErrTimeout indicates a request timed out or the server failed transiently.
var ErrTimeout = errors.New("request timeout")

// ErrAuthFailed indicates the API key was rejected.
var ErrAuthFailed = errors.New("authentication failed")

// ErrBadRequest indicates a client error that retrying cannot fix.
var ErrBadRequest = errors.New("bad request")

package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrUpstream indicates the oracle call itself failed (network/timeout/5xx).
// It is surfaced to the caller as-is; only response-text parsing degrades.
var ErrUpstream = errors.New("ai upstream failure")

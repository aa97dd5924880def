package httpx

import "time"

// DeviceCookie identifies one browser across its tabs.
const DeviceCookie = "authgate.device"

const deviceCookieMaxAge = 365 * 24 * time.Hour

// Error codes written in JSON error bodies.
const (
	errCodeInvalidJSON        = "invalid_json"
	errCodeInvalidForm        = "invalid_form"
	errCodeMissingEmail       = "missing_email"
	errCodeInvalidCredentials = "invalid_credentials"
	errCodeSignInFailed       = "sign_in_failed"
	errCodeSyncUnavailable    = "sync_unavailable"
	errCodeRateLimited        = "rate_limited"
)

const sseHeartbeat = 25 * time.Second

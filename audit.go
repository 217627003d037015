package credgate

// Audit event types emitted by the engine. Verification failures collapse
// to one caller-visible error, so these are the only place the internal
// distinctions (tamper vs expiry vs revocation) are observable.
const (
	// AuditAuthenticateSuccess is an exported constant or variable used by the credential engine.
	AuditAuthenticateSuccess = "authenticate_success"
	// AuditAuthenticateFailure is an exported constant or variable used by the credential engine.
	AuditAuthenticateFailure = "authenticate_failure"
	// AuditRenewalIssued is an exported constant or variable used by the credential engine.
	AuditRenewalIssued = "renewal_token_issued"
	// AuditRotateSuccess is an exported constant or variable used by the credential engine.
	AuditRotateSuccess = "rotation_success"
	// AuditRotateRejected is an exported constant or variable used by the credential engine.
	AuditRotateRejected = "rotation_rejected"
	// AuditRotateReuse is an exported constant or variable used by the credential engine.
	AuditRotateReuse = "rotation_reuse_detected"
	// AuditSessionsRevoked is an exported constant or variable used by the credential engine.
	AuditSessionsRevoked = "sessions_revoked"
	// AuditClientAuthSuccess is an exported constant or variable used by the credential engine.
	AuditClientAuthSuccess = "client_auth_success"
	// AuditClientAuthFailure is an exported constant or variable used by the credential engine.
	AuditClientAuthFailure = "client_auth_failure"
	// AuditClientSecretPlaintext is an exported constant or variable used by the credential engine.
	AuditClientSecretPlaintext = "client_secret_plaintext"
)

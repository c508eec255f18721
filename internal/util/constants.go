package util

const (
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	MimeJSON = "application/json"
)

// Redis key prefixes.
const (
	KeyOTP         = "otp:"
	KeyOTPAttempts = "otp_attempts:"
	KeyRevoked     = "revoked_jti:"
	KeyExamCache   = "exam_cache:"
)

package constants

// HTTP header names
const (
	HeaderAuthorization = "Authorization"
)

// Gin context keys
const (
	ContextKeyUser = "user"
)

// Standard response envelope keys
const (
	ResponseError = "error"
	FieldMessage  = "message"
	FieldData     = "data"
)

// Role names recognized by the admin gate. Role assignment itself is owned by
// the external auth service; we only read the claim.
const (
	RoleAdmin = "admin"
)

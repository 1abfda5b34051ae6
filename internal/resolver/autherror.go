package resolver

// Machine-readable error codes carried by AuthError results. Clients
// branch on the code; the message is for display.
const (
	CodeInvalidImage       = "INVALID_IMAGE"
	CodeInvalidEmail       = "INVALID_EMAIL"
	CodeInvalidPassword    = "INVALID_PASSWORD"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeOAuthAccount       = "OAUTH_ACCOUNT"
	CodeUserCreationFailed = "USER_CREATION_FAILED"
	CodeDatabaseError      = "DATABASE_ERROR"
	CodeInternalError      = "INTERNAL_ERROR"
)

// authError shapes a typed failure for the AuthResult union.
func authError(message, code string) map[string]interface{} {
	return map[string]interface{}{
		"message": message,
		"code":    code,
	}
}

// authPayload shapes a successful authentication result.
func authPayload(accessToken, refreshToken string, user map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"user":         user,
	}
}

// isAuthError distinguishes the two members of the AuthResult union.
func isAuthError(value map[string]interface{}) bool {
	_, ok := value["code"]
	return ok
}

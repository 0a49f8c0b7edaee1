package httputil

// Machine-readable error codes returned alongside error messages so clients
// can branch without parsing free text.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeForbidden          = "FORBIDDEN"
	CodeNothingToUpdate    = "NOTHING_TO_UPDATE"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"

	CodeMissingAuth        = "MISSING_AUTH"
	CodeInvalidAuthHeader  = "INVALID_AUTH_HEADER"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInvalidTokenUserID = "INVALID_TOKEN_USER_ID"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"

	CodeUsernameTaken     = "USERNAME_TAKEN"
	CodePhoneTaken        = "PHONE_TAKEN"
	CodeUsernameRequired  = "USERNAME_REQUIRED"
	CodePhoneRequired     = "PHONE_REQUIRED"
	CodePasswordRequired  = "PASSWORD_REQUIRED"
	CodePasswordTooShort  = "PASSWORD_TOO_SHORT"
	CodeInvalidResetCode  = "INVALID_RESET_CODE"
	CodeNameRequired      = "NAME_REQUIRED"
	CodePhoneNumberEmpty  = "PHONE_NUMBER_EMPTY"
	CodeInvalidPagination = "INVALID_PAGINATION"

	CodeFileTooLarge         = "FILE_TOO_LARGE"
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
)

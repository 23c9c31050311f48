package apperrors

// 预定义的业务错误，服务层直接返回或通过 Wrap 附带底层错误。
var (
	ErrTenantNotFound  = NotFound("tenants.tenantNotFound")
	ErrTenantSlugTaken = Conflict("tenants.slugTaken")
	ErrTenantRequired  = BadRequest("tenants.tenantRequired")

	ErrUserNotFound       = NotFound("users.userNotFound")
	ErrProfileNotFound    = NotFound("users.profileNotFound")
	ErrAccountTaken       = Conflict("users.accountTaken")
	ErrPasswordMismatch   = BadRequest("users.passwordMismatch")
	ErrInvalidCredentials = Unauthorized("auth.invalidCredentials")
	ErrUserBlacklisted    = Forbidden("auth.userBlacklisted")
	ErrTokenMissing       = Unauthorized("auth.tokenMissing")
	ErrTokenInvalid       = Unauthorized("auth.tokenInvalid")
	ErrTokenRevoked       = Unauthorized("auth.tokenRevoked")
	ErrPermissionDenied   = Forbidden("auth.permissionDenied")
	ErrCodeInvalid        = BadRequest("auth.codeInvalid")
	ErrInvalidPlatform    = BadRequest("auth.invalidPlatform")
	ErrTooManyRequests    = TooManyRequests("http.error.429")

	ErrPostNotFound  = NotFound("posts.postNotFound")
	ErrPostForbidden = Forbidden("posts.forbidden")

	ErrNotificationNotFound = NotFound("notifications.notificationNotFound")

	ErrUploadTypeNotAllowed = BadRequest("uploads.typeNotAllowed")
	ErrUploadTooLarge       = BadRequest("uploads.tooLarge")

	ErrInvalidSortField = BadRequest("query.invalidSortField")
	ErrInvalidSortOrder = BadRequest("query.invalidSortOrder")
	ErrInvalidQuery     = BadRequest("query.invalidParameter")

	ErrThirdPartyUnavailable = ServiceUnavailable("http.error.503")
	ErrRequestTimeout        = GatewayTimeout("http.error.504")
)

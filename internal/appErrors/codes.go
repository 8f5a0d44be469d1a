package appErrors

// Коды ошибок сгруппированные по доменам
const (
	// Аутентификация и авторизация
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeInvalidToken ErrorCode = "INVALID_TOKEN"

	// Валидация
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Ресурсы
	CodeUserNotFound         ErrorCode = "USER_NOT_FOUND"
	CodeRequestNotFound      ErrorCode = "REQUEST_NOT_FOUND"
	CodeDistributionNotFound ErrorCode = "DISTRIBUTION_NOT_FOUND"
	CodeCategoryNotFound     ErrorCode = "CATEGORY_NOT_FOUND"
	CodeCityNotFound         ErrorCode = "CITY_NOT_FOUND"
	CodeSubCategoryNotFound  ErrorCode = "SUBCATEGORY_NOT_FOUND"

	// Бизнес-логика
	CodeInvalidTransition   ErrorCode = "INVALID_STATUS_TRANSITION"
	CodeAllocationConflict  ErrorCode = "ALLOCATION_CONFLICT"
	CodeReferenceInactive   ErrorCode = "REFERENCE_INACTIVE"
	CodeDecryptionFailed    ErrorCode = "DECRYPTION_FAILED"
	CodeHandleAlreadyExists ErrorCode = "HANDLE_ALREADY_EXISTS"

	// Системные ошибки
	CodeInternalError ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError ErrorCode = "DATABASE_ERROR"
)

package appErrors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode - тип для кодов ошибок
type ErrorCode string

// AppError - основная структура ошибки приложения
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Message  string      `json:"message"`
	Details  interface{} `json:"details,omitempty"`
	Err      error       `json:"-"`
	HTTPCode int         `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is позволяет сравнивать AppError по коду через errors.Is
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if stderrors.As(target, &appErr) {
		return e.Code == appErr.Code
	}
	return false
}

// Конструктор
func New(code ErrorCode, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: httpCode,
	}
}

// С цепочкой ошибок
func Wrap(err error, code ErrorCode, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Err:      err,
		HTTPCode: httpCode,
	}
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

func (e *AppError) WithError(err error) *AppError {
	clone := *e
	clone.Err = err
	return &clone
}

// Для маршалинга в JSON
func (e *AppError) MarshalJSON() ([]byte, error) {
	type alias struct {
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}
	return json.Marshal(&alias{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}

// Предопределенные ошибки
var (
	// Аутентификация
	ErrUnauthorized = New(CodeUnauthorized, "Authentication required", http.StatusUnauthorized)
	ErrForbidden    = New(CodeForbidden, "Access denied", http.StatusForbidden)
	ErrInvalidToken = New(CodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized)

	// Ресурсы
	ErrUserNotFound         = New(CodeUserNotFound, "User not found", http.StatusNotFound)
	ErrRequestNotFound      = New(CodeRequestNotFound, "Request not found", http.StatusNotFound)
	ErrDistributionNotFound = New(CodeDistributionNotFound, "Distribution not found", http.StatusNotFound)
	ErrCategoryNotFound     = New(CodeCategoryNotFound, "Category not found", http.StatusNotFound)
	ErrCityNotFound         = New(CodeCityNotFound, "City not found", http.StatusNotFound)
	ErrSubCategoryNotFound  = New(CodeSubCategoryNotFound, "Subcategory not found", http.StatusNotFound)

	// Движок распределения
	ErrInvalidTransition  = New(CodeInvalidTransition, "Status transition is not allowed", http.StatusConflict)
	ErrAllocationConflict = New(CodeAllocationConflict, "Pending distribution already exists for this user and request", http.StatusConflict)
	ErrReferenceInactive  = New(CodeReferenceInactive, "Referenced catalog entry is inactive", http.StatusBadRequest)
	ErrDecryptionFailed   = New(CodeDecryptionFailed, "Stored ciphertext could not be decrypted", http.StatusInternalServerError)

	// Пользователи
	ErrHandleAlreadyExists = New(CodeHandleAlreadyExists, "Handle already exists", http.StatusConflict)

	// Валидация
	ErrValidationFailed = New(CodeValidationFailed, "Validation failed", http.StatusBadRequest)
)

// Функции-помощники
func ValidationError(details interface{}) *AppError {
	return ErrValidationFailed.WithDetails(details)
}

func InternalError(err error) *AppError {
	return Wrap(err, CodeInternalError, "Internal server error", http.StatusInternalServerError)
}

func DatabaseError(err error) *AppError {
	return Wrap(err, CodeDatabaseError, "Database operation failed", http.StatusInternalServerError)
}

// Is - обертка над стандартной функцией errors.Is
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As - обертка над стандартной функцией errors.As
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

package apperrors

import (
	"errors"
	"net/http"
)

// Kind определяет категорию ошибки бизнес-логики
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindForbidden
	KindInvalidState
	KindValidation
)

// Error представляет типизированную ошибку сервисного слоя.
// Все остальные ошибки считаются инфраструктурными и отдаются как 500.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// HTTPStatus возвращает HTTP-статус, соответствующий категории ошибки
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidState, KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// NotFound создает ошибку "не найдено"
func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Forbidden создает ошибку доступа
func Forbidden(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

// InvalidState создает ошибку недопустимого перехода статуса
func InvalidState(message string) error {
	return &Error{Kind: KindInvalidState, Message: message}
}

// Validation создает ошибку валидации входных данных
func Validation(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

// IsKind проверяет, относится ли ошибка к указанной категории
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

package usecase

import (
	"errors"
	"fmt"
	"net/http"

	repo "storefront/internal/repository"
)

// クライアントが"error"で受け取る固定の分類。
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation_error"
	KindNotFound     ErrorKind = "not_found"
	KindOwnership    ErrorKind = "ownership_violation"
	KindUniqueness   ErrorKind = "uniqueness_violation"
	KindStorage      ErrorKind = "storage_failure"
	KindTransaction  ErrorKind = "transaction_failure"
	KindUnauthorized ErrorKind = "unauthorized"
	KindInternal     ErrorKind = "internal_error"
)

// HTTPステータス・分類・表示してよいメッセージを持つ。
// Errは原因でサーバー側にだけ残す。
type AppError struct {
	Status  int
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	ok := errors.As(err, &ae)
	return ae, ok
}

func ValidationError(msg string) error {
	return &AppError{Status: http.StatusBadRequest, Kind: KindValidation, Message: msg}
}

func NotFoundError(msg string) error {
	return &AppError{Status: http.StatusNotFound, Kind: KindNotFound, Message: msg}
}

func OwnershipError(msg string) error {
	return &AppError{Status: http.StatusForbidden, Kind: KindOwnership, Message: msg}
}

func UniquenessError(msg string, cause error) error {
	return &AppError{Status: http.StatusConflict, Kind: KindUniqueness, Message: msg, Err: cause}
}

func StorageError(msg string, cause error) error {
	return &AppError{Status: http.StatusInternalServerError, Kind: KindStorage, Message: msg, Err: cause}
}

func UnauthorizedError() error {
	return &AppError{Status: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "unauthorized"}
}

func InternalError(cause error) error {
	return &AppError{Status: http.StatusInternalServerError, Kind: KindInternal, Message: "internal error", Err: cause}
}

// トランザクション内で作られた分類済みエラーはそのまま返し、
// 一意制約の競合はuniqueness_violationに、それ以外はtransaction_failureにする。
func txError(msg string, err error) error {
	if err == nil {
		return nil
	}
	if ae, ok := AsAppError(err); ok {
		return ae
	}
	if errors.Is(err, repo.ErrDuplicate) {
		return UniquenessError("resource already exists", err)
	}
	return &AppError{Status: http.StatusInternalServerError, Kind: KindTransaction, Message: msg, Err: err}
}

package billing

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/noah-isme/toko-kasir/internal/common"
)

var (
	// ErrInsufficientPayment is wrapped by every InsufficientPayment error.
	ErrInsufficientPayment = errors.New("insufficient payment")
	// ErrChangeUnavailable is wrapped by every ChangeUnavailable error.
	ErrChangeUnavailable = errors.New("change unavailable")
)

// InsufficientPayment reports a paid amount below the rounded bill total.
func InsufficientPayment(shortfall, total, paid int64) *common.AppError {
	return &common.AppError{
		Code:       "INSUFFICIENT_PAYMENT",
		Message:    "paid amount does not cover the bill",
		HTTPStatus: http.StatusUnprocessableEntity,
		Err:        fmt.Errorf("%w: short by %d", ErrInsufficientPayment, shortfall),
		Details: map[string]any{
			"shortfall": shortfall,
			"total":     total,
			"paid":      paid,
		},
	}
}

// ChangeUnavailable reports that the drawer cannot pay out balance exactly.
func ChangeUnavailable(balance int64) *common.AppError {
	return &common.AppError{
		Code:       "CHANGE_UNAVAILABLE",
		Message:    "exact change is not available",
		HTTPStatus: http.StatusConflict,
		Err:        fmt.Errorf("%w: balance %d", ErrChangeUnavailable, balance),
		Details:    map[string]any{"balance": balance},
	}
}

func tillBusy(err error) *common.AppError {
	return &common.AppError{
		Code:       "TILL_BUSY",
		Message:    "till is busy, retry shortly",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// resultLabel turns a commit or quote outcome into a metrics label.
func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}
	return "error"
}

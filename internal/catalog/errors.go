package catalog

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/noah-isme/toko-kasir/internal/common"
)

var (
	// ErrProductNotFound is wrapped by every ProductNotFound error.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock is wrapped by every InsufficientStock error.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductNotFound reports an unknown SKU.
func ProductNotFound(sku string) *common.AppError {
	return &common.AppError{
		Code:       "PRODUCT_NOT_FOUND",
		Message:    "product not found",
		HTTPStatus: http.StatusNotFound,
		Err:        fmt.Errorf("%w: %s", ErrProductNotFound, sku),
		Details:    map[string]any{"sku": sku},
	}
}

// InsufficientStock reports that requested units of sku exceed what is on hand.
func InsufficientStock(sku string, requested, available int64) *common.AppError {
	return &common.AppError{
		Code:       "INSUFFICIENT_STOCK",
		Message:    "insufficient stock",
		HTTPStatus: http.StatusConflict,
		Err:        fmt.Errorf("%w: %s requested %d, available %d", ErrInsufficientStock, sku, requested, available),
		Details: map[string]any{
			"sku":       sku,
			"requested": requested,
			"available": available,
		},
	}
}

func conflict(sku string, err error) *common.AppError {
	return &common.AppError{
		Code:       "CONFLICT",
		Message:    "product already exists",
		HTTPStatus: http.StatusConflict,
		Err:        err,
		Details:    map[string]any{"sku": sku},
	}
}

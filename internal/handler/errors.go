package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/sushovancpp/urmart/internal/domain/address"
	"github.com/sushovancpp/urmart/internal/domain/auth"
	"github.com/sushovancpp/urmart/internal/domain/cart"
	"github.com/sushovancpp/urmart/internal/domain/coupon"
	"github.com/sushovancpp/urmart/internal/domain/order"
	"github.com/sushovancpp/urmart/internal/domain/product"
	"github.com/sushovancpp/urmart/internal/domain/review"
)

// sentinels maps well-known errors to statuses. The sentinel's own text is
// the public message, so wrapping context never leaks to clients.
var sentinels = []struct {
	err    error
	status int
}{
	{auth.ErrUnauthorized, http.StatusUnauthorized},
	{auth.ErrTokenExpired, http.StatusUnauthorized},
	{auth.ErrTokenInvalid, http.StatusUnauthorized},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized},
	{auth.ErrForbidden, http.StatusForbidden},
	{auth.ErrWrongPassword, http.StatusBadRequest},
	{coupon.ErrCodeRequired, http.StatusBadRequest},
	{product.ErrNotFound, http.StatusNotFound},
	{order.ErrNotFound, http.StatusNotFound},
	{cart.ErrLineNotFound, http.StatusNotFound},
	{address.ErrNotFound, http.StatusNotFound},
	{auth.ErrUserNotFound, http.StatusNotFound},
	{coupon.ErrNotFound, http.StatusNotFound},
}

type failure struct {
	status  int
	message string
	extra   func(e *jx.Encoder)
}

// classify maps err to its response. ok is false for unexpected errors.
func classify(err error) (f failure, ok bool) {
	var (
		cartStock  *cart.StockExceededError
		orderStock *order.StockExceededError
		rejected   *coupon.RejectedError
	)
	switch {
	case errors.As(err, &cartStock):
		return failure{http.StatusBadRequest, cartStock.Error(), available(cartStock.ProductID, cartStock.Available)}, true
	case errors.As(err, &orderStock):
		return failure{http.StatusBadRequest, orderStock.Error(), available(orderStock.ProductID, orderStock.Available)}, true
	case errors.As(err, &rejected):
		return failure{http.StatusBadRequest, rejected.Error(), func(e *jx.Encoder) {
			e.Field("reason", func(e *jx.Encoder) { e.Str(string(rejected.Reason)) })
		}}, true
	}
	if msg, ok := validationMessage(err); ok {
		return failure{status: http.StatusBadRequest, message: msg}, true
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return failure{status: s.status, message: s.err.Error()}, true
		}
	}
	return failure{status: http.StatusInternalServerError, message: "Internal server error"}, false
}

func validationMessage(err error) (string, bool) {
	var (
		reqErr     *requestError
		authErr    *auth.ValidationError
		cartErr    *cart.ValidationError
		orderErr   *order.ValidationError
		addrErr    *address.ValidationError
		reviewErr  *review.ValidationError
		productErr *product.ValidationError
	)
	switch {
	case errors.As(err, &reqErr):
		return reqErr.Message, true
	case errors.As(err, &authErr):
		return authErr.Message, true
	case errors.As(err, &cartErr):
		return cartErr.Message, true
	case errors.As(err, &orderErr):
		return orderErr.Message, true
	case errors.As(err, &addrErr):
		return addrErr.Message, true
	case errors.As(err, &reviewErr):
		return reviewErr.Message, true
	case errors.As(err, &productErr):
		return productErr.Message, true
	default:
		return "", false
	}
}

func available(productID string, n int) func(e *jx.Encoder) {
	return func(e *jx.Encoder) {
		e.Field("product_id", func(e *jx.Encoder) { e.Str(productID) })
		e.Field("available", func(e *jx.Encoder) { e.Int(n) })
	}
}

// writeError writes the failure envelope for err. Unexpected errors are
// logged and reported as a generic 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	f, ok := classify(err)
	if !ok {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	_ = writeEnvelope(w, f.status, false, f.message, nil, f.extra)
}

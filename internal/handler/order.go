package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/sushovancpp/urmart/internal/domain/order"
)

func decodeOrderAddress(d *jx.Decoder, a *order.Address) error {
	return d.Obj(func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "line1":
			a.Line1, err = readString(d)
		case "city":
			a.City, err = readString(d)
		case "pincode":
			a.Pincode, err = readString(d)
		case "phone":
			a.Phone, err = readString(d)
		default:
			err = d.Skip()
		}
		return err
	})
}

// placeOrder converts the cart into an order.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req order.PlaceOrderRequest
	if err := decodeObject(r, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "address":
			if d.Next() != jx.Object {
				return d.Skip()
			}
			err = decodeOrderAddress(d, &req.Address)
		case "payment_method":
			req.PaymentMethod, err = readString(d)
		case "coupon_code":
			req.CouponCode, err = readString(d)
		case "notes":
			req.Notes, err = readString(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		h.writeError(w, r, err)
		return
	}

	o, err := h.Orders.PlaceOrder(r.Context(), identity(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, "Order placed", o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.ListOrders(r.Context(), identity(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "OK", nonNil(orders))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.GetOrder(r.Context(), identity(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "OK", o)
}

func (h *Handler) adminOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.ListAll(r.Context(), identity(r), r.URL.Query().Get("status"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "OK", nonNil(orders))
}

func (h *Handler) adminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var status string
	if err := decodeObject(r, func(d *jx.Decoder, key string) (err error) {
		if key != "status" {
			return d.Skip()
		}
		status, err = readString(d)
		return err
	}); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.Orders.UpdateStatus(r.Context(), identity(r), chi.URLParam(r, "id"), status); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "Order status updated", nil)
}

func (h *Handler) adminStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.Orders.Stats(r.Context(), identity(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "OK", s)
}

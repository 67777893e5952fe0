package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/sushovancpp/urmart/internal/domain/cart"
	"github.com/sushovancpp/urmart/internal/domain/coupon"
)

func (h *Handler) viewCart(w http.ResponseWriter, r *http.Request) {
	v, err := h.Carts.View(r.Context(), identity(r).UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "OK", v)
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var (
		productID string
		qty       = 1
	)
	if err := decodeObject(r, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "product_id":
			productID, err = readString(d)
		case "qty":
			qty, err = readInt(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		h.writeError(w, r, errBadBody)
		return
	}

	if err := h.Carts.AddItem(r.Context(), identity(r).UserID, productID, qty); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "Added to cart", nil)
}

func (h *Handler) setCartQty(w http.ResponseWriter, r *http.Request) {
	var qty int
	if err := decodeObject(r, func(d *jx.Decoder, key string) (err error) {
		if key != "qty" {
			return d.Skip()
		}
		qty, err = readInt(d)
		return err
	}); err != nil {
		h.writeError(w, r, errBadBody)
		return
	}

	if err := h.Carts.SetQuantity(r.Context(), identity(r).UserID, chi.URLParam(r, "id"), qty); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "Cart updated", nil)
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	if err := h.Carts.Remove(r.Context(), identity(r).UserID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "Removed from cart", nil)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.Carts.Clear(r.Context(), identity(r).UserID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "Cart cleared", nil)
}

// syncCart merges a guest cart. Entries that fail to decode are dropped and
// counted as skipped by the ledger.
func (h *Handler) syncCart(w http.ResponseWriter, r *http.Request) {
	var items []cart.GuestItem
	if err := decodeObject(r, func(d *jx.Decoder, key string) error {
		if key != "items" || d.Next() != jx.Array {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			items = append(items, decodeGuestItem(d))
			return nil
		})
	}); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.Carts.SyncGuestCart(r.Context(), identity(r).UserID, items)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "Cart synced", res)
}

// decodeGuestItem reads one guest entry, leaving fields it cannot parse at
// their zero value.
func decodeGuestItem(d *jx.Decoder) cart.GuestItem {
	var item cart.GuestItem
	raw, err := d.Raw()
	if err != nil || raw.Type() != jx.Object {
		return item
	}
	_ = jx.DecodeBytes(raw).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "product_id":
			if v, err := readString(d); err == nil {
				item.ProductID = v
			}
			return nil
		case "qty":
			if v, err := readInt(d); err == nil {
				item.Qty = v
			}
			return nil
		default:
			return d.Skip()
		}
	})
	return item
}

type couponPreview struct {
	Discount decimal.Decimal `json:"discount"`
	Coupon   *coupon.Coupon  `json:"coupon"`
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var (
		code     string
		subtotal decimal.Decimal
	)
	if err := decodeObject(r, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "code":
			code, err = readString(d)
		case "subtotal":
			subtotal, err = readDecimal(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		h.writeError(w, r, errBadBody)
		return
	}

	p, err := h.Coupons.Preview(r.Context(), code, subtotal)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "Coupon applied", couponPreview{Discount: p.Discount, Coupon: p.Coupon})
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/sushovancpp/urmart/internal/domain/product"
)

func (h *Handler) adminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Accounts.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "OK", nonNil(users))
}

func (h *Handler) adminProducts(w http.ResponseWriter, r *http.Request) {
	items, err := h.Admin.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "OK", nonNil(items))
}

// decodeDraft reads a partial product; absent keys stay nil.
func decodeDraft(r *http.Request) (product.Draft, error) {
	var d product.Draft
	str := func(dst **string) func(*jx.Decoder) error {
		return func(dec *jx.Decoder) error {
			v, err := readString(dec)
			*dst = &v
			return err
		}
	}
	num := func(dst **int) func(*jx.Decoder) error {
		return func(dec *jx.Decoder) error {
			v, err := readInt(dec)
			*dst = &v
			return err
		}
	}
	money := func(dst **decimal.Decimal) func(*jx.Decoder) error {
		return func(dec *jx.Decoder) error {
			v, err := readDecimal(dec)
			*dst = &v
			return err
		}
	}
	fields := map[string]func(*jx.Decoder) error{
		"name":        str(&d.Name),
		"description": str(&d.Description),
		"category_id": str(&d.CategoryID),
		"emoji":       str(&d.Emoji),
		"brand":       str(&d.Brand),
		"weight":      str(&d.Weight),
		"price":       money(&d.Price),
		"mrp":         money(&d.MRP),
		"rating":      money(&d.Rating),
		"discount":    num(&d.Discount),
		"stock":       num(&d.Stock),
		"is_active": func(dec *jx.Decoder) error {
			v, err := dec.Bool()
			d.Active = &v
			return err
		},
	}

	err := decodeObject(r, func(dec *jx.Decoder, key string) error {
		if fn, ok := fields[key]; ok {
			return fn(dec)
		}
		return dec.Skip()
	})
	return d, err
}

func (h *Handler) adminCreateProduct(w http.ResponseWriter, r *http.Request) {
	d, err := decodeDraft(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.Admin.Create(r.Context(), d)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, "Product created", p)
}

func (h *Handler) adminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	d, err := decodeDraft(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.Admin.Update(r.Context(), chi.URLParam(r, "id"), d)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "Product updated", p)
}

func (h *Handler) adminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Admin.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "Product deactivated", nil)
}

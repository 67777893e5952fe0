package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/sushovancpp/urmart/internal/domain/address"
)

func (h *Handler) listAddresses(w http.ResponseWriter, r *http.Request) {
	list, err := h.Addresses.List(r.Context(), identity(r).UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "OK", list)
}

func (h *Handler) addAddress(w http.ResponseWriter, r *http.Request) {
	var draft address.Draft
	if err := decodeObject(r, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "label":
			draft.Label, err = readString(d)
		case "line1":
			draft.Line1, err = readString(d)
		case "city":
			draft.City, err = readString(d)
		case "state":
			draft.State, err = readString(d)
		case "pincode":
			draft.Pincode, err = readString(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		h.writeError(w, r, err)
		return
	}

	a, err := h.Addresses.Add(r.Context(), identity(r).UserID, draft)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, "Address added", a)
}

func (h *Handler) deleteAddress(w http.ResponseWriter, r *http.Request) {
	if err := h.Addresses.Delete(r.Context(), identity(r).UserID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "Address deleted", nil)
}

func (h *Handler) setDefaultAddress(w http.ResponseWriter, r *http.Request) {
	if err := h.Addresses.SetDefault(r.Context(), identity(r).UserID, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "Default address updated", nil)
}

func (h *Handler) listWishlist(w http.ResponseWriter, r *http.Request) {
	items, err := h.Wishlists.List(r.Context(), identity(r).UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "OK", items)
}

type wishlistState struct {
	Wishlisted bool `json:"wishlisted"`
}

func (h *Handler) toggleWishlist(w http.ResponseWriter, r *http.Request) {
	on, err := h.Wishlists.Toggle(r.Context(), identity(r).UserID, chi.URLParam(r, "productID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	msg := "Removed from wishlist"
	if on {
		msg = "Added to wishlist"
	}
	h.ok(w, r, msg, wishlistState{Wishlisted: on})
}

package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/sushovancpp/urmart/internal/domain/auth"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := decodeObject(r, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "name":
			req.Name, err = readString(d)
		case "email":
			req.Email, err = readString(d)
		case "password":
			req.Password, err = readString(d)
		case "phone":
			req.Phone, err = readString(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		h.writeError(w, r, err)
		return
	}

	s, err := h.Accounts.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, "Registered successfully", s)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var email, password string
	if err := decodeObject(r, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "email":
			email, err = readString(d)
		case "password":
			password, err = readString(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		h.writeError(w, r, err)
		return
	}
	if email == "" || password == "" {
		h.writeError(w, r, &requestError{Message: "Email and password are required"})
		return
	}

	s, err := h.Accounts.Login(r.Context(), email, password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "Login successful", s)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Accounts.Me(r.Context(), identity(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "OK", u)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var name, phone string
	if err := decodeObject(r, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "name":
			name, err = readString(d)
		case "phone":
			phone, err = readString(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		h.writeError(w, r, err)
		return
	}

	u, err := h.Accounts.UpdateProfile(r.Context(), identity(r), name, phone)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "Profile updated", u)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var oldPassword, newPassword string
	if err := decodeObject(r, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "old_password":
			oldPassword, err = readString(d)
		case "new_password":
			newPassword, err = readString(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.Accounts.ChangePassword(r.Context(), identity(r), oldPassword, newPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "Password changed", nil)
}

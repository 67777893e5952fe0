package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/sushovancpp/urmart/internal/domain/product"
	"github.com/sushovancpp/urmart/internal/domain/review"
)

const highlightLimit = 8

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Catalog.Categories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "OK", nonNil(cats))
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := product.Filter{
		CategoryID: q.Get("category"),
		Search:     q.Get("search"),
		Sort:       product.Sort(q.Get("sort")),
		Page:       queryInt(r, "page"),
		PerPage:    queryInt(r, "per_page"),
	}.Normalize()

	page, err := h.Catalog.List(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := writeEnvelope(w, http.StatusOK, true, "OK", nonNil(page.Items), func(e *jx.Encoder) {
		e.Field("total", func(e *jx.Encoder) { e.Int(page.Total) })
		e.Field("page", func(e *jx.Encoder) { e.Int(f.Page) })
		e.Field("per_page", func(e *jx.Encoder) { e.Int(f.PerPage) })
	}); err != nil {
		h.writeError(w, r, err)
	}
}

func (h *Handler) featuredProducts(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.Featured(r.Context(), highlightLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "OK", nonNil(items))
}

func (h *Handler) trendingProducts(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.Trending(r.Context(), highlightLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, r, "OK", nonNil(items))
}

type productDetail struct {
	*product.Product
	Category *product.Category `json:"category"`
	Reviews  []review.Review   `json:"reviews"`
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.Catalog.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	cat, err := h.Catalog.GetCategory(ctx, p.CategoryID)
	if err != nil && !errors.Is(err, product.ErrNotFound) {
		h.writeError(w, r, err)
		return
	}
	reviews, err := h.Reviews.Recent(ctx, p.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.ok(w, r, "OK", productDetail{Product: p, Category: cat, Reviews: nonNil(reviews)})
}

func (h *Handler) addReview(w http.ResponseWriter, r *http.Request) {
	var (
		rating  int
		comment string
	)
	if err := decodeObject(r, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "rating":
			rating, err = readInt(d)
		case "comment":
			comment, err = readString(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		h.writeError(w, r, errBadBody)
		return
	}

	rv, err := h.Reviews.Add(r.Context(), identity(r).UserID, chi.URLParam(r, "id"), rating, comment)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, "Review added", rv)
}

// nonNil renders empty lists as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

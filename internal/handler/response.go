package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

const maxBodySize = 1 << 20

func init() {
	// Money is rendered as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// requestError is a malformed request that never reached a service.
type requestError struct {
	Message string
}

func (e *requestError) Error() string { return e.Message }

var errBadBody = &requestError{Message: "Invalid request body"}

// writeEnvelope writes {"success","message","data"} followed by any extra
// top-level fields. data is omitted when nil.
func writeEnvelope(w http.ResponseWriter, status int, success bool, message string, data any, extra func(e *jx.Encoder)) error {
	var raw []byte
	if data != nil {
		var err error
		if raw, err = json.Marshal(data); err != nil {
			return errors.Wrap(err, "marshal response")
		}
	}

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.Obj(func(e *jx.Encoder) {
		e.Field("success", func(e *jx.Encoder) { e.Bool(success) })
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		if raw != nil {
			e.Field("data", func(e *jx.Encoder) { e.Raw(raw) })
		}
		if extra != nil {
			extra(e)
		}
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
	return nil
}

func (h *Handler) ok(w http.ResponseWriter, r *http.Request, message string, data any) {
	h.respond(w, r, http.StatusOK, message, data)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	if err := writeEnvelope(w, status, true, message, data, nil); err != nil {
		h.writeError(w, r, err)
	}
}

// decodeObject reads a JSON object body and calls fn for every key. An empty
// body is treated as an empty object.
func decodeObject(r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return errBadBody
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := jx.DecodeBytes(body).Obj(fn); err != nil {
		return errBadBody
	}
	return nil
}

// readString accepts strings and numbers; null and other kinds read as "".
func readString(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", d.Skip()
	}
}

// readInt accepts integers and numeric strings.
func readInt(d *jx.Decoder) (int, error) {
	switch d.Next() {
	case jx.Number:
		return d.Int()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		return strconv.Atoi(s)
	case jx.Null:
		return 0, d.Null()
	default:
		return 0, skipUnexpected(d)
	}
}

func readDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	default:
		return decimal.Zero, skipUnexpected(d)
	}
}

func skipUnexpected(d *jx.Decoder) error {
	t := d.Next()
	if err := d.Skip(); err != nil {
		return err
	}
	return errors.Errorf("unexpected %s", t)
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

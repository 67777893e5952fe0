package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/sushovancpp/urmart/internal/domain/coupon"
)

// parseLine parses one coupon line:
//
//	CODE,type,value,min_order,max_uses[,expires_at]
//
// expires_at is RFC 3339 or a plain date. Blank lines and a header row yield
// ok=false with no error.
func parseLine(line string) (c coupon.Coupon, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return c, false, nil
	}

	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if strings.EqualFold(fields[0], "code") {
		return c, false, nil
	}
	if len(fields) < 5 || len(fields) > 6 {
		return c, false, errors.Errorf("want 5 or 6 fields, got %d", len(fields))
	}

	c.Code = coupon.NormalizeCode(fields[0])
	if c.Code == "" {
		return c, false, errors.New("empty code")
	}

	c.Type = coupon.Type(strings.ToLower(fields[1]))
	if !c.Type.Valid() {
		return c, false, errors.Errorf("unknown type %q", fields[1])
	}

	if c.Value, err = decimal.NewFromString(fields[2]); err != nil {
		return c, false, errors.Wrap(err, "value")
	}
	if c.Value.IsNegative() || (c.Type == coupon.TypePercent && c.Value.GreaterThan(decimal.NewFromInt(100))) {
		return c, false, errors.Errorf("value %s out of range", c.Value)
	}

	c.MinOrder = decimal.Zero
	if fields[3] != "" {
		if c.MinOrder, err = decimal.NewFromString(fields[3]); err != nil {
			return c, false, errors.Wrap(err, "min_order")
		}
	}

	if fields[4] != "" {
		if c.MaxUses, err = strconv.Atoi(fields[4]); err != nil {
			return c, false, errors.Wrap(err, "max_uses")
		}
	}

	if len(fields) == 6 && fields[5] != "" {
		at, err := parseExpiry(fields[5])
		if err != nil {
			return c, false, errors.Wrap(err, "expires_at")
		}
		c.ExpiresAt = &at
	}

	c.Active = true
	return c, true, nil
}

func parseExpiry(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}

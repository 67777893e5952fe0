package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sushovancpp/urmart/internal/domain/coupon"
)

func TestParseLine(t *testing.T) {
	expiry := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	for _, tt := range []struct {
		name string
		line string
		want *coupon.Coupon
		err  bool
	}{
		{
			name: "Percent",
			line: "welcome10,percent,10,0,0",
			want: &coupon.Coupon{Code: "WELCOME10", Type: coupon.TypePercent, Value: decimal.NewFromInt(10), MinOrder: decimal.Zero, Active: true},
		},
		{
			name: "FlatWithLimitAndExpiry",
			line: " SAVE50 , flat , 50 , 299 , 100 , 2026-12-31",
			want: &coupon.Coupon{Code: "SAVE50", Type: coupon.TypeFlat, Value: decimal.NewFromInt(50), MinOrder: decimal.NewFromInt(299), MaxUses: 100, ExpiresAt: &expiry, Active: true},
		},
		{name: "Header", line: "code,type,value,min_order,max_uses"},
		{name: "Blank", line: "   "},
		{name: "Comment", line: "# spring promo"},
		{name: "TooFewFields", line: "X,flat,1", err: true},
		{name: "UnknownType", line: "X,bogo,1,0,0", err: true},
		{name: "PercentOver100", line: "X,percent,120,0,0", err: true},
		{name: "NegativeValue", line: "X,flat,-5,0,0", err: true},
		{name: "BadMaxUses", line: "X,flat,5,0,many", err: true},
		{name: "BadExpiry", line: "X,flat,5,0,0,someday", err: true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			c, ok, err := parseLine(tt.line)
			if tt.err {
				require.Error(t, err)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want.Code, c.Code)
			assert.Equal(t, tt.want.Type, c.Type)
			assert.True(t, tt.want.Value.Equal(c.Value))
			assert.True(t, tt.want.MinOrder.Equal(c.MinOrder))
			assert.Equal(t, tt.want.MaxUses, c.MaxUses)
			assert.Equal(t, tt.want.ExpiresAt, c.ExpiresAt)
			assert.True(t, c.Active)
		})
	}
}

type memUpserter struct {
	mu      sync.Mutex
	coupons map[string]coupon.Coupon
	batches int
}

func (m *memUpserter) UpsertBatch(_ context.Context, coupons []coupon.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.coupons == nil {
		m.coupons = make(map[string]coupon.Coupon)
	}
	m.batches++
	for _, c := range coupons {
		m.coupons[c.Code] = c
	}
	return nil
}

func writeGz(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func TestIngest_DedupesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	first := writeGz(t, dir, "spring.gz",
		"code,type,value,min_order,max_uses",
		"WELCOME10,percent,10,0,0",
		"SAVE50,flat,50,299,0",
		"FRESH20,percent,20,499,1000",
		"broken line",
	)
	second := writeGz(t, dir, "summer.gz",
		"SAVE50,flat,60,299,0",
		"MONSOON5,flat,5,0,0",
		"MONSOON5,flat,7,0,0",
	)

	dst := &memUpserter{}
	st, err := ingest(context.Background(), ingestConfig{
		files:     []string{first, second},
		batchSize: 2,
		capacity:  1000,
	}, dst)
	require.NoError(t, err)

	assert.Len(t, dst.coupons, 4)
	assert.EqualValues(t, 1, st.malformed.Load())
	assert.True(t, decimal.NewFromInt(60).Equal(dst.coupons["SAVE50"].Value), "later file wins")
	assert.True(t, decimal.NewFromInt(7).Equal(dst.coupons["MONSOON5"].Value), "later line wins")
	assert.Equal(t, 1000, dst.coupons["FRESH20"].MaxUses)
	for code, c := range dst.coupons {
		assert.NotEmpty(t, c.ID, code)
	}
}

func TestIngest_MissingFile(t *testing.T) {
	_, err := ingest(context.Background(), ingestConfig{
		files:    []string{filepath.Join(t.TempDir(), "nope.gz")},
		capacity: 10,
	}, &memUpserter{})
	require.Error(t, err)
}

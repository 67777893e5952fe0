// Command coupon-ingest imports gzipped coupon lists into the coupons table.
//
// Codes are deduplicated across files in two passes. Pass 1 builds one bloom
// filter per file. Pass 2 streams the files again: codes that no other file's
// filter contains are unique and are upserted straight away, while the rest
// are held in memory and resolved exactly, the last file on the command line
// winning. Only overlapping codes are ever kept in memory.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/sushovancpp/urmart/internal/domain/coupon"
	"github.com/sushovancpp/urmart/internal/repository"
)

const (
	bloomFPR      = 0.001
	progressEvery = 1_000_000
)

// Upserter writes coupons in batches.
type Upserter interface {
	UpsertBatch(ctx context.Context, coupons []coupon.Coupon) error
}

type ingestConfig struct {
	files     []string
	batchSize int
	capacity  uint
}

type stats struct {
	written   atomic.Int64
	malformed atomic.Int64
}

func main() {
	var (
		databaseURL string
		cfg         ingestConfig
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&cfg.batchSize, "batch", 1000, "coupons per upsert batch")
	flag.UintVar(&cfg.capacity, "capacity", 10_000_000, "expected codes per file, sizes the bloom filters")
	flag.Parse()
	cfg.files = flag.Args()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if len(cfg.files) == 0 {
		slog.Error("usage: coupon-ingest [flags] FILE.gz...")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	pool, err := repository.NewPool(ctx, databaseURL, 0)
	if err != nil {
		slog.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	st, err := ingest(ctx, cfg, repository.NewCouponRepository(pool))
	if err != nil {
		slog.Error("coupon ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon ingest completed",
		slog.Int64("written", st.written.Load()),
		slog.Int64("malformed", st.malformed.Load()),
	)
}

func ingest(ctx context.Context, cfg ingestConfig, dst Upserter) (*stats, error) {
	if cfg.batchSize <= 0 {
		cfg.batchSize = 1000
	}
	st := &stats{}

	slog.Info("pass 1: building bloom filters", slog.Int("files", len(cfg.files)))
	filters, err := buildFilters(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "build bloom filters")
	}

	slog.Info("pass 2: writing unique codes")
	overlaps := make([]map[string]coupon.Coupon, len(cfg.files))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range cfg.files {
		g.Go(func() error {
			held, err := writeUnique(gctx, cfg, i, path, filters, dst, st)
			if err != nil {
				return errors.Wrapf(err, "file %s", path)
			}
			overlaps[i] = held
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Later files override earlier ones.
	merged := make(map[string]coupon.Coupon)
	for _, held := range overlaps {
		for code, c := range held {
			merged[code] = c
		}
	}
	slog.Info("resolving overlapping codes", slog.Int("count", len(merged)))

	w := newBatchWriter(dst, cfg.batchSize, st)
	for _, c := range merged {
		if err := w.add(ctx, c); err != nil {
			return nil, err
		}
	}
	if err := w.flush(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func buildFilters(ctx context.Context, cfg ingestConfig) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(cfg.files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range cfg.files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(cfg.capacity, bloomFPR)
			var n uint64
			err := streamCoupons(ctx, path, func(c coupon.Coupon) {
				filter.AddString(c.Code)
				if n++; n%progressEvery == 0 {
					slog.Info("pass 1 progress", slog.String("file", path), slog.Uint64("codes", n))
				}
			}, nil)
			if err != nil {
				return errors.Wrapf(err, "file %s", path)
			}
			filters[i] = filter
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// writeUnique upserts codes of file idx that no other filter contains and
// returns the rest.
func writeUnique(
	ctx context.Context,
	cfg ingestConfig,
	idx int,
	path string,
	filters []*bloom.BloomFilter,
	dst Upserter,
	st *stats,
) (map[string]coupon.Coupon, error) {
	held := make(map[string]coupon.Coupon)
	w := newBatchWriter(dst, cfg.batchSize, st)

	var writeErr error
	err := streamCoupons(ctx, path, func(c coupon.Coupon) {
		if writeErr != nil {
			return
		}
		if _, dup := held[c.Code]; dup || inOthers(filters, idx, c.Code) {
			held[c.Code] = c
			return
		}
		writeErr = w.add(ctx, c)
	}, func() { st.malformed.Add(1) })
	if err != nil {
		return nil, err
	}
	if writeErr != nil {
		return nil, writeErr
	}
	if err := w.flush(ctx); err != nil {
		return nil, err
	}
	return held, nil
}

func inOthers(filters []*bloom.BloomFilter, idx int, code string) bool {
	for j, f := range filters {
		if j != idx && f.TestString(code) {
			return true
		}
	}
	return false
}

// streamCoupons calls fn for every parsed line of a gzip file and bad for
// every malformed one.
func streamCoupons(ctx context.Context, path string, fn func(coupon.Coupon), bad func()) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++
		c, ok, err := parseLine(scanner.Text())
		switch {
		case err != nil:
			if bad != nil {
				bad()
				slog.Debug("skipping malformed line", slog.String("file", path), slog.Int("line", line), slog.String("error", err.Error()))
			}
		case ok:
			fn(c)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

// batchWriter buffers coupons and upserts them batchSize at a time. Within a
// file a repeated code replaces the buffered one so a batch never touches the
// same row twice.
type batchWriter struct {
	dst   Upserter
	size  int
	st    *stats
	buf   []coupon.Coupon
	index map[string]int
}

func newBatchWriter(dst Upserter, size int, st *stats) *batchWriter {
	return &batchWriter{dst: dst, size: size, st: st, index: make(map[string]int, size)}
}

func (w *batchWriter) add(ctx context.Context, c coupon.Coupon) error {
	if i, ok := w.index[c.Code]; ok {
		c.ID = w.buf[i].ID
		w.buf[i] = c
		return nil
	}
	c.ID = uuid.NewString()
	w.index[c.Code] = len(w.buf)
	w.buf = append(w.buf, c)
	if len(w.buf) < w.size {
		return nil
	}
	return w.flush(ctx)
}

func (w *batchWriter) flush(ctx context.Context) error {
	if len(w.buf) == 0 {
		return nil
	}
	if err := w.dst.UpsertBatch(ctx, w.buf); err != nil {
		return errors.Wrap(err, "upsert batch")
	}
	w.st.written.Add(int64(len(w.buf)))
	w.buf = w.buf[:0]
	clear(w.index)
	return nil
}

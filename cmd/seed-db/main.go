package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/sushovancpp/urmart/internal/domain/auth"
	"github.com/sushovancpp/urmart/internal/domain/coupon"
	"github.com/sushovancpp/urmart/internal/domain/product"
	"github.com/sushovancpp/urmart/internal/repository"
)

const (
	adminID    = "admin"
	adminEmail = "admin@urmart.com"

	upsertCategorySQL = `INSERT INTO categories (id, name, emoji, sort_order)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, emoji = EXCLUDED.emoji, sort_order = EXCLUDED.sort_order`

	// Stock, rating and review counts move at runtime, so re-seeding leaves them alone.
	upsertProductSQL = `INSERT INTO products
		(id, name, description, category_id, emoji, brand, weight, price, mrp, discount, stock, rating, review_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description, category_id = EXCLUDED.category_id,
			emoji = EXCLUDED.emoji, brand = EXCLUDED.brand, weight = EXCLUDED.weight,
			price = EXCLUDED.price, mrp = EXCLUDED.mrp, discount = EXCLUDED.discount`

	insertAdminSQL = `INSERT INTO users (id, name, email, phone, password, role)
		VALUES ($1, 'Admin', $2, '9999999999', $3, 'admin')
		ON CONFLICT (email) DO NOTHING`
)

type catalogFile struct {
	Categories []product.Category `json:"categories"`
	Products   []product.Product  `json:"products"`
	Coupons    []struct {
		Code     string          `json:"code"`
		Type     coupon.Type     `json:"type"`
		Value    decimal.Decimal `json:"value"`
		MinOrder decimal.Decimal `json:"min_order"`
		MaxUses  int             `json:"max_uses"`
	} `json:"coupons"`
}

func main() {
	var (
		databaseURL   string
		catalogPath   string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogPath, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.StringVar(&adminPassword, "admin-password", "", "password for "+adminEmail+" (or URMART_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("URMART_ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		adminPassword = "admin123"
		slog.Warn("using default admin password")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogPath, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogPath, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL, 0)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	catalog, err := readCatalog(catalogPath)
	if err != nil {
		return err
	}

	if err := seedCatalog(ctx, pool, catalog); err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	if err := seedCoupons(ctx, repository.NewCouponRepository(pool), catalog); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	if err := seedAdmin(ctx, pool, adminPassword); err != nil {
		return errors.Wrap(err, "seed admin")
	}

	return nil
}

func readCatalog(path string) (*catalogFile, error) {
	slog.Info("reading catalog file", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog file")
	}

	var c catalogFile
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "parse catalog JSON")
	}
	return &c, nil
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool, c *catalogFile) error {
	slog.Info("upserting catalog",
		slog.Int("categories", len(c.Categories)),
		slog.Int("products", len(c.Products)),
	)

	batch := &pgx.Batch{}
	for _, cat := range c.Categories {
		batch.Queue(upsertCategorySQL, cat.ID, cat.Name, cat.Emoji, cat.SortOrder)
	}
	for _, p := range c.Products {
		batch.Queue(upsertProductSQL,
			p.ID, p.Name, p.Description, p.CategoryID, p.Emoji, p.Brand, p.Weight,
			p.Price, p.MRP, p.Discount, p.Stock, p.Rating, p.ReviewCount,
		)
	}
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Wrap(err, "upsert catalog")
	}
	return nil
}

func seedCoupons(ctx context.Context, repo *repository.CouponRepository, c *catalogFile) error {
	coupons := make([]coupon.Coupon, 0, len(c.Coupons))
	for i, in := range c.Coupons {
		code := coupon.NormalizeCode(in.Code)
		if code == "" || !in.Type.Valid() {
			return errors.Errorf("coupon #%d: invalid code or type", i)
		}
		coupons = append(coupons, coupon.Coupon{
			// Seeded coupons keep stable ids across runs.
			ID:       "seed-" + code,
			Code:     code,
			Type:     in.Type,
			Value:    in.Value,
			MinOrder: in.MinOrder,
			MaxUses:  in.MaxUses,
			Active:   true,
		})
		slog.Info("upserting coupon", slog.String("code", code), slog.String("type", string(in.Type)))
	}
	return repo.UpsertBatch(ctx, coupons)
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, password string) error {
	hash, err := auth.HashPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	tag, err := pool.Exec(ctx, insertAdminSQL, adminID, adminEmail, hash)
	if err != nil {
		return errors.Wrap(err, "insert admin user")
	}
	if tag.RowsAffected() == 0 {
		slog.Info("admin user already exists", slog.String("email", adminEmail))
		return nil
	}

	slog.Info("created admin user", slog.String("email", adminEmail))
	return nil
}

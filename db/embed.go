// Package db embeds the storefront schema.
package db

import _ "embed"

// Schema creates users, addresses, the catalog, carts, wishlists, reviews,
// coupons and orders. Every statement is idempotent.
//
//go:embed migrations/001_schema.sql
var Schema string

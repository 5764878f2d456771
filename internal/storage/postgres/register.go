package postgres

import "pricefeed/internal/storage"

func init() {
	storage.Register("postgres", New)
}

package sqlite

import "pricefeed/internal/storage"

func init() {
	storage.Register("sqlite", New)
}

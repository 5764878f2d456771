package mssql

import "pricefeed/internal/storage"

func init() {
	storage.Register("mssql", New)
}

// Package all links every storage backend into the binary. Blank-import it
// from main to make the kinds available to storage.New.
package all

import (
	_ "pricefeed/internal/storage/mssql"
	_ "pricefeed/internal/storage/postgres"
	_ "pricefeed/internal/storage/sqlite"
)

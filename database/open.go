package database

import (
	"context"
	"fmt"
)

// Supported store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverMemory   = "memory"
)

// Open connects to the store selected by driver.
func Open(ctx context.Context, driver, url string) (Store, error) {
	switch driver {
	case DriverPostgres, "":
		return Connect(ctx, url)
	case DriverSQLite:
		return OpenSQLite(url)
	case DriverMySQL:
		return OpenMySQL(url)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

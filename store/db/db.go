package db

import (
	"github.com/pkg/errors"

	"github.com/retailsense/concierge/internal/profile"
	"github.com/retailsense/concierge/store"
	"github.com/retailsense/concierge/store/db/postgres"
	"github.com/retailsense/concierge/store/db/sqlite"
)

// NewDBDriver creates a new db driver based on the profile.
//
// PostgreSQL is the production driver with pgvector similarity search
// over document embeddings. SQLite is for development and tests; it
// stores embeddings as blobs and scans them in memory.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.New("unknown db driver: only 'postgres' and 'sqlite' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}

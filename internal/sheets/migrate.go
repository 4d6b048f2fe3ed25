package sheets

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate runs the sheet store migrations on its own connection.
//   - targetVersion < 0 migrates to the latest version.
//   - targetVersion == 0 rolls every migration back.
//   - targetVersion > 0 migrates to that version.
func Migrate(backend Backend, dsn string, targetVersion int) error {
	if backend == NoneBackend {
		return fmt.Errorf("migrations are not supported for the %q backend", backend)
	}

	db, err := openDB(backend, dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	driver, err := migrationDriver(backend, db)
	if err != nil {
		return err
	}

	src, err := iofs.New(migrationsFS, "migrations/"+string(backend))
	if err != nil {
		return fmt.Errorf("failed to load %s migrations: %w", backend, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(backend), driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, verr := m.Version()
	if verr == nil {
		log.Debug().Str("backend", string(backend)).Uint("version", version).Bool("dirty", dirty).Msg("Sheet store schema ready")
	}
	return nil
}

func migrationDriver(backend Backend, db *sql.DB) (database.Driver, error) {
	var (
		driver database.Driver
		err    error
	)
	switch backend {
	case SQLiteBackend:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	case PostgresBackend:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	case MySQLBackend:
		driver, err = migratemysql.WithInstance(db, &migratemysql.Config{})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s migrate driver: %w", backend, err)
	}
	return driver, nil
}

package database

import (
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func defaultPgDriver(sqlDB *sql.DB) (migratedb.Driver, error) {
	return postgres.WithInstance(sqlDB, &postgres.Config{})
}

func defaultMigrateUp(m *migrate.Migrate) error   { return m.Up() }
func defaultMigrateDown(m *migrate.Migrate) error { return m.Down() }

// 測試可覆寫這些變數
var (
	openSQL       = sql.Open
	newPgDriver   = defaultPgDriver
	newSourceFS   = iofs.New
	newMigrateIns = migrate.NewWithInstance
	migrateUp     = defaultMigrateUp
	migrateDown   = defaultMigrateDown
)

func newMigrate(dbURL string) (*migrate.Migrate, func() error, error) {
	// 使用 pgx stdlib driver 建立 *sql.DB
	sqlDB, err := openSQL("pgx", dbURL)
	if err != nil {
		return nil, nil, err
	}

	driver, err := newPgDriver(sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}

	sourceDriver, err := newSourceFS(migrationsFS, "migrations")
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}

	m, err := newMigrateIns("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}
	return m, sqlDB.Close, nil
}

// RunMigrations 嵌入並執行 SQL migration (up all)
func RunMigrations(dbURL string) error {
	m, closeFn, err := newMigrate(dbURL)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := migrateUp(m); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// RollbackAll 退回所有 migration (down to version 0)
func RollbackAll(dbURL string) error {
	m, closeFn, err := newMigrate(dbURL)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := migrateDown(m); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

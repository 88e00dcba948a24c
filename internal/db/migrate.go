package db

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the database drivers and file
	// source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/seeall/facturation/internal/models"
)

// ConnectAndMigrate opens the store named by dsn and brings its schema up
// to date. Opening an older database file upgrades it in place; no
// migration step is ever destructive.
func ConnectAndMigrate(dsn string, log *zap.Logger) (*gorm.DB, error) {
	dsn = NormalizeDSN(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN est vide, vérifiez la configuration de l'environnement")
	}
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var db *gorm.DB
	var err error
	if IsPostgresDSN(dsn) {
		for i := 0; i < 10; i++ {
			db, err = gorm.Open(postgres.Open(dsn), cfg)
			if err == nil {
				break
			}
			log.Warn("retrying DB connection", zap.Error(err))
			time.Sleep(2 * time.Second)
		}
	} else {
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// Basic connectivity test
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	// If MIGRATIONS=1 (or true) we run sql migrations via golang-migrate;
	// otherwise the guarded in-place migration below (default for the
	// single-file desktop deployment).
	if v := strings.ToLower(os.Getenv("MIGRATIONS")); v == "1" || v == "true" || v == "yes" {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else if err := Migrate(db); err != nil {
		return nil, err
	}

	// sanity check: ensure required core tables exist
	for _, table := range []string{"clients", "documents", "document_sites", "document_legacy_items", "numbering_counters"} {
		if !db.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	log.Info("database ready", zap.Bool("postgres", IsPostgresDSN(dsn)))
	return db, nil
}

// Migrate applies the additive schema migration. Every step is guarded so
// running it any number of times yields the same schema, and database
// files created by earlier releases gain the newer columns without losing
// rows.
func Migrate(db *gorm.DB) error {
	modelsToMigrate := []interface{}{
		&models.Client{}, &models.Document{}, &models.Site{}, &models.LegacyItem{}, &models.Counter{},
	}
	for _, m := range modelsToMigrate {
		if migErr := db.AutoMigrate(m); migErr != nil {
			return fmt.Errorf("automigrate %T: %w", m, migErr)
		}
	}
	return upgradeLegacyColumns(db)
}

// upgradeLegacyColumns adds the columns introduced after the first schema
// version. AutoMigrate covers fresh databases; this pass spells the
// upgrades out for files predating the multi-site model.
func upgradeLegacyColumns(db *gorm.DB) error {
	type upgrade struct {
		model  interface{}
		column string
	}
	upgrades := []upgrade{
		{&models.Document{}, "typology"},
		{&models.Document{}, "document_date"},
		{&models.Document{}, "intervention_date"},
		{&models.Document{}, "order_reference"},
		{&models.Document{}, "invoiced"},
		{&models.Document{}, "linked_invoice_id"},
		{&models.Site{}, "street"},
		{&models.Site{}, "postal_code"},
		{&models.Site{}, "city"},
		{&models.Site{}, "latitude"},
		{&models.Site{}, "longitude"},
	}
	for _, u := range upgrades {
		if db.Migrator().HasColumn(u.model, u.column) {
			continue
		}
		if err := db.Migrator().AddColumn(u.model, u.column); err != nil {
			return fmt.Errorf("add column %s: %w", u.column, err)
		}
	}
	return nil
}

// runSQLMigrations executes migrations in ./migrations using golang-migrate
// file source.
func runSQLMigrations(dsn string) error {
	if !IsPostgresDSN(dsn) {
		dsn = "sqlite3://" + dsn
	}
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

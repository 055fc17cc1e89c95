package database

import (
	"context"
	"embed"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	migrate "github.com/rubenv/sql-migrate"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/meeting-taskflow/pkg/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const dialect = "postgres"

// Migrations returns the embedded migration source
func Migrations() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationsFS,
		Root:       "migrations",
	}
}

// NewPostgresDB opens the PostgreSQL connection using GORM, retrying while the server comes up
func NewPostgresDB(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDatabaseDSN()

	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	var db *gorm.DB
	connect := func() error {
		conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger:         gormLogger,
			TranslateError: true,
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})
		if err != nil {
			return err
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return err
		}
		db = conn
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second
	notify := func(err error, wait time.Duration) {
		log.Printf("⏳ Database not ready (%v), retrying in %s", err, wait.Round(time.Millisecond))
	}
	if err := backoff.RetryNotify(connect, backoff.WithContext(policy, ctx), notify); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MinConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("✅ Database connected successfully")
	return db, nil
}

// MigrateUp applies every pending migration and returns how many ran
func MigrateUp(db *gorm.DB) (int, error) {
	return exec(db, migrate.Up, 0)
}

// MigrateDown rolls back up to steps migrations; zero rolls back everything
func MigrateDown(db *gorm.DB, steps int) (int, error) {
	return exec(db, migrate.Down, steps)
}

// MigrationStatus describes one known migration
type MigrationStatus struct {
	ID        string
	AppliedAt *time.Time
}

// Status lists every embedded migration and when it was applied
func Status(db *gorm.DB) ([]MigrationStatus, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	known, err := Migrations().FindMigrations()
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	records, err := migrate.GetMigrationRecords(sqlDB, dialect)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration records: %w", err)
	}

	applied := make(map[string]time.Time, len(records))
	for _, r := range records {
		applied[r.Id] = r.AppliedAt
	}

	out := make([]MigrationStatus, 0, len(known))
	for _, m := range known {
		st := MigrationStatus{ID: m.Id}
		if at, ok := applied[m.Id]; ok {
			at := at
			st.AppliedAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}

func exec(db *gorm.DB, dir migrate.MigrationDirection, max int) (int, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get database object: %w", err)
	}
	n, err := migrate.ExecMax(sqlDB, dialect, Migrations(), dir, max)
	if err != nil {
		return n, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return n, nil
}

// AutoMigrate applies pending migrations at boot
func AutoMigrate(db *gorm.DB) error {
	log.Println("🔄 Applying embedded migrations using sql-migrate...")
	n, err := MigrateUp(db)
	if err != nil {
		return err
	}
	log.Printf("✅ Applied %d migrations!\n", n)
	return nil
}

// CloseDB closes the database connection
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("✅ Database connection closed")
	return nil
}

package infra

import (
	"fmt"

	"hexagono/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the GORM connection and brings the schema up to date.
// TranslateError is on so unique and foreign-key violations surface as
// gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates/updates the quote tables and applies the patches
// AutoMigrate cannot express. Safe to run on every start.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Quote{},
		&model.QuoteFeature{},
		&model.StatusHistory{},
		&model.QuoteNote{},
		&model.QuoteSequence{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL: the append-only guard on the status
// history and the partial index behind the reminder sweep query.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"history append-only function", `
CREATE OR REPLACE FUNCTION quote_status_history_immutable() RETURNS trigger AS $$
BEGIN
  RAISE EXCEPTION 'quote_status_history is append-only';
END;
$$ LANGUAGE plpgsql`},
		{"history append-only trigger", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_quote_status_history_immutable') THEN
    CREATE TRIGGER trg_quote_status_history_immutable
      BEFORE UPDATE OR DELETE ON quote_status_history
      FOR EACH ROW EXECUTE FUNCTION quote_status_history_immutable();
  END IF;
END $$`},
		{"stale pending partial index", `
CREATE INDEX IF NOT EXISTS idx_quotes_stale_pending
    ON quotes (created_at)
    WHERE status = 'PENDING'`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}

package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/postgresql"
	"github.com/jackc/pgx/v5"
)

const migrationFile = "0001_punch_records_leave_spans.up.sql"

// TestDatabaseSetup holds the connection to the test database
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL. Tests are skipped when it is unset.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(db.Close)

	return &TestDatabaseSetup{DB: db}
}

// Begin opens a transaction with the schema applied and returns a context that
// routes repository calls through it. Everything is rolled back on cleanup.
func (s *TestDatabaseSetup) Begin(t *testing.T) (context.Context, pgx.Tx) {
	t.Helper()

	ctx := context.Background()
	tx, err := s.DB.BeginTx(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })

	if err := applySchema(ctx, tx); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	return postgresql.ContextWithTx(ctx, tx), tx
}

func applySchema(ctx context.Context, tx pgx.Tx) error {
	sql, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "migrations", migrationFile))
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := tx.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("exec migration: %w", err)
	}
	// Rows left behind by other runs would leak into assertions.
	if _, err := tx.Exec(ctx, "TRUNCATE TABLE punch_records, leave_spans"); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	return nil
}

package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mietwerk/rentledger/internal/infrastructure/postgres"
)

// TestDB provides isolated test database connections. Integration tests skip
// when TEST_DATABASE_URL is not set.
type TestDB struct {
	Pool *pgxpool.Pool
	t    *testing.T
}

// NewTestDB creates a new test database connection.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	migrationsPath := "migrations"
	if _, err := os.Stat(migrationsPath); os.IsNotExist(err) {
		migrationsPath = "../../migrations"
	}

	if err := postgres.RunMigrations(dbURL, migrationsPath, zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}

	return &TestDB{Pool: pool, t: t}
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE transactions, financial_items, lease_contracts,
		         units, tenants, buildings, outbox_events, audit_logs
		CASCADE
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// ContractGraph is a seeded building/unit/tenant/contract set.
type ContractGraph struct {
	BuildingID string
	UnitID     string
	TenantID   string
	ContractID string
	ItemIDs    []string
}

// SeedContractGraph inserts a building, unit, tenant, an active lease
// contract and one pending rent item per given payment month.
func (db *TestDB) SeedContractGraph(ctx context.Context, rent decimal.Decimal, months ...string) ContractGraph {
	db.t.Helper()

	g := ContractGraph{
		BuildingID: "bld-test",
		UnitID:     "unit-test",
		TenantID:   "ten-test",
		ContractID: "con-test",
	}

	exec := func(query string, args ...any) {
		db.t.Helper()
		if _, err := db.Pool.Exec(ctx, query, args...); err != nil {
			db.t.Fatalf("seed failed: %v", err)
		}
	}

	exec(`INSERT INTO buildings (id, name, address) VALUES ($1, $2, $3)`,
		g.BuildingID, "Rosenhof", "Hauptstr. 5")
	exec(`INSERT INTO units (id, building_id, label) VALUES ($1, $2, $3)`,
		g.UnitID, g.BuildingID, "Whg 12")
	exec(`INSERT INTO tenants (id, first_name, last_name) VALUES ($1, $2, $3)`,
		g.TenantID, "John", "Doe")
	exec(`
		INSERT INTO lease_contracts (id, tenant_id, unit_id, status, total_rent, start_date)
		VALUES ($1, $2, $3, 'active', $4, $5)
	`, g.ContractID, g.TenantID, g.UnitID, rent.String(), time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))

	for _, month := range months {
		itemID := "fi-" + month
		exec(`
			INSERT INTO financial_items (id, contract_id, category, payment_month, status, expected_amount)
			VALUES ($1, $2, 'rent_income', $3, 'pending', $4)
		`, itemID, g.ContractID, month, rent.String())

		g.ItemIDs = append(g.ItemIDs, itemID)
	}

	return g
}

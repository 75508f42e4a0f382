package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mietwerk/rentledger/internal/domain"
)

const contractColumns = `
	id, tenant_id, second_tenant_id, unit_id, status, total_rent,
	start_date, created_at, updated_at`

// ContractRepository implements usecase.ContractRepository. The contract
// tables are owned by the property-management side; this repository only
// reads them.
type ContractRepository struct {
	db querier
}

// NewContractRepository creates a new ContractRepository.
func NewContractRepository(pool *pgxpool.Pool) *ContractRepository {
	return newContractRepositoryWithDB(pool)
}

func newContractRepositoryWithDB(db querier) *ContractRepository {
	return &ContractRepository{db: db}
}

// GetByID retrieves a lease contract by ID.
func (r *ContractRepository) GetByID(ctx context.Context, id string) (*domain.LeaseContract, error) {
	query := `SELECT ` + contractColumns + ` FROM lease_contracts WHERE id = $1`

	return scanContract(r.db.QueryRow(ctx, query, id))
}

// ListActive lists all active lease contracts.
func (r *ContractRepository) ListActive(ctx context.Context) ([]*domain.LeaseContract, error) {
	query := `
		SELECT ` + contractColumns + `
		FROM lease_contracts
		WHERE status = $1
		ORDER BY id ASC
	`

	rows, err := r.db.Query(ctx, query, string(domain.ContractStatusActive))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contracts := []*domain.LeaseContract{}
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}

		contracts = append(contracts, c)
	}

	return contracts, rows.Err()
}

// GetTenant retrieves a tenant by ID.
func (r *ContractRepository) GetTenant(ctx context.Context, id string) (*domain.Tenant, error) {
	query := `SELECT id, first_name, last_name FROM tenants WHERE id = $1`

	var t domain.Tenant
	if err := r.db.QueryRow(ctx, query, id).Scan(&t.ID, &t.FirstName, &t.LastName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTenantNotFound
		}

		return nil, err
	}

	return &t, nil
}

// GetUnit retrieves a unit by ID.
func (r *ContractRepository) GetUnit(ctx context.Context, id string) (*domain.Unit, error) {
	query := `SELECT id, building_id, label FROM units WHERE id = $1`

	var u domain.Unit
	if err := r.db.QueryRow(ctx, query, id).Scan(&u.ID, &u.BuildingID, &u.Label); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUnitNotFound
		}

		return nil, err
	}

	return &u, nil
}

// GetBuilding retrieves a building by ID.
func (r *ContractRepository) GetBuilding(ctx context.Context, id string) (*domain.Building, error) {
	query := `SELECT id, name, address FROM buildings WHERE id = $1`

	var b domain.Building
	if err := r.db.QueryRow(ctx, query, id).Scan(&b.ID, &b.Name, &b.Address); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBuildingNotFound
		}

		return nil, err
	}

	return &b, nil
}

func scanContract(row pgx.Row) (*domain.LeaseContract, error) {
	var (
		c         domain.LeaseContract
		status    string
		totalRent pgtype.Numeric
		startDate pgtype.Timestamptz
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&c.ID,
		&c.TenantID,
		&c.SecondTenantID,
		&c.UnitID,
		&status,
		&totalRent,
		&startDate,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrContractNotFound
		}

		return nil, err
	}

	c.Status = domain.ContractStatus(status)
	c.TotalRent = numericToDecimal(totalRent)
	c.StartDate = startDate.Time
	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time

	return &c, nil
}

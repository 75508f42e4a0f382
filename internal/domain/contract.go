package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ContractStatus is the lifecycle state of a lease contract.
type ContractStatus string

const (
	ContractStatusActive     ContractStatus = "active"
	ContractStatusTerminated ContractStatus = "terminated"
	ContractStatusPending    ContractStatus = "pending"
)

// LeaseContract is a tenancy agreement for a unit. Contracts are owned by the
// property-management entity store; this core only reads them.
type LeaseContract struct {
	ID             string
	TenantID       string
	SecondTenantID string
	UnitID         string
	Status         ContractStatus
	TotalRent      decimal.Decimal
	StartDate      time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsActive reports whether the contract is eligible for matching.
func (c *LeaseContract) IsActive() bool {
	return c.Status == ContractStatusActive
}

// Tenant is a person named on a lease contract.
type Tenant struct {
	ID        string
	FirstName string
	LastName  string
}

// FullName returns "First Last" with empty parts elided.
func (t *Tenant) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

// Unit is a rentable unit inside a building.
type Unit struct {
	ID         string
	BuildingID string
	Label      string
}

// Building groups units under one address.
type Building struct {
	ID      string
	Name    string
	Address string
}

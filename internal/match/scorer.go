// Package match ranks lease contracts against an incoming transaction using
// weighted heuristics over payer name, amount, unit and building mentions.
// Scoring is a pure function over plain data so every weight is directly
// testable.
package match

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mietwerk/rentledger/internal/domain"
)

// Signal weights. Recalibrating them is allowed as long as the relative
// ordering semantics stay intact.
const (
	weightFullName     = 40
	weightPartialName  = 15
	weightAmountExact  = 30
	weightAmountNear   = 20 // within 5
	weightAmountClose  = 10 // within 50
	weightAmountLoose  = 5  // within 100
	weightUnitLabel    = 25
	weightBuildingName = 15
	weightBuildingAddr = 10
	weightIBANHint     = 10
	weightTenure       = 5

	tenureMonths   = 2
	ibanPrefixLen  = 4
	minPartialName = 3
)

// Input bundles everything the scorer may consult for one contract.
type Input struct {
	Transaction  *domain.Transaction
	Contract     *domain.LeaseContract
	Tenant       *domain.Tenant
	SecondTenant *domain.Tenant
	Unit         *domain.Unit
	Building     *domain.Building
}

// Candidate is a scored contract with the signals that contributed.
type Candidate struct {
	Contract *domain.LeaseContract
	Score    int
	Reasons  []string
}

// Score evaluates one contract against the transaction. Pure: no I/O, no
// mutation of inputs.
func Score(in Input) Candidate {
	c := Candidate{Contract: in.Contract}

	if in.Transaction == nil || in.Contract == nil {
		return c
	}

	payerText := normalize(in.Transaction.SenderReceiver + " " + in.Transaction.Description)
	purposeText := normalize(in.Transaction.Reference + " " + in.Transaction.Description)

	c.add(scoreTenantName(payerText, in.Tenant, "tenant"))
	c.add(scoreTenantName(payerText, in.SecondTenant, "co-tenant"))
	c.add(scoreAmount(in.Transaction.Amount, in.Contract.TotalRent))

	if in.Unit != nil && in.Unit.Label != "" && strings.Contains(purposeText, normalize(in.Unit.Label)) {
		c.add(weightUnitLabel, "unit label in reference")
	}

	if in.Building != nil {
		if in.Building.Name != "" && strings.Contains(purposeText, normalize(in.Building.Name)) {
			c.add(weightBuildingName, "building name in reference")
		}

		if in.Building.Address != "" && strings.Contains(purposeText, normalize(in.Building.Address)) {
			c.add(weightBuildingAddr, "building address in reference")
		}
	}

	c.add(scoreIBANHint(in.Transaction.IBAN, in.Tenant))

	if !in.Contract.StartDate.IsZero() &&
		!in.Transaction.BookingDate.Before(in.Contract.StartDate.AddDate(0, tenureMonths, 0)) {
		c.add(weightTenure, "established tenancy")
	}

	return c
}

// Rank scores all inputs, drops inactive contracts and zero scores, and
// returns candidates sorted by score descending. Ties keep the contracts'
// original relative order.
func Rank(inputs []Input) []Candidate {
	candidates := make([]Candidate, 0, len(inputs))

	for _, in := range inputs {
		if in.Contract == nil || !in.Contract.IsActive() {
			continue
		}

		c := Score(in)
		if c.Score > 0 {
			candidates = append(candidates, c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	return candidates
}

func (c *Candidate) add(points int, reason string) {
	if points <= 0 {
		return
	}

	c.Score += points
	c.Reasons = append(c.Reasons, reason)
}

// scoreTenantName scores a tenant's name against the payer text: a full-name
// hit wins outright, otherwise first and last name each score partially.
func scoreTenantName(payerText string, tenant *domain.Tenant, label string) (int, string) {
	if tenant == nil || payerText == "" {
		return 0, ""
	}

	fullName := normalize(tenant.FullName())
	if fullName != "" && strings.Contains(payerText, fullName) {
		return weightFullName, label + " full name matches payer"
	}

	points := 0
	first := normalize(tenant.FirstName)
	last := normalize(tenant.LastName)

	if len(first) >= minPartialName && strings.Contains(payerText, first) {
		points += weightPartialName
	}

	if len(last) >= minPartialName && strings.Contains(payerText, last) {
		points += weightPartialName
	}

	if points == 0 {
		return 0, ""
	}

	return points, label + " name partially matches payer"
}

// scoreAmount scores proximity of the transaction amount to the contract's
// total rent. Only the best-fitting bracket applies.
func scoreAmount(amount, totalRent decimal.Decimal) (int, string) {
	if totalRent.IsZero() {
		return 0, ""
	}

	diff := amount.Abs().Sub(totalRent).Abs()

	switch {
	case diff.IsZero():
		return weightAmountExact, "amount equals total rent"
	case diff.LessThanOrEqual(decimal.NewFromInt(5)):
		return weightAmountNear, "amount within 5 of total rent"
	case diff.LessThanOrEqual(decimal.NewFromInt(50)):
		return weightAmountClose, "amount within 50 of total rent"
	case diff.LessThanOrEqual(decimal.NewFromInt(100)):
		return weightAmountLoose, "amount within 100 of total rent"
	default:
		return 0, ""
	}
}

// scoreIBANHint checks the low-confidence signal of the tenant's last name
// appearing inside the counterparty IBAN.
func scoreIBANHint(iban string, tenant *domain.Tenant) (int, string) {
	if tenant == nil || iban == "" {
		return 0, ""
	}

	last := normalize(tenant.LastName)
	if len(last) < ibanPrefixLen {
		return 0, ""
	}

	if strings.Contains(strings.ToLower(iban), last[:ibanPrefixLen]) {
		return weightIBANHint, "iban hints at tenant name"
	}

	return 0, ""
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validation errors
var (
	ErrInvalidCategory     = errors.New("invalid transaction category")
	ErrInvalidPaymentMonth = errors.New("invalid payment month")
	ErrStatementTooLarge   = errors.New("statement exceeds maximum allowed size")
	ErrEmptyStatement      = errors.New("statement is empty")
)

// Validation constants
const (
	MaxStatementSize = 5 << 20 // 5MB of statement text per import
)

var validCategories = map[string]bool{
	CategoryRentIncome:     true,
	CategoryDeposit:        true,
	CategoryOperatingCosts: true,
	CategoryMaintenance:    true,
	CategoryInsurance:      true,
	CategoryTax:            true,
	CategoryOther:          true,
}

var paymentMonthRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidateCategory validates a transaction category.
func ValidateCategory(category string) error {
	category = strings.TrimSpace(strings.ToLower(category))

	if !validCategories[category] {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	return nil
}

// ValidatePaymentMonth validates a YYYY-MM payment month.
func ValidatePaymentMonth(month string) error {
	if !paymentMonthRegex.MatchString(month) {
		return fmt.Errorf("%w: %q", ErrInvalidPaymentMonth, month)
	}

	return nil
}

// ValidateStatement validates raw statement text before parsing.
func ValidateStatement(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyStatement
	}

	if len(content) > MaxStatementSize {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d bytes", ErrStatementTooLarge, len(content), MaxStatementSize)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}

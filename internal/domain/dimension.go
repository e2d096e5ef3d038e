package domain

import (
	"fmt"
	"strings"
)

// DimensionRef is a dimension row: a durable UUID identity plus the compact
// per-estate reporting id used by external filters.
type DimensionRef struct {
	ID          string `json:"id" yaml:"id"`
	ReportingID int    `json:"reporting_id" yaml:"reporting_id"`
	Name        string `json:"name" yaml:"name"`
}

type Merchant struct {
	DimensionRef `yaml:",inline"`
}

type Operator struct {
	DimensionRef `yaml:",inline"`
}

type Contract struct {
	DimensionRef `yaml:",inline"`
	OperatorID   string `json:"operator_id" yaml:"operator_id"`
}

type Product struct {
	DimensionRef `yaml:",inline"`
	ContractID   string `json:"contract_id" yaml:"contract_id"`
}

// Dimension is an axis for grouping and ranking sales.
type Dimension string

const (
	DimensionMerchant Dimension = "merchant"
	DimensionOperator Dimension = "operator"
	DimensionProduct  Dimension = "product"
)

// ParseDimension accepts the dimension name in any case.
func ParseDimension(s string) (Dimension, error) {
	switch d := Dimension(strings.ToLower(strings.TrimSpace(s))); d {
	case DimensionMerchant, DimensionOperator, DimensionProduct:
		return d, nil
	}
	return "", fmt.Errorf("%w: unknown dimension %q", ErrValidation, s)
}

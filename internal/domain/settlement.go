package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SettlementRecord struct {
	ID                  string    `json:"id" yaml:"id"`
	EstateID            string    `json:"estate_id" yaml:"estate_id"`
	MerchantID          string    `json:"merchant_id" yaml:"merchant_id"`
	SettlementDate      time.Time `json:"settlement_date" yaml:"settlement_date"`
	ProcessingStarted   bool      `json:"processing_started" yaml:"processing_started"`
	ProcessingStartedAt time.Time `json:"processing_started_at" yaml:"processing_started_at"`
	IsCompleted         bool      `json:"is_completed" yaml:"is_completed"`
}

// SettlementFeeLine is one fee calculated against a transaction and
// attached to a settlement.
type SettlementFeeLine struct {
	SettlementID      string          `json:"settlement_id" yaml:"settlement_id"`
	MerchantID        string          `json:"merchant_id" yaml:"merchant_id"`
	TransactionID     string          `json:"transaction_id" yaml:"transaction_id"`
	FeeSourceID       string          `json:"fee_source_id" yaml:"fee_source_id"`
	FeeValue          decimal.Decimal `json:"fee_value" yaml:"fee_value"`
	CalculatedValue   decimal.Decimal `json:"calculated_value" yaml:"calculated_value"`
	FeeCalculatedDate time.Time       `json:"fee_calculated_date" yaml:"fee_calculated_date"`
	IsSettled         bool            `json:"is_settled" yaml:"is_settled"`
}

// MerchantActivity is maintained by ingestion as facts are recorded.
type MerchantActivity struct {
	MerchantID       string    `json:"merchant_id"`
	MerchantName     string    `json:"merchant_name"`
	LastSaleDateTime time.Time `json:"last_sale_date_time"`
}

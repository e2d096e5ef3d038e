package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResponseCodeSuccess is the response code recorded for an approved sale.
const ResponseCodeSuccess = "0000"

type TransactionSource int

const (
	SourceOnline TransactionSource = 1
	SourceFile   TransactionSource = 2
)

// TransactionFact is an immutable transaction recorded by the upstream
// processing system. Date holds the calendar date, Time the time of day
// on that date.
type TransactionFact struct {
	ID                string            `json:"id" yaml:"id"`
	EstateID          string            `json:"estate_id" yaml:"estate_id"`
	MerchantID        string            `json:"merchant_id" yaml:"merchant_id"`
	OperatorID        string            `json:"operator_id" yaml:"operator_id"`
	ContractID        string            `json:"contract_id" yaml:"contract_id"`
	ProductID         string            `json:"product_id" yaml:"product_id"`
	DateTime          time.Time         `json:"date_time" yaml:"date_time"`
	Amount            decimal.Decimal   `json:"amount" yaml:"amount"`
	ResponseCode      string            `json:"response_code" yaml:"response_code"`
	Authorized        bool              `json:"authorized" yaml:"authorized"`
	AuthCode          string            `json:"auth_code" yaml:"auth_code"`
	TransactionNumber string            `json:"transaction_number" yaml:"transaction_number"`
	Source            TransactionSource `json:"source" yaml:"source"`
}

// IsSale reports whether the fact counts towards sales figures.
func (f TransactionFact) IsSale() bool {
	return f.Authorized && f.ResponseCode == ResponseCodeSuccess
}

// Date returns the calendar date of the fact.
func (f TransactionFact) Date() time.Time {
	return DateOf(f.DateTime)
}

// Hour returns the hour of day (0-23) of the fact.
func (f TransactionFact) Hour() int {
	return f.DateTime.Hour()
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Filters narrows a comparison to a single merchant or operator, given by
// reporting id. At most one is honored; merchant wins when both are set.
type Filters struct {
	MerchantReportingID *int
	OperatorReportingID *int
}

type SalesComparison struct {
	TodaysSalesCount       int             `json:"todays_sales_count"`
	TodaysSalesValue       decimal.Decimal `json:"todays_sales_value"`
	TodaysAverageValue     decimal.Decimal `json:"todays_average_sales_value"`
	ComparisonSalesCount   int             `json:"comparison_sales_count"`
	ComparisonSalesValue   decimal.Decimal `json:"comparison_sales_value"`
	ComparisonAverageValue decimal.Decimal `json:"comparison_average_sales_value"`
}

// NewSalesComparison derives the comparison figures from two totals.
func NewSalesComparison(today, comparison Totals) SalesComparison {
	return SalesComparison{
		TodaysSalesCount:       today.Count,
		TodaysSalesValue:       today.Value,
		TodaysAverageValue:     today.Average(),
		ComparisonSalesCount:   comparison.Count,
		ComparisonSalesValue:   comparison.Value,
		ComparisonAverageValue: comparison.Average(),
	}
}

type HourlySales struct {
	Hour            int             `json:"hour"`
	TodaysCount     int             `json:"todays_sales_count"`
	TodaysValue     decimal.Decimal `json:"todays_sales_value"`
	ComparisonCount int             `json:"comparison_sales_count"`
	ComparisonValue decimal.Decimal `json:"comparison_sales_value"`
}

type HourlyCount struct {
	Hour            int `json:"hour"`
	TodaysCount     int `json:"todays_sales_count"`
	ComparisonCount int `json:"comparison_sales_count"`
}

type HourlyValue struct {
	Hour            int             `json:"hour"`
	TodaysValue     decimal.Decimal `json:"todays_sales_value"`
	ComparisonValue decimal.Decimal `json:"comparison_sales_value"`
}

type RankDirection string

const (
	RankTop    RankDirection = "top"
	RankBottom RankDirection = "bottom"
)

type RankEntry struct {
	Name       string          `json:"name"`
	SalesValue decimal.Decimal `json:"sales_value"`
}

// MerchantKpi counts merchants by recency of their last sale. The buckets
// are independent predicates and a merchant may fall in several.
type MerchantKpi struct {
	WithSaleInLastHour    int `json:"merchants_with_sale_in_last_hour"`
	WithNoSaleToday       int `json:"merchants_with_no_sale_today"`
	WithNoSaleInLast7Days int `json:"merchants_with_no_sale_in_last_7_days"`
}

type TodaysSettlement struct {
	TodaysSettlementCount            int             `json:"todays_settlement_count"`
	TodaysSettlementValue            decimal.Decimal `json:"todays_settlement_value"`
	TodaysPendingSettlementCount     int             `json:"todays_pending_settlement_count"`
	TodaysPendingSettlementValue     decimal.Decimal `json:"todays_pending_settlement_value"`
	ComparisonSettlementCount        int             `json:"comparison_settlement_count"`
	ComparisonSettlementValue        decimal.Decimal `json:"comparison_settlement_value"`
	ComparisonPendingSettlementCount int             `json:"comparison_pending_settlement_count"`
	ComparisonPendingSettlementValue decimal.Decimal `json:"comparison_pending_settlement_value"`
}

type LastSettlement struct {
	SettlementDate time.Time       `json:"settlement_date"`
	SalesCount     int             `json:"sales_count"`
	SalesValue     decimal.Decimal `json:"sales_value"`
	FeesValue      decimal.Decimal `json:"fees_value"`
}

type UnsettledFeesRequest struct {
	StartDate   time.Time
	EndDate     time.Time
	MerchantIDs []int
	OperatorIDs []int
	ProductIDs  []int
	GroupBy     Dimension
}

type UnsettledFeeGroup struct {
	DimensionName string          `json:"dimension_name"`
	FeesValue     decimal.Decimal `json:"fees_value"`
	FeesCount     int             `json:"fees_count"`
}

type SortField string

const (
	SortMerchantName      SortField = "MerchantName"
	SortOperatorName      SortField = "OperatorName"
	SortTransactionAmount SortField = "TransactionAmount"
)

type SortDirection string

const (
	SortAscending  SortDirection = "Ascending"
	SortDescending SortDirection = "Descending"
)

// ValueRange is an inclusive amount range.
type ValueRange struct {
	StartValue decimal.Decimal `json:"start_value"`
	EndValue   decimal.Decimal `json:"end_value"`
}

type TransactionSearchRequest struct {
	QueryDate         string      `json:"query_date"`
	ValueRange        *ValueRange `json:"value_range,omitempty"`
	AuthCode          string      `json:"auth_code,omitempty"`
	TransactionNumber string      `json:"transaction_number,omitempty"`
	ResponseCode      string      `json:"response_code,omitempty"`
	Merchants         []int       `json:"merchants,omitempty"`
	Operators         []int       `json:"operators,omitempty"`
}

// SearchOptions carries the optional paging and sorting of a search. A nil
// Page or PageSize returns every match.
type SearchOptions struct {
	Page          *int
	PageSize      *int
	SortField     SortField
	SortDirection SortDirection
}

// TransactionResult is the search projection of a fact joined to its
// dimension names.
type TransactionResult struct {
	TransactionID       string            `json:"transaction_id"`
	TransactionReportID int64             `json:"transaction_reporting_id"`
	TransactionDateTime time.Time         `json:"transaction_date_time"`
	MerchantName        string            `json:"merchant_name"`
	MerchantReportingID int               `json:"merchant_reporting_id"`
	OperatorName        string            `json:"operator_name"`
	OperatorReportingID int               `json:"operator_reporting_id"`
	ProductName         string            `json:"product_name"`
	ProductReportingID  int               `json:"product_reporting_id"`
	Amount              decimal.Decimal   `json:"transaction_amount"`
	ResponseCode        string            `json:"response_code"`
	IsAuthorized        bool              `json:"is_authorised"`
	AuthCode            string            `json:"auth_code"`
	TransactionNumber   string            `json:"transaction_number"`
	TransactionSource   TransactionSource `json:"transaction_source"`
}

type CalendarDate struct {
	Date            time.Time `json:"date"`
	DayOfWeek       string    `json:"day_of_week"`
	DayOfWeekNumber int       `json:"day_of_week_number"`
	MonthName       string    `json:"month_name"`
	MonthNumber     int       `json:"month_number"`
	WeekNumber      int       `json:"week_number"`
	Year            int       `json:"year"`
	YearWeekNumber  string    `json:"year_week_number"`
}

type ComparisonDate struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	OrderValue  int       `json:"order_value"`
}

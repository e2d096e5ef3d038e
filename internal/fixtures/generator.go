package fixtures

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/transactionprocessing/estatereporting/internal/domain"
	"github.com/transactionprocessing/estatereporting/internal/ingestion"
)

// Options shapes a generated estate.
type Options struct {
	Seed      int64
	Merchants int
	Days      int
	// Now is the end of the generated window; today's facts stop at its
	// hour.
	Now time.Time
}

var operatorNames = []string{"Safaricom", "Voucher", "PostPay", "PrePay"}

// Generate builds a deterministic batch for one estate: dimensions, facts
// for each of the last Days days up to Now, and a settlement per merchant
// per day with one fee line per sale. Settlements dated before Now are
// settled; today's are pending.
func Generate(opts Options) *ingestion.Batch {
	if opts.Merchants <= 0 {
		opts.Merchants = 10
	}
	if opts.Days <= 0 {
		opts.Days = 14
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	newID := func() string {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			panic(err)
		}
		return id.String()
	}

	b := &ingestion.Batch{}
	for i := 1; i <= opts.Merchants; i++ {
		b.Merchants = append(b.Merchants, domain.Merchant{
			DimensionRef: domain.DimensionRef{ID: newID(), Name: fmt.Sprintf("Test Merchant %d", i)},
		})
	}
	for _, name := range operatorNames {
		op := domain.Operator{DimensionRef: domain.DimensionRef{ID: newID(), Name: name}}
		contract := domain.Contract{
			DimensionRef: domain.DimensionRef{ID: newID(), Name: name + " Contract"},
			OperatorID:   op.ID,
		}
		b.Operators = append(b.Operators, op)
		b.Contracts = append(b.Contracts, contract)
		for _, variant := range []string{"Variable Topup", "100 KES Topup"} {
			b.Products = append(b.Products, domain.Product{
				DimensionRef: domain.DimensionRef{ID: newID(), Name: name + " " + variant},
				ContractID:   contract.ID,
			})
		}
	}

	today := domain.DateOf(opts.Now)
	txnNumber := 0
	for d := opts.Days - 1; d >= 0; d-- {
		day := today.AddDate(0, 0, -d)
		maxHour := 24
		if d == 0 {
			maxHour = opts.Now.Hour() + 1
		}

		settlementIDs := make(map[string]string)
		count := 20 + rng.Intn(40)
		for i := 0; i < count; i++ {
			m := b.Merchants[rng.Intn(len(b.Merchants))]
			p := b.Products[rng.Intn(len(b.Products))]
			var c domain.Contract
			for _, candidate := range b.Contracts {
				if candidate.ID == p.ContractID {
					c = candidate
				}
			}

			at := day.Add(time.Duration(rng.Intn(maxHour))*time.Hour +
				time.Duration(rng.Intn(60))*time.Minute)
			if d == 0 && at.After(opts.Now) {
				at = opts.Now
			}

			// Amount between 10 and 500 in whole units.
			amount := decimal.NewFromInt(int64(10 + rng.Intn(491)))

			txnNumber++
			fact := domain.TransactionFact{
				ID:                newID(),
				MerchantID:        m.ID,
				OperatorID:        c.OperatorID,
				ContractID:        c.ID,
				ProductID:         p.ID,
				DateTime:          at,
				Amount:            amount,
				ResponseCode:      domain.ResponseCodeSuccess,
				Authorized:        true,
				AuthCode:          fmt.Sprintf("ABCD%02d", rng.Intn(100)),
				TransactionNumber: fmt.Sprintf("%04d", txnNumber),
				Source:            domain.SourceOnline,
			}
			// 10% declined.
			if rng.Float64() < 0.10 {
				fact.ResponseCode = "1008"
				fact.Authorized = false
				fact.AuthCode = ""
			}
			b.Transactions = append(b.Transactions, fact)
			if !fact.IsSale() {
				continue
			}

			sid, ok := settlementIDs[m.ID]
			if !ok {
				sid = newID()
				settlementIDs[m.ID] = sid
				b.Settlements = append(b.Settlements, domain.SettlementRecord{
					ID:                  sid,
					MerchantID:          m.ID,
					SettlementDate:      day,
					ProcessingStarted:   d > 0,
					ProcessingStartedAt: day.Add(23 * time.Hour),
					IsCompleted:         d > 0,
				})
			}
			b.SettlementFees = append(b.SettlementFees, domain.SettlementFeeLine{
				SettlementID:      sid,
				MerchantID:        m.ID,
				TransactionID:     fact.ID,
				FeeSourceID:       "merchant-commission",
				FeeValue:          decimal.RequireFromString("0.5"),
				CalculatedValue:   amount.Mul(decimal.RequireFromString("0.005")).Round(2),
				FeeCalculatedDate: day,
				IsSettled:         d > 0,
			})
		}
	}
	return b
}

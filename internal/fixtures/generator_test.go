package fixtures

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transactionprocessing/estatereporting/internal/domain"
)

var now = time.Date(2024, 3, 14, 15, 30, 0, 0, time.UTC)

func TestGenerate_IsDeterministic(t *testing.T) {
	a := Generate(Options{Seed: 7, Merchants: 3, Days: 2, Now: now})
	b := Generate(Options{Seed: 7, Merchants: 3, Days: 2, Now: now})
	assert.Equal(t, a, b)

	c := Generate(Options{Seed: 8, Merchants: 3, Days: 2, Now: now})
	assert.NotEqual(t, a.Transactions[0].ID, c.Transactions[0].ID)
}

func TestGenerate_Shape(t *testing.T) {
	b := Generate(Options{Seed: 1, Merchants: 5, Days: 3, Now: now})

	assert.Len(t, b.Merchants, 5)
	assert.Len(t, b.Operators, 4)
	assert.Len(t, b.Contracts, 4)
	assert.Len(t, b.Products, 8)
	require.NotEmpty(t, b.Transactions)

	merchants := make(map[string]bool)
	for _, m := range b.Merchants {
		merchants[m.ID] = true
	}
	contracts := make(map[string]domain.Contract)
	for _, c := range b.Contracts {
		contracts[c.ID] = c
	}

	sales := 0
	first := domain.DateOf(now).AddDate(0, 0, -2)
	for _, f := range b.Transactions {
		assert.True(t, merchants[f.MerchantID])
		assert.Equal(t, contracts[f.ContractID].OperatorID, f.OperatorID)
		assert.False(t, f.DateTime.After(now))
		assert.False(t, f.DateTime.Before(first))
		if f.IsSale() {
			sales++
		}
	}
	assert.Len(t, b.SettlementFees, sales)

	settled := make(map[string]bool)
	for _, s := range b.Settlements {
		settled[s.ID] = s.IsCompleted
		assert.Equal(t, s.IsCompleted, !domain.SameDate(s.SettlementDate, now))
	}
	for _, fee := range b.SettlementFees {
		assert.Equal(t, settled[fee.SettlementID], fee.IsSettled)
	}
}

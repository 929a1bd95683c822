package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-05-10"`), &d))
	assert.Equal(t, "2024-05-10", d.String())

	// created_at 来自 DateTimeField
	require.NoError(t, json.Unmarshal([]byte(`"2024-05-12T09:30:00Z"`), &d))
	assert.Equal(t, "2024-05-12", d.String())

	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())

	b, err := json.Marshal(MustDate("2023-01-01"))
	require.NoError(t, err)
	assert.Equal(t, `"2023-01-01"`, string(b))

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &d))
}

func TestNormalizeTenantStatus(t *testing.T) {
	s, ok := NormalizeTenantStatus("Past")
	assert.True(t, ok)
	assert.Equal(t, TenantStatusFormer, s)

	s, ok = NormalizeTenantStatus("Eviction Pending")
	assert.True(t, ok)
	assert.Equal(t, TenantStatusEvictionPending, s)

	_, ok = NormalizeTenantStatus("Evicted")
	assert.False(t, ok)
}

func TestTenantClone_IsDeep(t *testing.T) {
	score := 690
	orig := Tenant{
		ID:          "t3",
		CreditScore: &score,
		ApplicationData: &ApplicationData{
			References:    []Reference{{Name: "Sarah Connor"}},
			InternalNotes: "Met during showing.",
		},
	}
	c := orig.Clone()
	*c.CreditScore = 715
	c.ApplicationData.InternalNotes = "changed"
	c.ApplicationData.References[0].Name = "changed"

	assert.Equal(t, 690, *orig.CreditScore)
	assert.Equal(t, "Met during showing.", orig.ApplicationData.InternalNotes)
	assert.Equal(t, "Sarah Connor", orig.ApplicationData.References[0].Name)
}

func TestRentToIncomePercent(t *testing.T) {
	tn := Tenant{
		RentAmount: decimal.NewFromInt(1250),
		ApplicationData: &ApplicationData{
			Employment: Employment{MonthlyIncome: decimal.NewFromInt(5800)},
		},
	}
	pct, ok := tn.RentToIncomePercent()
	require.True(t, ok)
	assert.Equal(t, int64(22), pct)

	_, ok = (&Tenant{}).RentToIncomePercent()
	assert.False(t, ok)
}

func TestParsePriority(t *testing.T) {
	p, ok := ParsePriority(" emergency ")
	assert.True(t, ok)
	assert.Equal(t, PriorityEmergency, p)
	_, ok = ParsePriority("urgent")
	assert.False(t, ok)
}

func TestDecimalMarshalsAsNumber(t *testing.T) {
	b, err := json.Marshal(Payment{ID: "p1", Amount: decimal.NewFromInt(1200)})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"amount":1200`)
}

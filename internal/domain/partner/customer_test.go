package partner

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoyaltyPointsFor(t *testing.T) {
	tests := []struct {
		name  string
		total string
		rate  string
		want  int64
	}{
		{"one point per hundred", "110.00", "0.01", 1},
		{"one point per unit", "110.00", "1", 110},
		{"floors fractions", "99.99", "1", 99},
		{"below one point", "50.00", "0.01", 0},
		{"zero rate", "110.00", "0", 0},
		{"zero total", "0.00", "1", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LoyaltyPointsFor(valueobject.MustParseMoney(tt.total), decimal.RequireFromString(tt.rate))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCustomer_EarnPoints(t *testing.T) {
	c, err := NewCustomer(uuid.New(), "Ada", "ada@example.com", "")
	require.NoError(t, err)
	saleID := uuid.New()

	require.NoError(t, c.EarnPoints(0, saleID))
	assert.Empty(t, c.GetDomainEvents())

	require.NoError(t, c.EarnPoints(12, saleID))
	require.NoError(t, c.EarnPoints(3, saleID))
	assert.Equal(t, int64(15), c.LoyaltyPoints)

	events := c.GetDomainEvents()
	require.Len(t, events, 2)
	earned := events[1].(*LoyaltyPointsEarnedEvent)
	assert.Equal(t, int64(3), earned.Points)
	assert.Equal(t, int64(15), earned.Balance)
	assert.Equal(t, saleID, earned.SaleID)

	assert.Error(t, c.EarnPoints(-1, saleID))
}

func TestNewCustomer(t *testing.T) {
	_, err := NewCustomer(uuid.New(), "  ", "", "")
	assert.Error(t, err)
}

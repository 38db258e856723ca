package payoff

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func snap(id, balance, rate, minimum string) DebtSnapshot {
	return DebtSnapshot{
		ID:                        id,
		Name:                      "Debt " + id,
		CurrentBalance:            dec(balance),
		AnnualInterestRatePercent: dec(rate),
		MinimumPayment:            dec(minimum),
	}
}

func ids(debts []DebtSnapshot) []string {
	out := make([]string, 0, len(debts))
	for _, d := range debts {
		out = append(out, d.ID)
	}
	return out
}

func TestAvalancheOrder(t *testing.T) {
	tests := []struct {
		name  string
		debts []DebtSnapshot
		want  []string
	}{
		{
			name: "highest rate first",
			debts: []DebtSnapshot{
				snap("b", "5000", "10", "150"),
				snap("a", "10000", "20", "300"),
				snap("c", "200", "5", "25"),
			},
			want: []string{"a", "b", "c"},
		},
		{
			name: "equal rate prefers larger balance",
			debts: []DebtSnapshot{
				snap("small", "100", "18", "10"),
				snap("large", "900", "18", "10"),
			},
			want: []string{"large", "small"},
		},
		{
			name: "full tie falls back to id",
			debts: []DebtSnapshot{
				snap("z", "100", "18", "10"),
				snap("m", "100", "18", "10"),
			},
			want: []string{"m", "z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(AvalancheStrategy{}.Order(tt.debts)))
		})
	}
}

func TestSnowballOrder(t *testing.T) {
	tests := []struct {
		name  string
		debts []DebtSnapshot
		want  []string
	}{
		{
			name: "smallest balance first",
			debts: []DebtSnapshot{
				snap("a", "10000", "20", "300"),
				snap("b", "5000", "10", "150"),
				snap("c", "200", "5", "25"),
			},
			want: []string{"c", "b", "a"},
		},
		{
			name: "equal balance prefers higher rate",
			debts: []DebtSnapshot{
				snap("cheap", "500", "3", "10"),
				snap("pricey", "500", "22", "10"),
			},
			want: []string{"pricey", "cheap"},
		},
		{
			name: "full tie falls back to id",
			debts: []DebtSnapshot{
				snap("b", "500", "3", "10"),
				snap("a", "500", "3", "10"),
			},
			want: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(SnowballStrategy{}.Order(tt.debts)))
		})
	}
}

func TestOrderDoesNotMutateInput(t *testing.T) {
	in := []DebtSnapshot{
		snap("b", "5000", "10", "150"),
		snap("a", "10000", "20", "300"),
	}
	before := ids(in)

	for _, s := range []Strategy{AvalancheStrategy{}, SnowballStrategy{}} {
		_ = s.Order(in)
		assert.Equal(t, before, ids(in), s.Name().String())
	}
}

func TestStrategyFor(t *testing.T) {
	for _, name := range Strategies() {
		s, err := StrategyFor(name)
		require.NoError(t, err)
		assert.Equal(t, name, s.Name())
		assert.True(t, name.IsValid())
	}

	_, err := StrategyFor("blizzard")
	require.Error(t, err)
	assert.False(t, StrategyName("blizzard").IsValid())
}

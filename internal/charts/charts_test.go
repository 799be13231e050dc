package charts

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"komoralink/internal/core"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func sample() []core.PeriodBucket {
	return []core.PeriodBucket{
		{Key: "2024-01", Label: "janv.", Income: d(50000), Expense: d(20000)},
		{Key: "2024-02", Label: "févr.", Income: d(0), Expense: d(3000)},
	}
}

func TestBarAndLine(t *testing.T) {
	tests := []struct {
		series Series
		want   []float64
	}{
		{SeriesIncome, []float64{50000, 0}},
		{SeriesExpense, []float64{20000, 3000}},
		{SeriesNet, []float64{30000, -3000}},
	}
	for _, tt := range tests {
		t.Run(string(tt.series), func(t *testing.T) {
			bar := Bar(sample(), tt.series)
			require.Len(t, bar, 2)
			assert.Equal(t, "janv.", bar[0].Label)
			assert.Equal(t, "2024-02", bar[1].Key)
			assert.Equal(t, tt.want, []float64{bar[0].Value, bar[1].Value})
			assert.Equal(t, bar, Line(sample(), tt.series))
		})
	}
}

func TestGrouped(t *testing.T) {
	got := Grouped(sample())
	require.Len(t, got, 2)
	assert.Equal(t, GroupedBar{Label: "janv.", Key: "2024-01", Income: 50000, Expense: 20000}, got[0])
	assert.Empty(t, Grouped(nil))
}

func TestSegmentsPercentagesSumToHundred(t *testing.T) {
	got := Segments([]Part{{"a", d(1)}, {"b", d(1)}, {"c", d(1)}})
	require.Len(t, got, 3)
	sum := 0.0
	for _, s := range got {
		sum += s.Percentage
	}
	assert.InDelta(t, 100, sum, 1e-9)
	assert.InDelta(t, 33.3333, got[0].Percentage, 1e-3)
}

func TestSegmentsZeroTotal(t *testing.T) {
	got := Segments([]Part{{"a", d(0)}, {"b", decimal.Zero}})
	for _, s := range got {
		assert.Zero(t, s.Percentage, s.Label)
	}
	assert.Empty(t, Segments(nil))
}

func TestIncomeExpenseSplit(t *testing.T) {
	got := IncomeExpenseSplit(core.Summary{Income: d(75), Expense: d(25)})
	require.Len(t, got, 2)
	assert.Equal(t, "Revenus", got[0].Label)
	assert.InDelta(t, 75, got[0].Percentage, 1e-9)
	assert.InDelta(t, 25, got[1].Percentage, 1e-9)
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name        string
		value, goal int64
		want        float64
	}{
		{"halfway", 50, 100, 50},
		{"over goal", 250, 100, 100},
		{"negative value", -10, 100, 0},
		{"no goal", 10, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Progress(d(tt.value), d(tt.goal))
			assert.InDelta(t, tt.want, r.Percentage, 1e-9)
			assert.Equal(t, float64(tt.goal), r.Goal)
		})
	}
}

func TestTopN(t *testing.T) {
	cats := []core.CategoryTotal{
		{Category: "Transfert", Amount: d(50)},
		{Category: "Dépôt d'argent", Amount: d(400)},
		{Category: "Paiement reçu", Amount: d(300)},
		{Category: "Remboursement", Amount: d(150)},
		{Category: "Ajustement manuel", Amount: d(100)},
	}

	got := TopN(cats, 2, "")
	require.Len(t, got, 3)
	assert.Equal(t, "Dépôt d'argent", got[0].Label)
	assert.Equal(t, "Paiement reçu", got[1].Label)
	assert.Equal(t, DefaultOtherLabel, got[2].Label)
	assert.Equal(t, 300.0, got[2].Value)

	sum := 0.0
	for _, s := range got {
		sum += s.Percentage
	}
	assert.InDelta(t, 100, sum, 1e-9)

	assert.Len(t, TopN(cats, 0, ""), 5)
	assert.Len(t, TopN(cats, 5, ""), 5)
	assert.Equal(t, "Transfert", cats[0].Category, "input must not be reordered")
}

func TestParseSeries(t *testing.T) {
	s, err := ParseSeries("")
	require.NoError(t, err)
	assert.Equal(t, SeriesNet, s)

	_, err = ParseSeries("profit")
	assert.Error(t, err)
}

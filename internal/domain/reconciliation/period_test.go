package reconciliation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocateByLineCount(t *testing.T) {
	// 3 of 4 lines: floor(10000 * 3 / 4) = 7500.
	assert.Equal(t, int64(7500), AllocateByLineCount(10000, 3, 4))

	// Floor division: 10000 * 1 / 3 = 3333, the odd cent stays unallocated.
	assert.Equal(t, int64(3333), AllocateByLineCount(10000, 1, 3))

	// All lines on one code gets the full amount.
	assert.Equal(t, int64(10000), AllocateByLineCount(10000, 5, 5))
}

func TestAllocateByLineCountDegenerate(t *testing.T) {
	assert.Equal(t, int64(0), AllocateByLineCount(10000, 0, 4))
	assert.Equal(t, int64(0), AllocateByLineCount(10000, 2, 0))
	assert.Equal(t, int64(0), AllocateByLineCount(0, 2, 4))
}

func TestAllocateByLineCountDeterministic(t *testing.T) {
	first := AllocateByLineCount(123457, 2, 7)
	for range 10 {
		assert.Equal(t, first, AllocateByLineCount(123457, 2, 7))
	}
}

func TestPeriodSummaryTotalsFor(t *testing.T) {
	summary := &PeriodSummary{
		Totals: []FinanceCodeTotals{
			{FinanceCode: FinanceCodeMeat, AmountCents: 5000},
			{FinanceCode: FinanceCodeProd, AmountCents: 3000},
		},
	}

	meat := summary.TotalsFor(FinanceCodeMeat)
	assert.NotNil(t, meat)
	assert.Equal(t, int64(5000), meat.AmountCents)

	assert.Nil(t, summary.TotalsFor(FinanceCodeLinen))
}

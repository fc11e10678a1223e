package reconciliation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFinanceCode(t *testing.T) {
	for _, code := range AllFinanceCodes() {
		parsed, err := ParseFinanceCode(string(code))
		require.NoError(t, err)
		assert.Equal(t, code, parsed)
	}
}

func TestParseFinanceCodeRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "DAIRY", "groc+misc", "GROC MISC"} {
		_, err := ParseFinanceCode(raw)
		assert.Error(t, err, "raw %q", raw)
	}
}

func TestAllFinanceCodesComplete(t *testing.T) {
	codes := AllFinanceCodes()
	assert.Len(t, codes, 12)
	seen := make(map[FinanceCode]bool, len(codes))
	for _, c := range codes {
		assert.True(t, c.IsValid())
		assert.False(t, seen[c], "duplicate code %s", c)
		seen[c] = true
	}
}

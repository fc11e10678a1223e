package reconciliation

import (
	"fmt"

	"github.com/procurehub/backend/internal/domain/shared"
)

// FinanceCode is the fixed set of spend categories invoice lines are mapped
// to. The set is closed: mapping results outside it are rejected at the
// boundary instead of aggregating into a catch-all bucket.
type FinanceCode string

const (
	FinanceCodeBake    FinanceCode = "BAKE"
	FinanceCodeMeat    FinanceCode = "MEAT"
	FinanceCodeProd    FinanceCode = "PROD"
	FinanceCodeClean   FinanceCode = "CLEAN"
	FinanceCodePaper   FinanceCode = "PAPER"
	FinanceCodeFreight FinanceCode = "FREIGHT"
	FinanceCodeMilk    FinanceCode = "MILK"
	FinanceCodeGrocMisc FinanceCode = "GROC+MISC"
	FinanceCodeBevEco  FinanceCode = "BEV+ECO"
	FinanceCodeLinen   FinanceCode = "LINEN"
	FinanceCodePropane FinanceCode = "PROPANE"
	FinanceCodeOther   FinanceCode = "OTHER"
)

// AllFinanceCodes returns every finance code in a stable order. Period
// summaries are zero-filled across this set.
func AllFinanceCodes() []FinanceCode {
	return []FinanceCode{
		FinanceCodeBake,
		FinanceCodeMeat,
		FinanceCodeProd,
		FinanceCodeClean,
		FinanceCodePaper,
		FinanceCodeFreight,
		FinanceCodeMilk,
		FinanceCodeGrocMisc,
		FinanceCodeBevEco,
		FinanceCodeLinen,
		FinanceCodePropane,
		FinanceCodeOther,
	}
}

// IsValid returns true if the code belongs to the known set
func (c FinanceCode) IsValid() bool {
	switch c {
	case FinanceCodeBake, FinanceCodeMeat, FinanceCodeProd, FinanceCodeClean,
		FinanceCodePaper, FinanceCodeFreight, FinanceCodeMilk, FinanceCodeGrocMisc,
		FinanceCodeBevEco, FinanceCodeLinen, FinanceCodePropane, FinanceCodeOther:
		return true
	}
	return false
}

// String returns the string representation
func (c FinanceCode) String() string {
	return string(c)
}

// ParseFinanceCode converts a raw mapping-service code into a FinanceCode,
// failing fast on anything outside the known set.
func ParseFinanceCode(raw string) (FinanceCode, error) {
	code := FinanceCode(raw)
	if !code.IsValid() {
		return "", shared.NewDomainError("UNKNOWN_FINANCE_CODE",
			fmt.Sprintf("finance code %q is not in the known set", raw))
	}
	return code, nil
}

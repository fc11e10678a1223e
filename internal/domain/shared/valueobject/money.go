package valueobject

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// All monetary amounts in the reconciliation domain are integer cents.
// Dollar text only exists at the parsing boundary; nothing downstream of
// these helpers ever holds money as a float.

// Tax rates are integer numerators over a fixed common denominator so that
// tax math never touches floating point. 5.000% GST is 5000/100000 and
// 9.975% QST is 9975/100000.
const (
	// TaxRateDenominator is the shared denominator for all tax rate numerators.
	TaxRateDenominator int64 = 100000

	// GSTRateNumerator is the federal GST rate (5.000%).
	GSTRateNumerator int64 = 5000

	// QSTRateNumerator is the Quebec QST rate (9.975%).
	QSTRateNumerator int64 = 9975
)

var centsFactor = decimal.NewFromInt(100)

// ParseDollars parses a dollar amount string into integer cents, rounding
// half-up to the nearest cent. Currency symbols, thousands separators and
// surrounding whitespace are stripped before parsing.
func ParseDollars(text string) (int64, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty dollar amount")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid dollar amount %q: %w", text, err)
	}
	return d.Mul(centsFactor).Round(0).IntPart(), nil
}

// DollarsToCents is the lenient form of ParseDollars: malformed or missing
// input yields 0. Callers that care about data quality should use
// ParseDollars and surface the failure before falling back to zero.
func DollarsToCents(text string) int64 {
	cents, err := ParseDollars(text)
	if err != nil {
		return 0
	}
	return cents
}

// CentsToDollars formats integer cents as a dollar string with exactly two
// decimal places.
func CentsToDollars(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// ParseQuantityStrict parses a quantity string that may carry a trailing
// unit-of-measure suffix, e.g. "12 EA" or "2.5CS".
func ParseQuantityStrict(text string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(text)
	// Strip trailing unit letters ("EA", "CS", ...) and any space before them.
	for len(cleaned) > 0 {
		last := cleaned[len(cleaned)-1]
		if (last >= 'A' && last <= 'Z') || (last >= 'a' && last <= 'z') {
			cleaned = cleaned[:len(cleaned)-1]
			continue
		}
		break
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty quantity")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid quantity %q: %w", text, err)
	}
	return d, nil
}

// ParseQuantity is the lenient form of ParseQuantityStrict: unparsable input
// yields zero.
func ParseQuantity(text string) decimal.Decimal {
	d, err := ParseQuantityStrict(text)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CalculateTax computes the tax in cents on an amount in cents, rounding
// half-up to the nearest cent:
//
//	floor((amountCents*rateNumerator + TaxRateDenominator/2) / TaxRateDenominator)
//
// The division is a true floor, so the rounding stays half-up for negative
// amounts (credit lines) as well.
func CalculateTax(amountCents, rateNumerator int64) int64 {
	n := amountCents*rateNumerator + TaxRateDenominator/2
	q := n / TaxRateDenominator
	if n%TaxRateDenominator != 0 && n < 0 {
		q--
	}
	return q
}

// ExtendedPriceCents computes quantity x unit price, rounded half-up to the
// nearest cent.
func ExtendedPriceCents(quantity decimal.Decimal, unitPriceCents int64) int64 {
	return quantity.Mul(decimal.NewFromInt(unitPriceCents)).Round(0).IntPart()
}

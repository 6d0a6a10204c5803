// Package currency normalizes heterogeneous upstream prices into the
// reporting currency (UZS).
package currency

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/domain"
)

// usdTokens classify a currency designator as USD-denominated. "840" is the
// ISO 4217 numeric code, "ДОЛЛАР" covers Cyrillic display names.
var usdTokens = []string{"USD", "840", "DOLLAR", "ДОЛЛАР"}

// IsUSD reports whether the designator names US dollars. Matching is
// case-insensitive substring matching; an unknown designator is not USD.
func IsUSD(ref domain.CurrencyRef) bool {
	if ref.Kind == domain.CurrencyUnknown || ref.Value == "" {
		return false
	}
	v := strings.ToUpper(strings.TrimSpace(ref.Value))
	for _, tok := range usdTokens {
		if strings.Contains(v, tok) {
			return true
		}
	}
	return false
}

// ToUZS converts an amount into the reporting currency.
//
// Rules, in order:
//   - amount <= 0 normalizes to zero;
//   - USD with a positive rate: amount * rate;
//   - USD without a positive rate: zero, so the item drops out of
//     profitability math instead of entering it with a guessed value;
//   - anything else is assumed to already be in UZS and passes through.
//
// The function is pure: identical inputs always yield identical output.
func ToUZS(amount decimal.Decimal, ref domain.CurrencyRef, usdRate decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	if IsUSD(ref) {
		if !usdRate.IsPositive() {
			return decimal.Zero
		}
		return amount.Mul(usdRate)
	}
	return amount
}

// NormalizeMoney applies ToUZS to a Money value.
func NormalizeMoney(m domain.Money, usdRate decimal.Decimal) decimal.Decimal {
	return ToUZS(m.Amount, m.Currency, usdRate)
}

// Dropped reports whether a positive amount was zeroed out because its USD
// price had no usable rate. Used for operator-visibility counters.
func Dropped(m domain.Money, usdRate decimal.Decimal) bool {
	return m.Amount.IsPositive() && IsUSD(m.Currency) && !usdRate.IsPositive()
}

package currency

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestToUZS(t *testing.T) {
	rate := d("12650")

	tests := []struct {
		name   string
		amount decimal.Decimal
		ref    domain.CurrencyRef
		rate   decimal.Decimal
		want   decimal.Decimal
	}{
		{"uzs code passes through", d("150000"), domain.CurrencyFromCode("UZS"), rate, d("150000")},
		{"no designator passes through", d("150000"), domain.NoCurrency, rate, d("150000")},
		{"usd code converts", d("10"), domain.CurrencyFromCode("USD"), rate, d("126500")},
		{"iso numeric 840 converts", d("10"), domain.CurrencyFromCode("840"), rate, d("126500")},
		{"dollar name converts", d("2.5"), domain.CurrencyFromName("US Dollar"), rate, d("31625")},
		{"cyrillic name converts", d("4"), domain.CurrencyFromName("Доллар США"), rate, d("50600")},
		{"lowercase usd converts", d("1"), domain.CurrencyFromCode("usd"), rate, d("12650")},
		{"usd without rate drops to zero", d("10"), domain.CurrencyFromCode("USD"), decimal.Zero, decimal.Zero},
		{"usd with negative rate drops to zero", d("10"), domain.CurrencyFromCode("USD"), d("-1"), decimal.Zero},
		{"zero amount is zero", decimal.Zero, domain.CurrencyFromCode("USD"), rate, decimal.Zero},
		{"negative amount is zero", d("-5"), domain.CurrencyFromCode("UZS"), rate, decimal.Zero},
		{"unrelated currency passes through", d("99"), domain.CurrencyFromCode("EUR"), rate, d("99")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToUZS(tt.amount, tt.ref, tt.rate)
			if !got.Equal(tt.want) {
				t.Errorf("ToUZS(%s, %v) = %s, want %s", tt.amount, tt.ref, got, tt.want)
			}
		})
	}
}

func TestToUZS_Deterministic(t *testing.T) {
	ref := domain.CurrencyFromName("доллар")
	rate := d("12650.55")
	first := ToUZS(d("123.45"), ref, rate)
	for i := 0; i < 100; i++ {
		if got := ToUZS(d("123.45"), ref, rate); !got.Equal(first) {
			t.Fatalf("conversion not deterministic: %s vs %s", got, first)
		}
	}
}

func TestIsUSD_HrefIsNotUSD(t *testing.T) {
	// MoySklad currency hrefs never disclose the code; they must not be
	// misclassified just because they are URLs.
	ref := domain.CurrencyFromHref("https://api.moysklad.ru/api/remap/1.2/entity/currency/77d87aa9")
	if IsUSD(ref) {
		t.Error("plain currency href classified as USD")
	}
}

func TestDropped(t *testing.T) {
	usd := domain.Money{Amount: d("10"), Currency: domain.CurrencyFromCode("USD")}
	uzs := domain.Money{Amount: d("10"), Currency: domain.CurrencyFromCode("UZS")}

	if !Dropped(usd, decimal.Zero) {
		t.Error("positive USD amount with zero rate should count as dropped")
	}
	if Dropped(usd, d("12650")) {
		t.Error("convertible USD amount should not count as dropped")
	}
	if Dropped(uzs, decimal.Zero) {
		t.Error("UZS amount never drops")
	}
}

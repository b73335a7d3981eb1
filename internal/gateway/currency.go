package gateway

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Stripe amounts are integers in the currency's smallest unit. Most
// currencies use two decimals; these use none or three.
var currencyExponent = map[string]int32{
	"bif": 0, "clp": 0, "djf": 0, "gnf": 0, "jpy": 0, "kmf": 0, "krw": 0, "mga": 0,
	"pyg": 0, "rwf": 0, "ugx": 0, "vnd": 0, "vuv": 0, "xaf": 0, "xof": 0, "xpf": 0,
	"bhd": 3, "jod": 3, "kwd": 3, "omr": 3, "tnd": 3,
}

func exponent(currency string) int32 {
	if e, ok := currencyExponent[strings.ToLower(currency)]; ok {
		return e
	}
	return 2
}

// ToMinorUnits converts a major-unit amount to provider minor units,
// rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	return amount.Shift(exponent(currency)).Round(0).IntPart()
}

// FromMinorUnits converts provider minor units back to a major-unit amount.
func FromMinorUnits(amount int64, currency string) decimal.Decimal {
	return decimal.New(amount, -exponent(currency))
}

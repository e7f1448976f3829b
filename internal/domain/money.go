package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders an amount held in minor units, e.g. 3000 USD -> "30.00 USD".
func FormatAmount(minor int64, currency string) string {
	s := decimal.New(minor, -2).StringFixed(2)
	if currency == "" {
		return s
	}
	return s + " " + strings.ToUpper(currency)
}

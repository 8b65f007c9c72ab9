package domain

import "github.com/shopspring/decimal"

// FormatVND renders a stored price the way the storefront shows it: the value
// divided by 1000 with three decimals, e.g. 150000 -> "150.000 VND".
func FormatVND(price int64) string {
	return decimal.New(price, -3).StringFixed(3) + " VND"
}

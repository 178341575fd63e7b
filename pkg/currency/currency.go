// Package currency validates currency codes and formats decimal amounts
// for display. Amounts are decimal.Decimal everywhere; this package only
// decides symbols and rounding.
package currency

import (
	"github.com/shopspring/decimal"
)

// Code is an ISO 4217 currency code.
type Code string

const (
	USD Code = "USD"
	EUR Code = "EUR"
	GBP Code = "GBP"
	JPY Code = "JPY"
	CAD Code = "CAD"
	AUD Code = "AUD"
	CHF Code = "CHF"
	VND Code = "VND"
)

// Default is used when no currency preference has been set.
const Default = USD

// Info describes how a currency is rendered.
type Info struct {
	Symbol        string
	DecimalPlaces int32
	SymbolBefore  bool
}

var codes = map[Code]Info{
	USD: {Symbol: "$", DecimalPlaces: 2, SymbolBefore: true},
	EUR: {Symbol: "€", DecimalPlaces: 2, SymbolBefore: false},
	GBP: {Symbol: "£", DecimalPlaces: 2, SymbolBefore: true},
	JPY: {Symbol: "¥", DecimalPlaces: 0, SymbolBefore: true},
	CAD: {Symbol: "$", DecimalPlaces: 2, SymbolBefore: true},
	AUD: {Symbol: "$", DecimalPlaces: 2, SymbolBefore: true},
	CHF: {Symbol: "CHF ", DecimalPlaces: 2, SymbolBefore: true},
	VND: {Symbol: "₫", DecimalPlaces: 0, SymbolBefore: false},
}

// Supported returns every code Format knows how to render.
func Supported() []Code {
	return []Code{USD, EUR, GBP, JPY, CAD, AUD, CHF, VND}
}

// IsValid reports whether code is a supported currency.
func IsValid(code string) bool {
	_, ok := codes[Code(code)]
	return ok
}

// Lookup returns rendering info for a code.
func Lookup(code Code) (Info, bool) {
	info, ok := codes[code]
	return info, ok
}

// Format renders an amount with the code's symbol and rounding. Unknown
// codes fall back to the default currency.
func Format(amount decimal.Decimal, code Code) string {
	info, ok := codes[code]
	if !ok {
		info = codes[Default]
	}
	fixed := amount.StringFixed(info.DecimalPlaces)
	if info.SymbolBefore {
		return info.Symbol + fixed
	}
	return fixed + info.Symbol
}

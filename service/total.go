package service

import (
	"finance-form/currency"
	"finance-form/domain"
)

// ComputeTotal returns the Amount Financed for a set of field values:
// salesPrice - downPayment + warranty + cpi + gap. Missing or malformed
// operands count as zero.
func ComputeTotal(values map[domain.FieldID]string) string {
	total := currency.ParseLenient(values[domain.SalesPrice]).
		Sub(currency.ParseLenient(values[domain.DownPayment])).
		Add(currency.ParseLenient(values[domain.Warranty])).
		Add(currency.ParseLenient(values[domain.CPI])).
		Add(currency.ParseLenient(values[domain.Gap]))

	return currency.FormatUSD(total)
}

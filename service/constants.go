package service

import "finance-form/domain"

// MinSalesPrice is the lowest sales price the remote save accepts.
const MinSalesPrice = 10_000

// InitialValues seeds every new form.
var InitialValues = map[domain.FieldID]string{
	domain.SalesPrice:  "27537.00",
	domain.DownPayment: "2500.00",
	domain.Warranty:    "0.00",
	domain.CPI:         "0.00",
	domain.Gap:         "0.00",
}

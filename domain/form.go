package domain

// FieldID identifies one financial line item of the form.
type FieldID string

const (
	SalesPrice  FieldID = "salesPrice"
	DownPayment FieldID = "downPayment"
	Warranty    FieldID = "warranty"
	CPI         FieldID = "cpi"
	Gap         FieldID = "gap"
)

// FieldIDs lists the fields in display order.
var FieldIDs = []FieldID{SalesPrice, DownPayment, Warranty, CPI, Gap}

var fieldLabels = map[FieldID]string{
	SalesPrice:  "Sales Price",
	DownPayment: "Down Payment",
	Warranty:    "+ Warranty",
	CPI:         "+ CPI",
	Gap:         "+ Gap on Contract",
}

// Label returns the human readable caption of the field.
func (id FieldID) Label() string {
	return fieldLabels[id]
}

// Valid reports whether id names one of the form fields.
func (id FieldID) Valid() bool {
	_, ok := fieldLabels[id]
	return ok
}

type Status string

const (
	StatusIdle    Status = "idle"
	StatusEditing Status = "editing"
	StatusSaving  Status = "saving"
	StatusError   Status = "error"
)

// FieldView is what a presentation layer needs to render one field.
type FieldView struct {
	ID           FieldID `json:"id"`
	Label        string  `json:"label"`
	Value        string  `json:"value"`
	DisplayValue string  `json:"displayValue"`
	Status       Status  `json:"status"`
	IsSaving     bool    `json:"isSaving"`
	HasError     bool    `json:"hasError"`
	Error        string  `json:"error,omitempty"`
}

type FormView struct {
	ID             string      `json:"id"`
	Fields         []FieldView `json:"fields"`
	AmountFinanced string      `json:"amountFinanced"`
}

// ChangeInput carries the raw text typed into a field.
type ChangeInput struct {
	Value *string `json:"value" validate:"required"`
}

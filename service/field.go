package service

import (
	"finance-form/currency"
	"finance-form/domain"
)

// Field is the edit/save state of one form field. It is a value: every
// transition returns the next Field and leaves the receiver untouched.
type Field struct {
	ID     domain.FieldID
	Value  string
	Status domain.Status
	// Snapshot is the value captured when editing began.
	Snapshot string
	// Committed is the last value accepted by the remote save.
	Committed string
	// Err holds the rejection reason while Status is StatusError.
	Err error
}

func NewField(id domain.FieldID, value string) Field {
	return Field{
		ID:        id,
		Value:     value,
		Status:    domain.StatusIdle,
		Snapshot:  value,
		Committed: value,
	}
}

// Focus records the current value as the snapshot to compare against on blur.
func (f Field) Focus() (Field, error) {
	if f.Status == domain.StatusSaving {
		return f, ErrCommitInFlight
	}
	f.Snapshot = f.Value
	return f, nil
}

// Change stores the sanitized input and clears any previous error.
func (f Field) Change(raw string) (Field, error) {
	if f.Status == domain.StatusSaving {
		return f, ErrCommitInFlight
	}
	f.Value = currency.Sanitize(raw)
	f.Status = domain.StatusEditing
	f.Err = nil
	return f, nil
}

// Blur formats the value to cents and reports whether it must be committed.
// A value numerically equal to the snapshot is only reformatted.
func (f Field) Blur() (Field, bool, error) {
	if f.Status == domain.StatusSaving {
		return f, false, ErrCommitInFlight
	}

	formatted := currency.CommitFormat(f.Value)
	f.Value = formatted
	if formatted == f.Snapshot {
		// A rejected value stays flagged until the user edits it.
		if f.Status != domain.StatusError {
			f.Status = domain.StatusIdle
		}
		return f, false, nil
	}

	f.Status = domain.StatusSaving
	f.Err = nil
	return f, true, nil
}

// Resolve applies the outcome of the remote save. On failure the attempted
// value is kept.
func (f Field) Resolve(err error) Field {
	if err != nil {
		f.Status = domain.StatusError
		f.Err = err
		return f
	}
	f.Status = domain.StatusIdle
	f.Err = nil
	f.Committed = f.Value
	f.Snapshot = f.Value
	return f
}

func (f Field) HasError() bool { return f.Status == domain.StatusError }

func (f Field) IsSaving() bool { return f.Status == domain.StatusSaving }

// View renders the field for the presentation layer.
func (f Field) View() domain.FieldView {
	v := domain.FieldView{
		ID:           f.ID,
		Label:        f.ID.Label(),
		Value:        f.Value,
		DisplayValue: currency.DisplayFormat(f.Value),
		Status:       f.Status,
		IsSaving:     f.IsSaving(),
		HasError:     f.HasError(),
	}
	if f.Err != nil {
		v.Error = f.Err.Error()
	}
	return v
}

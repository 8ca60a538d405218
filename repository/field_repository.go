package repository

import (
	"context"

	"finance-form/domain"
)

// FieldRepository receives the values accepted by the remote save.
type FieldRepository interface {
	Save(ctx context.Context, formID string, field domain.FieldID, value string) error
}

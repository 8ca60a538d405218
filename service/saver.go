package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finance-form/domain"
	"finance-form/repository"
)

// Saver validates and persists a committed field value. Implementations may
// block for as long as the remote side takes.
type Saver interface {
	Save(ctx context.Context, formID string, field domain.FieldID, value string) error
}

// SaverFunc adapts a function to the Saver interface.
type SaverFunc func(ctx context.Context, formID string, field domain.FieldID, value string) error

func (fn SaverFunc) Save(ctx context.Context, formID string, field domain.FieldID, value string) error {
	return fn(ctx, formID, field, value)
}

// RemoteSaver stands in for the remote save endpoint: it waits a fixed delay,
// applies the business rules and writes accepted values to a repository.
type RemoteSaver struct {
	repo  repository.FieldRepository
	delay time.Duration
}

// NewRemoteSaver creates a RemoteSaver. A nil repo only validates.
func NewRemoteSaver(repo repository.FieldRepository, delay time.Duration) *RemoteSaver {
	return &RemoteSaver{repo: repo, delay: delay}
}

func (s *RemoteSaver) Save(ctx context.Context, formID string, field domain.FieldID, value string) error {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := ValidateField(field, value); err != nil {
		return err
	}
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Save(ctx, formID, field, value); err != nil {
		return fmt.Errorf("persist %s: %w", field, err)
	}
	return nil
}

// ValidateField applies the rules the remote save enforces on a committed
// value.
func ValidateField(field domain.FieldID, value string) error {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	if field == domain.SalesPrice && amount.LessThan(decimal.NewFromInt(MinSalesPrice)) {
		return ErrSalesPriceBelowMinimum
	}
	return nil
}

package repository

import (
	"context"
	"sync"

	"finance-form/domain"
)

// FieldRepositoryMemory is an in-memory implementation of FieldRepository.
type FieldRepositoryMemory struct {
	mu   sync.RWMutex
	data map[string]map[domain.FieldID]string
}

// NewFieldRepositoryMemory creates a new in-memory field repository.
func NewFieldRepositoryMemory() *FieldRepositoryMemory {
	return &FieldRepositoryMemory{
		data: make(map[string]map[domain.FieldID]string),
	}
}

// Save stores the committed value in memory.
func (r *FieldRepositoryMemory) Save(
	_ context.Context,
	formID string,
	field domain.FieldID,
	value string,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	values, ok := r.data[formID]
	if !ok {
		values = make(map[domain.FieldID]string)
		r.data[formID] = values
	}
	values[field] = value
	return nil
}

// Values returns a copy of everything saved for formID.
func (r *FieldRepositoryMemory) Values(formID string) map[domain.FieldID]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[domain.FieldID]string, len(r.data[formID]))
	for k, v := range r.data[formID] {
		out[k] = v
	}
	return out
}

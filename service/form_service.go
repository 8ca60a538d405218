package service

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// FormService keeps the forms of the running session, keyed by id.
type FormService struct {
	saver Saver
	opts  []Option

	mu    sync.RWMutex
	forms map[string]*Form
}

// NewFormService creates a FormService whose forms commit through saver.
func NewFormService(saver Saver, opts ...Option) *FormService {
	return &FormService{
		saver: saver,
		opts:  opts,
		forms: make(map[string]*Form),
	}
}

// Create starts a new form with the initial values.
func (s *FormService) Create() *Form {
	form := NewForm(uuid.NewString(), InitialValues, s.saver, s.opts...)

	s.mu.Lock()
	s.forms[form.ID()] = form
	s.mu.Unlock()
	return form
}

func (s *FormService) Get(id string) (*Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	form, ok := s.forms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFormNotFound, id)
	}
	return form, nil
}

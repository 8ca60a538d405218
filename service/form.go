package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"finance-form/domain"
	"finance-form/obs"
)

// CommitResult is delivered once per Blur.
type CommitResult struct {
	Field domain.FieldID
	Value string
	// Skipped is set when the blur did not change the value numerically and
	// no save was issued.
	Skipped bool
	Err     error
	// AmountFinanced is the form total right after the commit resolved.
	AmountFinanced string
}

// Form owns the fields of one financing form and the derived Amount Financed.
// All field transitions go through the Form; each commit runs in its own
// goroutine and never holds the lock while the save is pending.
type Form struct {
	id      string
	saver   Saver
	logger  zerolog.Logger
	metrics *obs.CommitMetrics

	mu             sync.Mutex
	fields         map[domain.FieldID]Field
	amountFinanced string
}

type Option func(*Form)

func WithLogger(logger zerolog.Logger) Option {
	return func(f *Form) { f.logger = logger }
}

func WithMetrics(m *obs.CommitMetrics) Option {
	return func(f *Form) { f.metrics = m }
}

// NewForm creates a form seeded with initial values. Fields missing from
// initial start at "0.00".
func NewForm(id string, initial map[domain.FieldID]string, saver Saver, opts ...Option) *Form {
	f := &Form{
		id:     id,
		saver:  saver,
		logger: zerolog.Nop(),
		fields: make(map[domain.FieldID]Field, len(domain.FieldIDs)),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With().Str("form_id", id).Logger()

	for _, fid := range domain.FieldIDs {
		value, ok := initial[fid]
		if !ok {
			value = "0.00"
		}
		f.fields[fid] = NewField(fid, value)
	}
	f.amountFinanced = ComputeTotal(f.committedValues())
	return f
}

func (f *Form) ID() string { return f.id }

func (f *Form) Focus(id domain.FieldID) (domain.FieldView, error) {
	return f.transition(id, Field.Focus)
}

func (f *Form) Change(id domain.FieldID, raw string) (domain.FieldView, error) {
	return f.transition(id, func(fl Field) (Field, error) {
		return fl.Change(raw)
	})
}

// Blur starts the commit protocol for a field. The returned channel receives
// exactly one CommitResult; for a no-op blur it is already filled.
func (f *Form) Blur(ctx context.Context, id domain.FieldID) (<-chan CommitResult, error) {
	f.mu.Lock()
	cur, ok := f.fields[id]
	if !ok {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, id)
	}
	next, commit, err := cur.Blur()
	if err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.fields[id] = next
	total := f.amountFinanced
	f.mu.Unlock()

	done := make(chan CommitResult, 1)
	if !commit {
		f.metrics.Observe(string(id), obs.ResultSkipped, 0)
		f.logger.Debug().Str("field", string(id)).Str("value", next.Value).Msg("blur without change, save skipped")
		done <- CommitResult{Field: id, Value: next.Value, Skipped: true, AmountFinanced: total}
		close(done)
		return done, nil
	}

	f.metrics.Started()
	// A commit always runs to completion, whatever happens to the caller.
	go f.commit(context.WithoutCancel(ctx), id, next.Value, done)
	return done, nil
}

func (f *Form) commit(ctx context.Context, id domain.FieldID, value string, done chan<- CommitResult) {
	start := time.Now()
	err := f.save(ctx, id, value)
	elapsed := time.Since(start)

	f.mu.Lock()
	f.fields[id] = f.fields[id].Resolve(err)
	if err == nil {
		f.amountFinanced = ComputeTotal(f.committedValues())
	}
	total := f.amountFinanced
	f.mu.Unlock()

	result := obs.ResultSaved
	switch {
	case err == nil:
		f.logger.Info().
			Str("field", string(id)).
			Str("value", value).
			Str("amount_financed", total).
			Int64("duration_ms", elapsed.Milliseconds()).
			Msg("field committed")
	case IsRejection(err):
		result = obs.ResultRejected
		f.logger.Warn().Err(err).Str("field", string(id)).Str("value", value).Msg("field save rejected")
	default:
		result = obs.ResultFailed
		f.logger.Error().Err(err).Str("field", string(id)).Str("value", value).Msg("field save failed")
	}
	f.metrics.Observe(string(id), result, elapsed)

	done <- CommitResult{Field: id, Value: value, Err: err, AmountFinanced: total}
	close(done)
}

func (f *Form) save(ctx context.Context, id domain.FieldID, value string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSavePanicked, r)
		}
	}()
	return f.saver.Save(ctx, f.id, id, value)
}

func (f *Form) transition(id domain.FieldID, fn func(Field) (Field, error)) (domain.FieldView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cur, ok := f.fields[id]
	if !ok {
		return domain.FieldView{}, fmt.Errorf("%w: %q", ErrUnknownField, id)
	}
	next, err := fn(cur)
	if err != nil {
		return cur.View(), err
	}
	f.fields[id] = next
	return next.View(), nil
}

// Field returns the current view of one field.
func (f *Form) Field(id domain.FieldID) (domain.FieldView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cur, ok := f.fields[id]
	if !ok {
		return domain.FieldView{}, fmt.Errorf("%w: %q", ErrUnknownField, id)
	}
	return cur.View(), nil
}

func (f *Form) AmountFinanced() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.amountFinanced
}

// View snapshots every field in display order together with the total.
func (f *Form) View() domain.FormView {
	f.mu.Lock()
	defer f.mu.Unlock()

	view := domain.FormView{
		ID:             f.id,
		Fields:         make([]domain.FieldView, 0, len(domain.FieldIDs)),
		AmountFinanced: f.amountFinanced,
	}
	for _, fid := range domain.FieldIDs {
		view.Fields = append(view.Fields, f.fields[fid].View())
	}
	return view
}

// committedValues must be called with f.mu held.
func (f *Form) committedValues() map[domain.FieldID]string {
	values := make(map[domain.FieldID]string, len(f.fields))
	for id, fl := range f.fields {
		values[id] = fl.Committed
	}
	return values
}

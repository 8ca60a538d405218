package service

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"finance-form/domain"
	"finance-form/obs"
)

// pendingSave is a save call waiting for the test to answer it.
type pendingSave struct {
	field domain.FieldID
	value string
	reply chan error
}

// controlledSaver blocks every save until the test replies, so latency and
// completion order are decided by the test.
type controlledSaver struct {
	pending chan pendingSave
}

func newControlledSaver() *controlledSaver {
	return &controlledSaver{pending: make(chan pendingSave, 8)}
}

func (s *controlledSaver) Save(_ context.Context, _ string, field domain.FieldID, value string) error {
	reply := make(chan error, 1)
	s.pending <- pendingSave{field: field, value: value, reply: reply}
	return <-reply
}

func (s *controlledSaver) next(t *testing.T) pendingSave {
	t.Helper()
	select {
	case p := <-s.pending:
		return p
	case <-time.After(time.Second):
		t.Fatal("expected a save call")
		return pendingSave{}
	}
}

// countingSaver applies the business rules instantly and counts calls.
type countingSaver struct {
	mu    sync.Mutex
	calls int
}

func (s *countingSaver) Save(_ context.Context, _ string, field domain.FieldID, value string) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return ValidateField(field, value)
}

func (s *countingSaver) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func wait(t *testing.T, done <-chan CommitResult) CommitResult {
	t.Helper()
	select {
	case res := <-done:
		return res
	case <-time.After(time.Second):
		t.Fatal("commit did not resolve")
		return CommitResult{}
	}
}

func TestForm_InitialAmountFinanced(t *testing.T) {
	form := NewForm("f", InitialValues, &countingSaver{})

	require.Equal(t, "$25,037.00", form.AmountFinanced())

	view := form.View()
	require.Len(t, view.Fields, 5)
	require.Equal(t, domain.SalesPrice, view.Fields[0].ID)
	require.Equal(t, "Sales Price", view.Fields[0].Label)
	require.Equal(t, "27,537.00", view.Fields[0].DisplayValue)
	require.Equal(t, "+ Gap on Contract", view.Fields[4].Label)
}

func TestForm_RejectedSalesPriceKeepsTotal(t *testing.T) {
	form := NewForm("f", InitialValues, &countingSaver{})

	_, err := form.Focus(domain.SalesPrice)
	require.NoError(t, err)
	_, err = form.Change(domain.SalesPrice, "9999")
	require.NoError(t, err)

	done, err := form.Blur(context.Background(), domain.SalesPrice)
	require.NoError(t, err)
	res := wait(t, done)
	require.ErrorIs(t, res.Err, ErrSalesPriceBelowMinimum)
	require.False(t, res.Skipped)

	field, err := form.Field(domain.SalesPrice)
	require.NoError(t, err)
	require.Equal(t, "9999.00", field.Value)
	require.True(t, field.HasError)
	require.False(t, field.IsSaving)
	require.Equal(t, "$25,037.00", form.AmountFinanced())
}

func TestForm_EditClearsErrorBeforeSaveResolves(t *testing.T) {
	saver := newControlledSaver()
	form := NewForm("f", InitialValues, saver)

	_, _ = form.Focus(domain.SalesPrice)
	_, _ = form.Change(domain.SalesPrice, "9999")
	done, err := form.Blur(context.Background(), domain.SalesPrice)
	require.NoError(t, err)
	saver.next(t).reply <- ErrSalesPriceBelowMinimum
	wait(t, done)

	_, _ = form.Focus(domain.SalesPrice)
	view, err := form.Change(domain.SalesPrice, "99999")
	require.NoError(t, err)
	require.False(t, view.HasError)

	done, err = form.Blur(context.Background(), domain.SalesPrice)
	require.NoError(t, err)
	p := saver.next(t)
	require.Equal(t, "99999.00", p.value)

	view, err = form.Field(domain.SalesPrice)
	require.NoError(t, err)
	require.True(t, view.IsSaving)
	require.False(t, view.HasError)
	require.Equal(t, "$25,037.00", form.AmountFinanced())

	p.reply <- nil
	res := wait(t, done)
	require.NoError(t, res.Err)
	require.Equal(t, "$97,499.00", res.AmountFinanced)
	require.Equal(t, "$97,499.00", form.AmountFinanced())
}

func TestForm_NoopBlurIssuesNoSave(t *testing.T) {
	saver := &countingSaver{}
	form := NewForm("f", InitialValues, saver)

	_, _ = form.Focus(domain.DownPayment)
	done, err := form.Blur(context.Background(), domain.DownPayment)
	require.NoError(t, err)
	res := wait(t, done)
	require.True(t, res.Skipped)

	_, _ = form.Focus(domain.Warranty)
	_, _ = form.Change(domain.Warranty, "0")
	done, err = form.Blur(context.Background(), domain.Warranty)
	require.NoError(t, err)
	require.True(t, wait(t, done).Skipped)

	require.Zero(t, saver.count())
	view, _ := form.Field(domain.Warranty)
	require.Equal(t, domain.StatusIdle, view.Status)
	require.Equal(t, "0.00", view.Value)
}

func TestForm_SecondBlurRejectedWhileSaving(t *testing.T) {
	saver := newControlledSaver()
	form := NewForm("f", InitialValues, saver)

	_, _ = form.Focus(domain.Gap)
	_, _ = form.Change(domain.Gap, "200")
	done, err := form.Blur(context.Background(), domain.Gap)
	require.NoError(t, err)
	p := saver.next(t)

	_, err = form.Blur(context.Background(), domain.Gap)
	require.ErrorIs(t, err, ErrCommitInFlight)
	_, err = form.Change(domain.Gap, "300")
	require.ErrorIs(t, err, ErrCommitInFlight)

	p.reply <- nil
	require.NoError(t, wait(t, done).Err)
	require.Empty(t, saver.pending)
	require.Equal(t, "$25,237.00", form.AmountFinanced())
}

func TestForm_CommitsResolveOutOfOrder(t *testing.T) {
	saver := newControlledSaver()
	form := NewForm("f", InitialValues, saver)

	_, _ = form.Change(domain.Warranty, "500")
	warrantyDone, err := form.Blur(context.Background(), domain.Warranty)
	require.NoError(t, err)
	_, _ = form.Change(domain.Gap, "200")
	gapDone, err := form.Blur(context.Background(), domain.Gap)
	require.NoError(t, err)

	calls := map[domain.FieldID]pendingSave{}
	for i := 0; i < 2; i++ {
		p := saver.next(t)
		calls[p.field] = p
	}

	calls[domain.Gap].reply <- nil
	require.Equal(t, "$25,237.00", wait(t, gapDone).AmountFinanced)

	warranty, _ := form.Field(domain.Warranty)
	require.True(t, warranty.IsSaving)

	calls[domain.Warranty].reply <- nil
	require.Equal(t, "$25,737.00", wait(t, warrantyDone).AmountFinanced)
}

func TestForm_TotalUsesCommittedValuesOnly(t *testing.T) {
	saver := newControlledSaver()
	form := NewForm("f", InitialValues, saver)

	_, _ = form.Change(domain.SalesPrice, "5000")
	priceDone, _ := form.Blur(context.Background(), domain.SalesPrice)
	saver.next(t).reply <- ErrSalesPriceBelowMinimum
	wait(t, priceDone)

	_, _ = form.Change(domain.CPI, "37")
	_, _ = form.Change(domain.Gap, "100")
	cpiDone, _ := form.Blur(context.Background(), domain.CPI)
	saver.next(t).reply <- nil

	require.Equal(t, "$25,074.00", wait(t, cpiDone).AmountFinanced)
}

func TestForm_PanickingSaverFlagsError(t *testing.T) {
	saver := SaverFunc(func(context.Context, string, domain.FieldID, string) error {
		panic("boom")
	})
	form := NewForm("f", InitialValues, saver)

	_, _ = form.Change(domain.CPI, "10")
	done, err := form.Blur(context.Background(), domain.CPI)
	require.NoError(t, err)
	res := wait(t, done)
	require.ErrorIs(t, res.Err, ErrSavePanicked)

	view, _ := form.Field(domain.CPI)
	require.True(t, view.HasError)
	require.Equal(t, "10.00", view.Value)
}

func TestForm_CommitSurvivesCallerCancellation(t *testing.T) {
	saver := SaverFunc(func(ctx context.Context, _ string, _ domain.FieldID, _ string) error {
		return ctx.Err()
	})
	form := NewForm("f", InitialValues, saver)

	ctx, cancel := context.WithCancel(context.Background())
	_, _ = form.Change(domain.Warranty, "100")
	done, err := form.Blur(ctx, domain.Warranty)
	require.NoError(t, err)
	cancel()

	require.NoError(t, wait(t, done).Err)
	require.Equal(t, "$25,137.00", form.AmountFinanced())
}

func TestForm_UnknownField(t *testing.T) {
	form := NewForm("f", InitialValues, &countingSaver{})

	_, err := form.Focus("tradeIn")
	require.ErrorIs(t, err, ErrUnknownField)
	_, err = form.Change("tradeIn", "1")
	require.ErrorIs(t, err, ErrUnknownField)
	_, err = form.Blur(context.Background(), "tradeIn")
	require.ErrorIs(t, err, ErrUnknownField)
	_, err = form.Field("tradeIn")
	require.ErrorIs(t, err, ErrUnknownField)
}

func TestForm_MissingInitialValuesStartAtZero(t *testing.T) {
	form := NewForm("f", map[domain.FieldID]string{domain.SalesPrice: "15000.00"}, &countingSaver{})

	view, err := form.Field(domain.Gap)
	require.NoError(t, err)
	require.Equal(t, "0.00", view.Value)
	require.Equal(t, "$15,000.00", form.AmountFinanced())
}

func TestForm_MetricsAndLogs(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := obs.NewCommitMetrics("test", reg)
	var buf bytes.Buffer
	form := NewForm("f", InitialValues, &countingSaver{},
		WithLogger(zerolog.New(&buf)),
		WithMetrics(metrics),
	)

	_, _ = form.Change(domain.SalesPrice, "500")
	wait(t, mustBlur(t, form, domain.SalesPrice))
	_, _ = form.Change(domain.Warranty, "250")
	wait(t, mustBlur(t, form, domain.Warranty))
	wait(t, mustBlur(t, form, domain.Gap))

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.CommitsTotal.WithLabelValues("salesPrice", obs.ResultRejected)))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.CommitsTotal.WithLabelValues("warranty", obs.ResultSaved)))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.CommitsTotal.WithLabelValues("gap", obs.ResultSkipped)))
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.InFlight))

	logs := buf.String()
	require.Contains(t, logs, `"message":"field save rejected"`)
	require.Contains(t, logs, `"message":"field committed"`)
	require.Contains(t, logs, `"form_id":"f"`)
}

func mustBlur(t *testing.T, form *Form, id domain.FieldID) <-chan CommitResult {
	t.Helper()
	done, err := form.Blur(context.Background(), id)
	require.NoError(t, err)
	return done
}

func TestFormService_CreateAndGet(t *testing.T) {
	svc := NewFormService(&countingSaver{})

	a := svc.Create()
	b := svc.Create()
	require.NotEqual(t, a.ID(), b.ID())
	require.Equal(t, "$25,037.00", a.AmountFinanced())

	got, err := svc.Get(a.ID())
	require.NoError(t, err)
	require.Same(t, a, got)

	_, err = svc.Get("missing")
	require.ErrorIs(t, err, ErrFormNotFound)
}

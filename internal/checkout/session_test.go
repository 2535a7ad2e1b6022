package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
	testhelpers "github.com/polkiloo/checkout/internal/test"
)

type sessionFixture struct {
	gateway  *testhelpers.GatewayStub
	notifier *testhelpers.NotifierStub
	recorder *testhelpers.RecorderStub
	session  *Session
}

func newFixture(t *testing.T, gw *testhelpers.GatewayStub, opts Options) *sessionFixture {
	t.Helper()
	if opts.Poll == (PollPolicy{}) {
		opts.Poll = fastPolicy()
	}
	f := &sessionFixture{
		gateway:  gw,
		notifier: &testhelpers.NotifierStub{},
		recorder: &testhelpers.RecorderStub{},
	}
	deps := Dependencies{Gateway: gw, Notifier: f.notifier, Recorder: f.recorder, Logger: discardLogger()}
	f.session = NewSession(context.Background(), "sess_1", deps, opts)
	t.Cleanup(f.session.Close)
	return f
}

func (f *sessionFixture) waitView(t *testing.T, view model.ViewState) model.Snapshot {
	t.Helper()
	require.Eventually(t, func() bool { return f.session.Snapshot().View == view }, time.Second, time.Millisecond)
	return f.session.Snapshot()
}

func TestUPIPaymentSucceedsOnce(t *testing.T) {
	gw := &testhelpers.GatewayStub{Statuses: []testhelpers.StatusReply{
		testhelpers.Pending("pay_test"),
		testhelpers.Succeeded("pay_test"),
	}}
	f := newFixture(t, gw, Options{})
	ctx := context.Background()

	require.NoError(t, f.session.Initialize(ctx, "order_1"))
	snap := f.session.Snapshot()
	require.Equal(t, model.ViewSelection, snap.View)
	require.NotNil(t, snap.Order)
	assert.Equal(t, "1500.00", snap.Order.DisplayAmount())

	require.NoError(t, f.session.SelectMethod(model.PaymentMethodUPI))
	require.NoError(t, f.session.SubmitForm(ctx, model.PaymentMethodUPI, model.FormValues{VPA: "user@paytm"}))

	snap = f.waitView(t, model.ViewSuccess)
	require.NotNil(t, snap.Payment)
	assert.Equal(t, model.PaymentStatusSuccess, snap.Payment.Status)
	assert.Equal(t, "pay_test", snap.PaymentID)

	calls := gw.StatusCalls()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, gw.StatusCalls(), "no polls after success")

	assert.Equal(t, []model.ViewState{model.ViewSelection, model.ViewUPI, model.ViewProcessing, model.ViewSuccess}, f.recorder.Views("sess_1"))
	assert.Equal(t, []model.Signal{model.SignalPaymentComplete}, f.notifier.Signals())

	submitted := gw.Submitted()
	require.Len(t, submitted, 1)
	assert.Equal(t, model.PaymentRequest{OrderID: "order_1", Method: model.PaymentMethodUPI, VPA: "user@paytm"}, submitted[0])

	require.ErrorIs(t, f.session.Retry(ctx), domainErrors.ErrInvalidTransition, "success is final")
	require.ErrorIs(t, f.session.SelectMethod(model.PaymentMethodCard), domainErrors.ErrInvalidTransition)
}

func TestCardPaymentSplitsExpiryAndClassifies(t *testing.T) {
	gw := &testhelpers.GatewayStub{Statuses: []testhelpers.StatusReply{testhelpers.Succeeded("pay_test")}}
	f := newFixture(t, gw, Options{})
	ctx := context.Background()

	require.NoError(t, f.session.Initialize(ctx, "order_1"))
	require.NoError(t, f.session.SelectMethod(model.PaymentMethodCard))

	snap, err := f.session.UpdateForm(model.FormValues{CardNumber: "5500 0000"})
	require.NoError(t, err)
	assert.Equal(t, model.CardNetworkMastercard, snap.CardNetwork)

	form := model.FormValues{CardNumber: "4111 1111 1111 1111", Expiry: "12/25", CVV: "123", HolderName: "Jane Doe"}
	require.NoError(t, f.session.SubmitForm(ctx, model.PaymentMethodCard, form))
	snap = f.waitView(t, model.ViewSuccess)
	assert.Equal(t, model.CardNetworkVisa, snap.CardNetwork)

	submitted := gw.Submitted()
	require.Len(t, submitted, 1)
	require.NotNil(t, submitted[0].Card)
	assert.Equal(t, "12", submitted[0].Card.ExpiryMonth)
	assert.Equal(t, "25", submitted[0].Card.ExpiryYear)
	assert.Equal(t, "Jane Doe", submitted[0].Card.HolderName)
}

func TestBankDeclineSurfacesDescriptionVerbatim(t *testing.T) {
	gw := &testhelpers.GatewayStub{Statuses: []testhelpers.StatusReply{testhelpers.Declined("pay_test", "Insufficient funds")}}
	f := newFixture(t, gw, Options{})
	ctx := context.Background()

	require.NoError(t, f.session.Initialize(ctx, "order_1"))
	require.NoError(t, f.session.SelectMethod(model.PaymentMethodUPI))
	require.NoError(t, f.session.SubmitForm(ctx, model.PaymentMethodUPI, model.FormValues{VPA: "user@paytm"}))

	snap := f.waitView(t, model.ViewError)
	assert.Equal(t, "Insufficient funds", snap.ErrorMessage)
	require.NotNil(t, snap.Payment)
	assert.Equal(t, model.PaymentStatusFailed, snap.Payment.Status)
	assert.Equal(t, []model.Signal{model.SignalPaymentFailed}, f.notifier.Signals())
}

func TestBankDeclineWithoutDescriptionUsesModeFallback(t *testing.T) {
	gw := &testhelpers.GatewayStub{Fallback: "Payment failed at bank", Statuses: []testhelpers.StatusReply{testhelpers.Declined("pay_test", "")}}
	f := newFixture(t, gw, Options{})
	ctx := context.Background()

	require.NoError(t, f.session.Initialize(ctx, "order_1"))
	require.NoError(t, f.session.SelectMethod(model.PaymentMethodUPI))
	require.NoError(t, f.session.SubmitForm(ctx, model.PaymentMethodUPI, model.FormValues{VPA: "user@paytm"}))

	snap := f.waitView(t, model.ViewError)
	assert.Equal(t, "Payment failed at bank", snap.ErrorMessage)
}

func TestPollTransportFailureStopsPolling(t *testing.T) {
	gw := &testhelpers.GatewayStub{Statuses: []testhelpers.StatusReply{
		testhelpers.Pending("pay_test"),
		{Err: errors.New("dial tcp: connection refused")},
		testhelpers.Succeeded("pay_test"),
	}}
	f := newFixture(t, gw, Options{})
	ctx := context.Background()

	require.NoError(t, f.session.Initialize(ctx, "order_1"))
	require.NoError(t, f.session.SelectMethod(model.PaymentMethodUPI))
	require.NoError(t, f.session.SubmitForm(ctx, model.PaymentMethodUPI, model.FormValues{VPA: "user@paytm"}))

	snap := f.waitView(t, model.ViewError)
	assert.Equal(t, domainErrors.MessagePollingTransport, snap.ErrorMessage)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 2, gw.StatusCalls(), "no polls after a transport failure")
	assert.Equal(t, []model.Signal{model.SignalPaymentFailed}, f.notifier.Signals())
}

func TestPollingBoundEndsInError(t *testing.T) {
	gw := &testhelpers.GatewayStub{}
	f := newFixture(t, gw, Options{Poll: PollPolicy{Interval: 5 * time.Millisecond, MaxAttempts: 2}})
	ctx := context.Background()

	require.NoError(t, f.session.Initialize(ctx, "order_1"))
	require.NoError(t, f.session.SelectMethod(model.PaymentMethodUPI))
	require.NoError(t, f.session.SubmitForm(ctx, model.PaymentMethodUPI, model.FormValues{VPA: "user@paytm"}))

	snap := f.waitView(t, model.ViewError)
	assert.Equal(t, domainErrors.MessagePollingExhausted, snap.ErrorMessage)
	assert.Equal(t, 2, gw.StatusCalls())
}

func TestSubmissionFailureShowsGatewayDescription(t *testing.T) {
	gw := &testhelpers.GatewayStub{SubmitFn: func(context.Context, model.PaymentRequest) (string, error) {
		return "", &domainErrors.PaymentSubmissionError{StatusCode: 400, Description: "Invalid VPA format"}
	}}
	f := newFixture(t, gw, Options{})
	ctx := context.Background()

	require.NoError(t, f.session.Initialize(ctx, "order_1"))
	require.NoError(t, f.session.SelectMethod(model.PaymentMethodUPI))
	require.NoError(t, f.session.SubmitForm(ctx, model.PaymentMethodUPI, model.FormValues{VPA: "bad"}))

	snap := f.session.Snapshot()
	assert.Equal(t, model.ViewError, snap.View)
	assert.Equal(t, "Invalid VPA format", snap.ErrorMessage)
	assert.Equal(t, 0, gw.StatusCalls())
	assert.Equal(t, []model.Signal{model.SignalPaymentFailed}, f.notifier.Signals())
	assert.Equal(t, []model.ViewState{model.ViewSelection, model.ViewUPI, model.ViewProcessing, model.ViewError}, f.recorder.Views("sess_1"))
}

func TestRetryClearsFormAndKeepsOrder(t *testing.T) {
	gw := &testhelpers.GatewayStub{Statuses: []testhelpers.StatusReply{testhelpers.Declined("pay_test", "Card blocked")}}
	f := newFixture(t, gw, Options{})
	ctx := context.Background()

	require.NoError(t, f.session.Initialize(ctx, "order_1"))
	require.NoError(t, f.session.SelectMethod(model.PaymentMethodCard))
	form := model.FormValues{CardNumber: "4111111111111111", Expiry: "12/25", CVV: "123", HolderName: "Jane"}
	require.NoError(t, f.session.SubmitForm(ctx, model.PaymentMethodCard, form))
	f.waitView(t, model.ViewError)

	require.NoError(t, f.session.Retry(ctx))
	snap := f.session.Snapshot()
	assert.Equal(t, model.ViewSelection, snap.View)
	assert.Equal(t, model.FormValues{}, snap.Form)
	assert.Empty(t, snap.CardNetwork)
	assert.Empty(t, snap.ErrorMessage)
	assert.Empty(t, snap.PaymentID)
	assert.Nil(t, snap.Payment)
	require.NotNil(t, snap.Order)
	assert.Equal(t, "order_1", snap.Order.ID)
	assert.Equal(t, "1500.00", snap.Order.DisplayAmount())
	assert.Equal(t, 1, gw.LoadCalls(), "retry after a payment failure does not reload the order")
}

func TestOrderLoadFailureShowsErrorFirst(t *testing.T) {
	loadErr := errors.New("404")
	attempts := 0
	gw := &testhelpers.GatewayStub{LoadFn: func(ctx context.Context, id string) (*model.Order, error) {
		attempts++
		if attempts == 1 {
			return nil, &domainErrors.OrderLoadError{OrderID: id, Err: loadErr}
		}
		return &model.Order{ID: id, Amount: 99}, nil
	}}
	f := newFixture(t, gw, Options{})
	ctx := context.Background()

	require.NoError(t, f.session.Initialize(ctx, "order_missing"))
	snap := f.session.Snapshot()
	assert.Equal(t, model.ViewError, snap.View)
	assert.Equal(t, domainErrors.MessageOrderLoad, snap.ErrorMessage)
	assert.Equal(t, []model.ViewState{model.ViewError}, f.recorder.Views("sess_1"), "no method view before the error")
	assert.Empty(t, f.notifier.Signals())

	require.ErrorIs(t, f.session.SelectMethod(model.PaymentMethodUPI), domainErrors.ErrInvalidTransition)

	require.NoError(t, f.session.Retry(ctx))
	snap = f.session.Snapshot()
	assert.Equal(t, model.ViewSelection, snap.View)
	require.NotNil(t, snap.Order)
	assert.Equal(t, "0.99", snap.Order.DisplayAmount())
	assert.Equal(t, 2, gw.LoadCalls())
}

func TestMissingOrderID(t *testing.T) {
	gw := &testhelpers.GatewayStub{}
	f := newFixture(t, gw, Options{})
	require.NoError(t, f.session.Initialize(context.Background(), ""))
	snap := f.session.Snapshot()
	assert.Equal(t, model.ViewSelection, snap.View)
	assert.Nil(t, snap.Order)
	assert.Equal(t, 0, gw.LoadCalls(), "no fetch without an order id")

	strict := newFixture(t, &testhelpers.GatewayStub{}, Options{RequireOrderID: true})
	require.NoError(t, strict.session.Initialize(context.Background(), ""))
	snap = strict.session.Snapshot()
	assert.Equal(t, model.ViewError, snap.View)
	assert.Equal(t, domainErrors.MessageOrderMissing, snap.ErrorMessage)

	require.NoError(t, strict.session.Retry(context.Background()))
	assert.Equal(t, model.ViewError, strict.session.Snapshot().View, "retry cannot recover without an order id")
	assert.Equal(t, 0, strict.gateway.LoadCalls())
}

func TestInvalidTransitionsAndForms(t *testing.T) {
	f := newFixture(t, &testhelpers.GatewayStub{}, Options{})
	ctx := context.Background()

	require.NoError(t, f.session.Initialize(ctx, "order_1"))
	require.ErrorIs(t, f.session.Initialize(ctx, "order_2"), domainErrors.ErrInvalidTransition)
	require.ErrorIs(t, f.session.Back(), domainErrors.ErrInvalidTransition)
	require.ErrorIs(t, f.session.Retry(ctx), domainErrors.ErrInvalidTransition)
	require.ErrorIs(t, f.session.SubmitForm(ctx, model.PaymentMethodUPI, model.FormValues{VPA: "a@b"}), domainErrors.ErrInvalidTransition)
	require.ErrorIs(t, f.session.SelectMethod(model.PaymentMethod("cash")), domainErrors.ErrInvalidForm)
	_, err := f.session.UpdateForm(model.FormValues{})
	require.ErrorIs(t, err, domainErrors.ErrInvalidTransition)

	require.NoError(t, f.session.SelectMethod(model.PaymentMethodUPI))
	require.ErrorIs(t, f.session.SelectMethod(model.PaymentMethodCard), domainErrors.ErrInvalidTransition)
	require.ErrorIs(t, f.session.SubmitForm(ctx, model.PaymentMethodCard, model.FormValues{}), domainErrors.ErrInvalidTransition)

	require.ErrorIs(t, f.session.SubmitForm(ctx, model.PaymentMethodUPI, model.FormValues{VPA: "  "}), domainErrors.ErrInvalidForm)
	assert.Equal(t, model.ViewUPI, f.session.Snapshot().View, "invalid form does not transition")
	assert.Empty(t, f.gateway.Submitted())

	require.NoError(t, f.session.Back())
	assert.Equal(t, model.ViewSelection, f.session.Snapshot().View)
	assert.Empty(t, f.session.Snapshot().Method)
}

func TestCloseDiscardsLateOutcome(t *testing.T) {
	release := make(chan struct{})
	gw := &testhelpers.GatewayStub{StatusFn: func(ctx context.Context, id string) (*model.PaymentRecord, error) {
		<-release
		return &model.PaymentRecord{ID: id, Status: model.PaymentStatusSuccess}, nil
	}}
	f := newFixture(t, gw, Options{})
	ctx := context.Background()

	require.NoError(t, f.session.Initialize(ctx, "order_1"))
	require.NoError(t, f.session.SelectMethod(model.PaymentMethodUPI))
	require.NoError(t, f.session.SubmitForm(ctx, model.PaymentMethodUPI, model.FormValues{VPA: "user@paytm"}))
	require.Eventually(t, func() bool { return gw.StatusCalls() == 1 }, time.Second, time.Millisecond)

	f.session.Close()
	close(release)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, model.ViewProcessing, f.session.Snapshot().View)
	assert.Empty(t, f.notifier.Signals())
	assert.True(t, f.session.Closed())
	require.ErrorIs(t, f.session.Retry(ctx), domainErrors.ErrSessionNotFound)
}

func TestStaleGenerationOutcomeIsIgnored(t *testing.T) {
	f := newFixture(t, &testhelpers.GatewayStub{}, Options{})
	ctx := context.Background()

	require.NoError(t, f.session.Initialize(ctx, "order_1"))
	require.NoError(t, f.session.SelectMethod(model.PaymentMethodUPI))

	f.session.mu.Lock()
	f.session.view = model.ViewProcessing
	f.session.generation = 5
	f.session.mu.Unlock()

	f.session.handleOutcome(Outcome{Generation: 4, Record: &model.PaymentRecord{Status: model.PaymentStatusSuccess}})
	assert.Equal(t, model.ViewProcessing, f.session.Snapshot().View)

	f.session.handleOutcome(Outcome{Generation: 5, Record: &model.PaymentRecord{Status: model.PaymentStatusSuccess}})
	assert.Equal(t, model.ViewSuccess, f.session.Snapshot().View)

	f.session.handleOutcome(Outcome{Generation: 5, Err: &domainErrors.BankDeclineError{Description: "late"}})
	assert.Equal(t, model.ViewSuccess, f.session.Snapshot().View, "success is never overwritten")
	assert.Equal(t, []model.Signal{model.SignalPaymentComplete}, f.notifier.Signals())
}

func TestRecorderFailureDoesNotBreakFlow(t *testing.T) {
	gw := &testhelpers.GatewayStub{}
	recorder := &testhelpers.RecorderStub{RecordErr: errors.New("db down")}
	s := NewSession(context.Background(), "sess_2", Dependencies{Gateway: gw, Recorder: recorder, Logger: discardLogger()}, Options{})
	t.Cleanup(s.Close)

	require.NoError(t, s.Initialize(context.Background(), "order_1"))
	require.NoError(t, s.SelectMethod(model.PaymentMethodUPI))
	assert.Equal(t, model.ViewUPI, s.Snapshot().View)
}

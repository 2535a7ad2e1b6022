package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
	"github.com/polkiloo/checkout/internal/usecase"
)

// Dependencies are the collaborators shared by every session.
type Dependencies struct {
	Gateway  Gateway
	Notifier Notifier
	Recorder Recorder
	Logger   *slog.Logger
}

// Options tune session behaviour.
type Options struct {
	Poll           PollPolicy
	RequireOrderID bool
	Now            func() time.Time
}

// Session is one payer's checkout. It owns the view state, the loaded order
// and the payment record; all entry points are safe for concurrent use.
type Session struct {
	id      string
	deps    Dependencies
	opts    Options
	baseCtx context.Context
	logger  *slog.Logger

	mu          sync.Mutex
	initialized bool
	loading     bool
	closed      bool
	view        model.ViewState
	orderID     string
	order       *model.Order
	loadFailed  bool
	method      model.PaymentMethod
	form        model.FormValues
	network     model.CardNetwork
	paymentID   string
	payment     *model.PaymentRecord
	errMessage  string
	generation  uint64
	poller      *Poller
	createdAt   time.Time
	updatedAt   time.Time
	lastSeen    time.Time
}

// NewSession creates a session in the selection view. baseCtx parents every
// poll cycle the session starts.
func NewSession(baseCtx context.Context, id string, deps Dependencies, opts Options) *Session {
	if deps.Notifier == nil {
		deps.Notifier = noopNotifier{}
	}
	if deps.Recorder == nil {
		deps.Recorder = noopRecorder{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	now := opts.Now()
	return &Session{
		id:        id,
		deps:      deps,
		opts:      opts,
		baseCtx:   baseCtx,
		logger:    deps.Logger.With(slog.String("session_id", id)),
		view:      model.ViewSelection,
		createdAt: now,
		updatedAt: now,
		lastSeen:  now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Initialize loads the order once. A missing order id leaves the session in
// selection unless order ids are required.
func (s *Session) Initialize(ctx context.Context, orderID string) error {
	s.mu.Lock()
	if s.initialized || s.closed {
		s.mu.Unlock()
		return fmt.Errorf("%w: session already initialized", domainErrors.ErrInvalidTransition)
	}
	s.initialized = true
	s.orderID = orderID

	if orderID == "" {
		if s.opts.RequireOrderID {
			s.failLoadLocked(&domainErrors.OrderLoadError{})
		}
		s.recordLocked()
		s.mu.Unlock()
		return nil
	}

	s.loading = true
	s.mu.Unlock()

	return s.loadOrder(ctx, orderID)
}

func (s *Session) loadOrder(ctx context.Context, orderID string) error {
	order, err := s.deps.Gateway.LoadOrder(ctx, orderID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if s.closed {
		return nil
	}

	if err != nil {
		s.logger.Warn("order load failed", slog.String("order_id", orderID), slog.String("error", err.Error()))
		var loadErr *domainErrors.OrderLoadError
		if !errors.As(err, &loadErr) {
			err = &domainErrors.OrderLoadError{OrderID: orderID, Err: err}
		}
		s.failLoadLocked(err)
		s.recordLocked()
		return nil
	}

	s.order = order
	s.loadFailed = false
	s.errMessage = ""
	s.setViewLocked(model.ViewSelection)
	s.recordLocked()
	return nil
}

// SelectMethod opens the form for method. Only valid from selection.
func (s *Session) SelectMethod(method model.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usableLocked(); err != nil {
		return err
	}
	view, ok := model.FormView(method)
	if !ok {
		return fmt.Errorf("%w: unsupported method %q", domainErrors.ErrInvalidForm, method)
	}
	if s.view != model.ViewSelection {
		return s.transitionErrorLocked("select method")
	}

	s.method = method
	s.setViewLocked(view)
	s.recordLocked()
	return nil
}

// Back returns from a method form to selection.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usableLocked(); err != nil {
		return err
	}
	if s.view != model.ViewUPI && s.view != model.ViewCard {
		return s.transitionErrorLocked("back")
	}

	s.method = ""
	s.setViewLocked(model.ViewSelection)
	s.recordLocked()
	return nil
}

// UpdateForm stores in-progress input and refreshes the card network badge.
func (s *Session) UpdateForm(form model.FormValues) (model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usableLocked(); err != nil {
		return model.Snapshot{}, err
	}
	if s.view != model.ViewUPI && s.view != model.ViewCard {
		return model.Snapshot{}, s.transitionErrorLocked("update form")
	}

	s.form = form
	s.network = ""
	if s.view == model.ViewCard {
		s.network = usecase.ClassifyCardNetwork(form.CardNumber)
	}
	s.touchLocked()
	return s.snapshotLocked(), nil
}

// SubmitForm sends the payment and starts polling on success. Gateway
// failures land in the error view and are not returned.
func (s *Session) SubmitForm(ctx context.Context, method model.PaymentMethod, form model.FormValues) error {
	s.mu.Lock()
	if err := s.usableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	view, ok := model.FormView(method)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: unsupported method %q", domainErrors.ErrInvalidForm, method)
	}
	if s.view != view {
		err := s.transitionErrorLocked("submit")
		s.mu.Unlock()
		return err
	}

	s.form = form
	if method == model.PaymentMethodCard {
		s.network = usecase.ClassifyCardNetwork(form.CardNumber)
	}

	req, err := usecase.BuildPaymentRequest(s.orderID, method, form)
	if err != nil {
		s.touchLocked()
		s.mu.Unlock()
		return err
	}

	s.method = method
	s.generation++
	generation := s.generation
	s.setViewLocked(model.ViewProcessing)
	s.recordLocked()
	s.mu.Unlock()

	// The payment may be created even if the caller goes away, so the
	// request outlives ctx and is bounded by the gateway client timeout.
	paymentID, err := s.deps.Gateway.SubmitPayment(context.WithoutCancel(ctx), req)

	s.mu.Lock()
	if s.closed || generation != s.generation {
		s.mu.Unlock()
		s.logger.Info("discarding stale submission result", slog.String("payment_id", paymentID))
		return nil
	}

	if err != nil {
		s.logger.Warn("payment submission failed", slog.String("order_id", s.orderID), slog.String("error", err.Error()))
		s.failLocked(err)
		s.recordLocked()
		s.mu.Unlock()
		s.deps.Notifier.Notify(s.baseCtx, model.SignalPaymentFailed)
		return nil
	}

	s.paymentID = paymentID
	s.startPollerLocked()
	s.recordLocked()
	s.mu.Unlock()
	return nil
}

// Retry recovers from the error view. After an order load failure it reloads
// the order; otherwise it returns to selection with the form cleared.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	if err := s.usableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.view != model.ViewError || s.loading {
		err := s.transitionErrorLocked("retry")
		s.mu.Unlock()
		return err
	}

	s.generation++
	s.method = ""
	s.form = model.FormValues{}
	s.network = ""
	s.paymentID = ""
	s.payment = nil

	if s.loadFailed && s.orderID != "" {
		s.loading = true
		orderID := s.orderID
		s.touchLocked()
		s.mu.Unlock()
		return s.loadOrder(ctx, orderID)
	}
	if s.loadFailed {
		s.recordLocked()
		s.mu.Unlock()
		return nil
	}

	s.errMessage = ""
	s.setViewLocked(model.ViewSelection)
	s.recordLocked()
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.opts.Now()
	return s.snapshotLocked()
}

// Close cancels polling. Outcomes arriving afterwards are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.generation++
	poller := s.poller
	s.poller = nil
	s.mu.Unlock()

	if poller != nil {
		poller.Stop()
	}
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// IdleSince returns the last time the payer touched the session.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// resumePolling restarts polling for a restored in-flight session.
func (s *Session) resumePolling() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.view != model.ViewProcessing || s.paymentID == "" {
		return
	}
	s.generation++
	s.startPollerLocked()
}

func (s *Session) startPollerLocked() {
	s.poller = StartPoller(
		s.baseCtx,
		s.deps.Gateway,
		s.paymentID,
		s.generation,
		s.opts.Poll,
		s.deps.Gateway.DeclineFallback(),
		s.handleOutcome,
		s.logger,
	)
}

func (s *Session) handleOutcome(o Outcome) {
	s.mu.Lock()
	if s.closed || o.Generation != s.generation || s.view != model.ViewProcessing {
		s.mu.Unlock()
		s.logger.Debug("discarding stale poll outcome", slog.Uint64("generation", o.Generation))
		return
	}
	s.poller = nil

	signal := model.SignalPaymentComplete
	if o.Err != nil {
		signal = model.SignalPaymentFailed
		if o.Record != nil {
			s.payment = o.Record
		}
		s.logger.Info("payment not completed", slog.String("payment_id", s.paymentID), slog.String("error", o.Err.Error()))
		s.failLocked(o.Err)
	} else {
		s.payment = o.Record
		s.logger.Info("payment completed", slog.String("payment_id", s.paymentID))
		s.setViewLocked(model.ViewSuccess)
	}
	s.recordLocked()
	s.mu.Unlock()

	s.deps.Notifier.Notify(s.baseCtx, signal)
}

func (s *Session) usableLocked() error {
	if s.closed {
		return fmt.Errorf("%w: session closed", domainErrors.ErrSessionNotFound)
	}
	return nil
}

func (s *Session) transitionErrorLocked(action string) error {
	return fmt.Errorf("%w: cannot %s from %s", domainErrors.ErrInvalidTransition, action, s.view)
}

func (s *Session) failLoadLocked(err error) {
	s.loadFailed = true
	s.failLocked(err)
}

func (s *Session) failLocked(err error) {
	s.errMessage = domainErrors.UserMessage(err)
	s.setViewLocked(model.ViewError)
}

func (s *Session) setViewLocked(view model.ViewState) {
	s.view = view
	s.touchLocked()
}

func (s *Session) touchLocked() {
	now := s.opts.Now()
	s.updatedAt = now
	s.lastSeen = now
}

func (s *Session) recordLocked() {
	if err := s.deps.Recorder.Record(s.baseCtx, s.snapshotLocked()); err != nil {
		s.logger.Error("record session snapshot failed", slog.String("error", err.Error()))
	}
}

func (s *Session) snapshotLocked() model.Snapshot {
	snap := model.Snapshot{
		SessionID:    s.id,
		View:         s.view,
		OrderID:      s.orderID,
		Method:       s.method,
		Form:         s.form,
		CardNetwork:  s.network,
		PaymentID:    s.paymentID,
		ErrorMessage: s.errMessage,
		CreatedAt:    s.createdAt,
		UpdatedAt:    s.updatedAt,
	}
	if s.order != nil {
		order := *s.order
		snap.Order = &order
	}
	if s.payment != nil {
		payment := *s.payment
		snap.Payment = &payment
	}
	return snap
}

// restoreSession rebuilds a session from a persisted snapshot.
func restoreSession(baseCtx context.Context, snap model.Snapshot, deps Dependencies, opts Options) *Session {
	s := NewSession(baseCtx, snap.SessionID, deps, opts)
	s.initialized = true
	s.view = snap.View
	s.orderID = snap.OrderID
	s.method = snap.Method
	s.paymentID = snap.PaymentID
	s.errMessage = snap.ErrorMessage
	if snap.Order != nil {
		order := *snap.Order
		s.order = &order
	}
	if !snap.CreatedAt.IsZero() {
		s.createdAt = snap.CreatedAt
	}
	if !snap.UpdatedAt.IsZero() {
		s.updatedAt = snap.UpdatedAt
	}
	return s
}

package checkout

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	domainErrors "github.com/polkiloo/checkout/internal/domain/errors"
	"github.com/polkiloo/checkout/internal/domain/model"
)

const defaultPollInterval = 2 * time.Second

// PollPolicy bounds and paces status polling. The zero value polls every two
// seconds forever.
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int
	MaxElapsed  time.Duration
	Multiplier  float64
	MaxInterval time.Duration
}

func (p PollPolicy) backOff() backoff.BackOff {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval
	b.RandomizationFactor = 0
	b.Multiplier = multiplier
	b.MaxInterval = max(p.MaxInterval, interval)
	b.MaxElapsedTime = max(p.MaxElapsed, 0)
	b.Reset()

	if p.MaxAttempts > 0 {
		return backoff.WithMaxRetries(b, uint64(p.MaxAttempts))
	}
	return b
}

// Outcome is the terminal result of one poll cycle.
type Outcome struct {
	Generation uint64
	Record     *model.PaymentRecord
	Err        error
}

// Poller checks a payment on a schedule until it reaches a terminal state.
// Requests never overlap: the next wait starts after the previous response.
type Poller struct {
	checker    StatusChecker
	paymentID  string
	generation uint64
	policy     PollPolicy
	fallback   string
	deliver    func(Outcome)
	logger     *slog.Logger

	cancel   context.CancelFunc
	stopOnce sync.Once
	done     chan struct{}

	mu       sync.Mutex
	attempts int
}

// StartPoller launches a poll cycle tagged with generation. deliver is called
// at most once, with the terminal outcome; it is not called after Stop or
// cancellation of ctx.
func StartPoller(ctx context.Context, checker StatusChecker, paymentID string, generation uint64, policy PollPolicy, fallback string, deliver func(Outcome), logger *slog.Logger) *Poller {
	runCtx, cancel := context.WithCancel(ctx)
	p := &Poller{
		checker:    checker,
		paymentID:  paymentID,
		generation: generation,
		policy:     policy,
		fallback:   fallback,
		deliver:    deliver,
		logger:     logger,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	go p.run(runCtx)
	return p
}

// Stop cancels the cycle. It is safe to call more than once and from any goroutine.
func (p *Poller) Stop() {
	p.stopOnce.Do(p.cancel)
}

// Done is closed once the poll goroutine has exited and its timer is released.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// Attempts reports how many status requests were issued so far.
func (p *Poller) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)
	defer p.Stop()

	schedule := p.policy.backOff()
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		wait := schedule.NextBackOff()
		if wait == backoff.Stop {
			p.finish(ctx, Outcome{Err: &domainErrors.PollingExhaustedError{PaymentID: p.paymentID, Attempts: p.Attempts()}})
			return
		}

		if timer == nil {
			timer = time.NewTimer(wait)
		} else {
			timer.Reset(wait)
		}

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		p.mu.Lock()
		p.attempts++
		p.mu.Unlock()

		record, err := p.checker.PaymentStatus(ctx, p.paymentID)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			var transportErr *domainErrors.PollingTransportError
			if !errors.As(err, &transportErr) {
				err = &domainErrors.PollingTransportError{PaymentID: p.paymentID, Err: err}
			}
			p.finish(ctx, Outcome{Err: err})
			return
		}

		switch record.Status {
		case model.PaymentStatusSuccess:
			p.finish(ctx, Outcome{Record: record})
			return
		case model.PaymentStatusFailed:
			description := record.ErrorDescription
			if description == "" {
				description = p.fallback
			}
			p.finish(ctx, Outcome{Record: record, Err: &domainErrors.BankDeclineError{PaymentID: p.paymentID, Description: description}})
			return
		default:
			p.logger.Debug("payment still pending", slog.String("payment_id", p.paymentID), slog.String("status", string(record.Status)))
		}
	}
}

func (p *Poller) finish(ctx context.Context, outcome Outcome) {
	if ctx.Err() != nil {
		return
	}
	outcome.Generation = p.generation
	p.deliver(outcome)
}

package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oaramirez/grocerpos/pkg/enums"
	pkgerrors "github.com/oaramirez/grocerpos/pkg/errors"
	"github.com/oaramirez/grocerpos/pkg/logger"
	"github.com/oaramirez/grocerpos/pkg/metrics"
	"github.com/oaramirez/grocerpos/pkg/posapi"
	"github.com/oaramirez/grocerpos/pkg/validate"
)

type transactionAPI interface {
	CreateTransaction(ctx context.Context, payload posapi.PendingTransaction) (*posapi.TransactionCreated, error)
	GetReceipt(ctx context.Context, transactionID int64) (*posapi.Receipt, error)
}

type catalogReloader interface {
	Load(ctx context.Context) error
}

// Result reports a committed sale. Receipt is nil when the follow-up fetch
// failed; the sale is committed either way and ReceiptErr carries the
// distinct RECEIPT_UNAVAILABLE outcome.
type Result struct {
	TransactionID int64
	Receipt       *posapi.Receipt
	ReceiptErr    error
}

// Service drives the submit state machine: Idle -> Submitting ->
// {Succeeded, Failed} -> Idle once acknowledged.
type Service struct {
	api     transactionAPI
	catalog catalogReloader
	logger  *logger.Logger
	metrics *metrics.POSMetrics

	mu    sync.Mutex
	state enums.CheckoutState
}

// NewService builds the checkout orchestrator.
func NewService(api transactionAPI, catalog catalogReloader, logg *logger.Logger, m *metrics.POSMetrics) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("transaction api required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reloader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		api:     api,
		catalog: catalog,
		logger:  logg,
		metrics: m,
		state:   enums.CheckoutStateIdle,
	}, nil
}

// State reports the current submit state.
func (s *Service) State() enums.CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Acknowledge returns a terminal state to Idle.
func (s *Service) Acknowledge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == enums.CheckoutStateSucceeded || s.state == enums.CheckoutStateFailed {
		s.state = enums.CheckoutStateIdle
	}
}

func (s *Service) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == enums.CheckoutStateSubmitting {
		return false
	}
	s.state = enums.CheckoutStateSubmitting
	return true
}

func (s *Service) end(state enums.CheckoutState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// Submit commits the session. An empty cart is a no-op with no request
// issued and no state change; a trigger while a submission is in flight is
// ignored the same way. Both return (nil, nil).
//
// On success the session and the catalog cache are refreshed and the cart,
// discount, and customer are cleared together. On failure everything is
// preserved so the cashier can retry.
func (s *Service) Submit(ctx context.Context, session *Session, method enums.PaymentMethod) (*Result, error) {
	if session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session required")
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported payment method %q", method))
	}
	if session.IsEmpty() {
		return nil, nil
	}
	if !s.begin() {
		return nil, nil
	}

	ctx = s.logger.WithSessionID(ctx, session.ID())
	payload := session.BuildPending(method)
	if err := validate.Struct(payload); err != nil {
		s.end(enums.CheckoutStateFailed)
		return nil, err
	}

	start := time.Now()
	created, err := s.api.CreateTransaction(ctx, payload)
	if err != nil {
		s.metrics.IncCheckoutFailure(method.String())
		s.logger.Error(s.logger.WithField(ctx, "error_dump", pkgerrors.Dump(err)), "checkout.create_failed", err)
		s.end(enums.CheckoutStateFailed)
		return nil, err
	}

	result := &Result{TransactionID: created.ID}
	ctx = s.logger.WithTransactionID(ctx, created.ID)

	receipt, err := s.api.GetReceipt(ctx, created.ID)
	if err != nil {
		// The sale is committed; a missing receipt never rolls it back.
		result.ReceiptErr = pkgerrors.Wrap(pkgerrors.CodeReceiptUnavailable, err,
			fmt.Sprintf("receipt for sale #%d unavailable", created.ID))
		s.logger.Warn(ctx, "checkout.receipt_fetch_failed")
	} else {
		result.Receipt = receipt
	}

	session.Reset()

	if err := s.catalog.Load(ctx); err != nil {
		// Stock changed server-side; a failed refresh only stales the cache.
		s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "checkout.catalog_reload_failed")
	}

	s.metrics.ObserveCheckoutDuration(method.String(), time.Since(start))
	s.metrics.IncCheckoutSuccess(method.String())
	s.logger.Info(ctx, "checkout.committed")
	s.end(enums.CheckoutStateSucceeded)
	return result, nil
}

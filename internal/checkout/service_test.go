package checkout

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/oaramirez/grocerpos/internal/pricing"
	"github.com/oaramirez/grocerpos/pkg/enums"
	pkgerrors "github.com/oaramirez/grocerpos/pkg/errors"
	"github.com/oaramirez/grocerpos/pkg/logger"
	"github.com/oaramirez/grocerpos/pkg/posapi"
)

type stubAPI struct {
	mu           sync.Mutex
	createErr    error
	receiptErr   error
	receipt      *posapi.Receipt
	createCalls  int
	receiptCalls int
	lastPayload  posapi.PendingTransaction
	blockCreate  chan struct{}
}

func (s *stubAPI) CreateTransaction(ctx context.Context, payload posapi.PendingTransaction) (*posapi.TransactionCreated, error) {
	s.mu.Lock()
	s.createCalls++
	s.lastPayload = payload
	block := s.blockCreate
	s.mu.Unlock()

	if block != nil {
		<-block
	}
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &posapi.TransactionCreated{ID: 42}, nil
}

func (s *stubAPI) GetReceipt(ctx context.Context, transactionID int64) (*posapi.Receipt, error) {
	s.mu.Lock()
	s.receiptCalls++
	s.mu.Unlock()

	if s.receiptErr != nil {
		return nil, s.receiptErr
	}
	if s.receipt != nil {
		return s.receipt, nil
	}
	return &posapi.Receipt{TransactionID: transactionID}, nil
}

type stubReloader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubReloader) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

func newTestService(t *testing.T, api *stubAPI, reloader *stubReloader) *Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(api, reloader, logg, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func loadedSession(t *testing.T) *Session {
	t.Helper()
	session := NewSession(pricing.DefaultTaxRate)
	if err := session.AddProduct(session.Epoch(), testProduct(1, "Milk", "3.50", 10)); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if err := session.SetDiscount(pricing.Discount{Type: enums.DiscountTypePercentage, Value: dec("10")}); err != nil {
		t.Fatalf("seed discount: %v", err)
	}
	return session
}

func TestSubmitEmptyCartIsNoop(t *testing.T) {
	api := &stubAPI{}
	reloader := &stubReloader{}
	svc := newTestService(t, api, reloader)
	session := NewSession(pricing.DefaultTaxRate)

	result, err := svc.Submit(context.Background(), session, enums.PaymentMethodCash)
	if result != nil || err != nil {
		t.Fatalf("expected silent no-op, got %+v err=%v", result, err)
	}
	if api.createCalls != 0 {
		t.Fatal("no request may be issued for an empty cart")
	}
	if svc.State() != enums.CheckoutStateIdle {
		t.Fatalf("state must stay idle, got %s", svc.State())
	}
}

func TestSubmitSuccessClearsSessionAndReloadsCatalog(t *testing.T) {
	api := &stubAPI{}
	reloader := &stubReloader{}
	svc := newTestService(t, api, reloader)
	session := loadedSession(t)
	epochBefore := session.Epoch()

	result, err := svc.Submit(context.Background(), session, enums.PaymentMethodCash)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result == nil || result.TransactionID != 42 || result.Receipt == nil {
		t.Fatalf("unexpected result %+v", result)
	}

	if !session.IsEmpty() {
		t.Fatal("cart must be cleared on success")
	}
	if session.Discount().Type != enums.DiscountTypeNone {
		t.Fatal("discount must be cleared on success")
	}
	if session.Customer() != nil {
		t.Fatal("customer must be cleared on success")
	}
	if session.Epoch() != epochBefore+1 {
		t.Fatal("epoch must advance so stale lookups are fenced")
	}
	if reloader.calls != 1 {
		t.Fatalf("expected one catalog reload, got %d", reloader.calls)
	}
	if svc.State() != enums.CheckoutStateSucceeded {
		t.Fatalf("expected succeeded state, got %s", svc.State())
	}
	svc.Acknowledge()
	if svc.State() != enums.CheckoutStateIdle {
		t.Fatalf("acknowledge must return to idle, got %s", svc.State())
	}
}

func TestSubmitFailurePreservesSession(t *testing.T) {
	api := &stubAPI{createErr: pkgerrors.New(pkgerrors.CodeValidation, "Not enough stock for Milk. Available: 1")}
	reloader := &stubReloader{}
	svc := newTestService(t, api, reloader)
	session := loadedSession(t)

	result, err := svc.Submit(context.Background(), session, enums.PaymentMethodCash)
	if result != nil {
		t.Fatalf("expected no result, got %+v", result)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Message() != "Not enough stock for Milk. Available: 1" {
		t.Fatalf("server reason lost: %v", err)
	}

	if session.IsEmpty() {
		t.Fatal("cart must survive a failed checkout")
	}
	if session.Discount().Type != enums.DiscountTypePercentage {
		t.Fatal("discount must survive a failed checkout")
	}
	if reloader.calls != 0 {
		t.Fatal("catalog must not reload on failure")
	}
	if svc.State() != enums.CheckoutStateFailed {
		t.Fatalf("expected failed state, got %s", svc.State())
	}
}

func TestSubmitReceiptFetchFailureStillCommits(t *testing.T) {
	api := &stubAPI{receiptErr: pkgerrors.New(pkgerrors.CodeDependency, "timeout")}
	reloader := &stubReloader{}
	svc := newTestService(t, api, reloader)
	session := loadedSession(t)

	result, err := svc.Submit(context.Background(), session, enums.PaymentMethodCard)
	if err != nil {
		t.Fatalf("a missing receipt must not fail the checkout: %v", err)
	}
	if result.Receipt != nil {
		t.Fatal("no receipt should be attached")
	}
	if !pkgerrors.IsCode(result.ReceiptErr, pkgerrors.CodeReceiptUnavailable) {
		t.Fatalf("expected RECEIPT_UNAVAILABLE, got %v", result.ReceiptErr)
	}
	if !session.IsEmpty() {
		t.Fatal("sale is committed; session must clear")
	}
	if reloader.calls != 1 {
		t.Fatal("catalog reload must still run")
	}
}

func TestSubmitIgnoredWhileInFlight(t *testing.T) {
	block := make(chan struct{})
	api := &stubAPI{blockCreate: block}
	reloader := &stubReloader{}
	svc := newTestService(t, api, reloader)
	session := loadedSession(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := svc.Submit(context.Background(), session, enums.PaymentMethodCash); err != nil {
			t.Errorf("first submit failed: %v", err)
		}
	}()

	// Wait for the first submission to enter the in-flight section.
	deadline := time.Now().Add(2 * time.Second)
	for svc.State() != enums.CheckoutStateSubmitting {
		if time.Now().After(deadline) {
			t.Fatal("first submission never reached the submitting state")
		}
		time.Sleep(time.Millisecond)
	}

	result, err := svc.Submit(context.Background(), session, enums.PaymentMethodCash)
	if result != nil || err != nil {
		t.Fatalf("re-trigger while submitting must be a silent no-op, got %+v err=%v", result, err)
	}

	close(block)
	<-done

	if api.createCalls != 1 {
		t.Fatalf("expected exactly one create request, got %d", api.createCalls)
	}
}

func TestSubmitRejectsUnknownPaymentMethod(t *testing.T) {
	svc := newTestService(t, &stubAPI{}, &stubReloader{})
	session := loadedSession(t)

	_, err := svc.Submit(context.Background(), session, enums.PaymentMethod("crypto"))
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmitCatalogReloadFailureDoesNotFailCheckout(t *testing.T) {
	api := &stubAPI{}
	reloader := &stubReloader{err: pkgerrors.New(pkgerrors.CodeDependency, "backend down")}
	svc := newTestService(t, api, reloader)
	session := loadedSession(t)

	result, err := svc.Submit(context.Background(), session, enums.PaymentMethodCash)
	if err != nil || result == nil {
		t.Fatalf("reload failure must not fail the commit: %v", err)
	}
}

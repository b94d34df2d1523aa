package checkout

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"agendify/models"
	"agendify/services/payment"

	"go.uber.org/zap"
)

// fakeGateway is a scriptable payment.Gateway for state-machine tests.
type fakeGateway struct {
	mu      sync.Mutex
	settled bool
	pixErr  error
	cardErr error

	// pixGate, when set, holds CreatePixCharge until the channel closes.
	pixGate chan struct{}

	settleCalls atomic.Int32
}

func (f *fakeGateway) CreatePixCharge(ctx context.Context, req models.PixChargeRequest) (*models.PixCharge, error) {
	if f.pixGate != nil {
		<-f.pixGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pixErr != nil {
		return nil, f.pixErr
	}
	return &models.PixCharge{ChargeID: "pix_1", EncodedImage: "img", Payload: "payload"}, nil
}

func (f *fakeGateway) CreateCardCharge(ctx context.Context, req models.CardChargeRequest) (*models.CardCharge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cardErr != nil {
		return nil, f.cardErr
	}
	return &models.CardCharge{ChargeID: "card_1", Status: "CONFIRMED"}, nil
}

func (f *fakeGateway) ChargeSettled(ctx context.Context, chargeID string) (bool, error) {
	f.settleCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled, nil
}

func (f *fakeGateway) markSettled() {
	f.mu.Lock()
	f.settled = true
	f.mu.Unlock()
}

func validCard() models.CardDetails {
	return models.CardDetails{
		Number:              "5162306219378829",
		CCV:                 "318",
		HolderName:          "ANA SOUZA",
		ExpiryMonth:         "05",
		ExpiryYear:          "2030",
		HolderPostalCode:    "89223-005",
		HolderAddressNumber: "277",
	}
}

func newTestOrchestrator(gw payment.Gateway, onSettled func(models.BookingSession)) *Orchestrator {
	session := models.BookingSession{
		SessionID: "sess_1",
		Item:      models.ItemDescriptor{Kind: models.ItemLesson, Professor: "Marina"},
		Date:      "2026-09-07",
		Hour:      "09:00",
		Buyer:     models.Buyer{Name: "Ana Souza", Email: "ana@example.com", CpfCnpj: "12345678909"},
		Amount:    80,
	}
	policy := PollPolicy{Interval: 5 * time.Millisecond}
	return NewOrchestrator(session, gw, policy, onSettled, zap.NewNop())
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}

func TestPixCheckoutSettles(t *testing.T) {
	gw := &fakeGateway{}
	var settledSessions atomic.Int32
	var last atomic.Value
	orch := newTestOrchestrator(gw, func(s models.BookingSession) {
		settledSessions.Add(1)
		last.Store(s)
	})

	session, err := orch.SelectPix(context.Background())
	if err != nil {
		t.Fatalf("SelectPix: %v", err)
	}
	if session.State != models.StateAwaitingSettlement {
		t.Fatalf("state = %s, want AWAITING_SETTLEMENT", session.State)
	}
	if session.PixPayload != "payload" || session.PixEncodedImage != "img" {
		t.Fatalf("QR fields not captured: %+v", session)
	}

	gw.markSettled()
	waitFor(t, func() bool { return orch.Session().State == models.StateConfirmed })

	if got := settledSessions.Load(); got != 1 {
		t.Fatalf("onSettled fired %d times, want 1", got)
	}
	final := last.Load().(models.BookingSession)
	if final.GatewayChargeID != "pix_1" || final.Method != models.MethodPix {
		t.Fatalf("unexpected settled session: %+v", final)
	}
}

func TestPixFailureReturnsToMethodSelection(t *testing.T) {
	gw := &fakeGateway{pixErr: &payment.GatewayError{StatusCode: http.StatusBadRequest, Detail: "invalid cpfCnpj"}}
	orch := newTestOrchestrator(gw, nil)

	session, err := orch.SelectPix(context.Background())
	if err == nil {
		t.Fatalf("expected gateway error")
	}
	if session.State != models.StateAwaitingMethod {
		t.Fatalf("state = %s, want AWAITING_METHOD", session.State)
	}
	failure := orch.Failure()
	if failure == nil || failure.Message != "invalid cpfCnpj" {
		t.Fatalf("failure detail not recorded: %+v", failure)
	}

	// The buyer can retry after the gateway becomes healthy again.
	gw.mu.Lock()
	gw.pixErr = nil
	gw.mu.Unlock()
	session, err = orch.SelectPix(context.Background())
	if err != nil {
		t.Fatalf("retry SelectPix: %v", err)
	}
	if session.State != models.StateAwaitingSettlement {
		t.Fatalf("retry state = %s, want AWAITING_SETTLEMENT", session.State)
	}
	orch.Cancel()
}

func TestCancelStopsPollingForGood(t *testing.T) {
	gw := &fakeGateway{}
	orch := newTestOrchestrator(gw, func(models.BookingSession) {
		t.Error("onSettled fired on a cancelled session")
	})

	if _, err := orch.SelectPix(context.Background()); err != nil {
		t.Fatalf("SelectPix: %v", err)
	}

	session, err := orch.Cancel()
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if session.State != models.StateCancelled {
		t.Fatalf("state = %s, want CANCELLED", session.State)
	}

	// Even if the charge settles afterwards, the dead session must not
	// confirm and the gateway must not keep being polled.
	gw.markSettled()
	calls := gw.settleCalls.Load()
	time.Sleep(50 * time.Millisecond)
	if orch.Session().State != models.StateCancelled {
		t.Fatalf("cancelled session changed state to %s", orch.Session().State)
	}
	if after := gw.settleCalls.Load(); after != calls {
		t.Fatalf("gateway polled %d more times after cancel", after-calls)
	}

	if _, err := orch.Cancel(); !errors.Is(err, ErrSessionTerminal) {
		t.Fatalf("second Cancel = %v, want ErrSessionTerminal", err)
	}
}

func TestCancelDuringSubmissionLandsCancelled(t *testing.T) {
	gw := &fakeGateway{pixGate: make(chan struct{})}
	orch := newTestOrchestrator(gw, func(models.BookingSession) {
		t.Error("onSettled fired on a cancelled session")
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = orch.SelectPix(context.Background())
	}()
	waitFor(t, func() bool { return orch.Session().State == models.StateSubmitting })

	// The gateway call cannot be interrupted, so the cancel is accepted and
	// applied once the call returns.
	session, err := orch.Cancel()
	if err != nil {
		t.Fatalf("Cancel during submission: %v", err)
	}
	if session.State != models.StateSubmitting {
		t.Fatalf("state = %s, want SUBMITTING while the charge is pending", session.State)
	}

	close(gw.pixGate)
	<-done
	waitFor(t, func() bool { return orch.Session().State == models.StateCancelled })

	calls := gw.settleCalls.Load()
	gw.markSettled()
	time.Sleep(50 * time.Millisecond)
	if orch.Session().State != models.StateCancelled {
		t.Fatalf("cancelled session changed state to %s", orch.Session().State)
	}
	if after := gw.settleCalls.Load(); after != calls {
		t.Fatalf("gateway polled %d more times after cancel", after-calls)
	}

	if _, err := orch.Cancel(); !errors.Is(err, ErrSessionTerminal) {
		t.Fatalf("Cancel after deferred cancel = %v, want ErrSessionTerminal", err)
	}
}

func TestCardCheckoutConfirms(t *testing.T) {
	gw := &fakeGateway{}
	var settled atomic.Int32
	orch := newTestOrchestrator(gw, func(models.BookingSession) { settled.Add(1) })

	session, err := orch.SelectCard()
	if err != nil {
		t.Fatalf("SelectCard: %v", err)
	}
	if session.State != models.StateCardForm {
		t.Fatalf("state = %s, want CARD_FORM", session.State)
	}

	session, err = orch.SubmitCard(context.Background(), validCard())
	if err != nil {
		t.Fatalf("SubmitCard: %v", err)
	}
	if session.State != models.StateConfirmed {
		t.Fatalf("state = %s, want CONFIRMED", session.State)
	}
	if session.GatewayChargeID != "card_1" {
		t.Fatalf("charge id = %q", session.GatewayChargeID)
	}
	if got := settled.Load(); got != 1 {
		t.Fatalf("onSettled fired %d times, want 1", got)
	}
}

func TestCardRejectionReturnsToForm(t *testing.T) {
	gw := &fakeGateway{cardErr: &payment.GatewayError{StatusCode: http.StatusPaymentRequired, Detail: "insufficient funds"}}
	orch := newTestOrchestrator(gw, nil)

	if _, err := orch.SelectCard(); err != nil {
		t.Fatalf("SelectCard: %v", err)
	}
	session, err := orch.SubmitCard(context.Background(), validCard())
	if err == nil {
		t.Fatalf("expected rejection")
	}
	if session.State != models.StateCardForm {
		t.Fatalf("state = %s, want CARD_FORM", session.State)
	}
	if failure := orch.Failure(); failure == nil || failure.Message != "insufficient funds" {
		t.Fatalf("failure detail not recorded: %+v", failure)
	}
}

func TestCardValidationDoesNotTransition(t *testing.T) {
	gw := &fakeGateway{}
	orch := newTestOrchestrator(gw, nil)

	if _, err := orch.SelectCard(); err != nil {
		t.Fatalf("SelectCard: %v", err)
	}
	card := validCard()
	card.Number = ""
	session, err := orch.SubmitCard(context.Background(), card)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if session.State != models.StateCardForm {
		t.Fatalf("state = %s, want CARD_FORM", session.State)
	}
}

func TestIllegalTransitions(t *testing.T) {
	gw := &fakeGateway{}
	orch := newTestOrchestrator(gw, nil)

	if _, err := orch.SubmitCard(context.Background(), validCard()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("SubmitCard from AWAITING_METHOD = %v, want ErrInvalidTransition", err)
	}
	if _, err := orch.BackToMethods(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("BackToMethods from AWAITING_METHOD = %v, want ErrInvalidTransition", err)
	}

	if _, err := orch.SelectCard(); err != nil {
		t.Fatalf("SelectCard: %v", err)
	}
	if _, err := orch.SelectPix(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("SelectPix from CARD_FORM = %v, want ErrInvalidTransition", err)
	}

	if _, err := orch.BackToMethods(); err != nil {
		t.Fatalf("BackToMethods: %v", err)
	}
	if got := orch.Session().State; got != models.StateAwaitingMethod {
		t.Fatalf("state = %s, want AWAITING_METHOD", got)
	}
}

func TestTerminalSessionRejectsEverything(t *testing.T) {
	gw := &fakeGateway{}
	orch := newTestOrchestrator(gw, nil)

	if _, err := orch.SelectCard(); err != nil {
		t.Fatalf("SelectCard: %v", err)
	}
	if _, err := orch.SubmitCard(context.Background(), validCard()); err != nil {
		t.Fatalf("SubmitCard: %v", err)
	}

	if _, err := orch.SelectPix(context.Background()); !errors.Is(err, ErrSessionTerminal) {
		t.Fatalf("SelectPix after CONFIRMED = %v, want ErrSessionTerminal", err)
	}
	if _, err := orch.Cancel(); !errors.Is(err, ErrSessionTerminal) {
		t.Fatalf("Cancel after CONFIRMED = %v, want ErrSessionTerminal", err)
	}
}

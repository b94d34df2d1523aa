package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"agendify/models"
	"agendify/services/payment"

	"go.uber.org/zap"
)

// FailureDetail carries the last gateway rejection so handlers can surface
// it to the buyer alongside the session state.
type FailureDetail struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Orchestrator drives one BookingSession through the payment state machine.
// Every transition runs under the session mutex, and at most one transition
// executes at a time; a second caller gets ErrTransitionInFlight instead of
// queueing behind a slow gateway call.
type Orchestrator struct {
	gateway payment.Gateway
	policy  PollPolicy
	logger  *zap.Logger

	// onSettled is invoked once, outside the mutex, when the session
	// reaches CONFIRMED. The service uses it to persist the booking.
	onSettled func(session models.BookingSession)

	mu              sync.Mutex
	inFlight        bool
	cancelRequested bool
	session         models.BookingSession
	failure         *FailureDetail
	poller          *SettlementPoller
}

// NewOrchestrator wraps a fresh session in AWAITING_METHOD.
func NewOrchestrator(session models.BookingSession, gateway payment.Gateway, policy PollPolicy, onSettled func(models.BookingSession), logger *zap.Logger) *Orchestrator {
	now := time.Now()
	session.State = models.StateAwaitingMethod
	session.CreatedAt = now
	session.UpdatedAt = now
	return &Orchestrator{
		gateway:   gateway,
		policy:    policy,
		logger:    logger,
		onSettled: onSettled,
		session:   session,
	}
}

// Session returns a snapshot of the current session value.
func (o *Orchestrator) Session() models.BookingSession {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// Failure returns the last gateway rejection, if any.
func (o *Orchestrator) Failure() *FailureDetail {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failure == nil {
		return nil
	}
	f := *o.failure
	return &f
}

// begin claims the transition slot and checks the source state. The caller
// must pair it with end.
func (o *Orchestrator) begin(allowed ...models.CheckoutState) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight {
		return ErrTransitionInFlight
	}
	if o.session.State.Terminal() {
		return ErrSessionTerminal
	}
	for _, s := range allowed {
		if o.session.State == s {
			o.inFlight = true
			return nil
		}
	}
	return ErrInvalidTransition
}

// end releases the transition slot and applies a cancel that arrived while
// the transition was running. The cancel only lands if the transition left
// the session in a non-terminal state; a card charge that already confirmed
// stays confirmed.
func (o *Orchestrator) end() {
	o.mu.Lock()
	o.inFlight = false
	if !o.cancelRequested {
		o.mu.Unlock()
		return
	}
	o.cancelRequested = false
	if o.session.State.Terminal() {
		o.mu.Unlock()
		return
	}
	o.session.State = models.StateCancelled
	o.session.UpdatedAt = time.Now()
	poller := o.poller
	sessionID := o.session.SessionID
	o.mu.Unlock()

	if poller != nil {
		poller.Stop()
		poller.Wait()
	}
	o.logger.Info("checkout cancelled after pending transition", zap.String("sessionId", sessionID))
}

func (o *Orchestrator) setState(state models.CheckoutState) {
	o.mu.Lock()
	o.session.State = state
	o.session.UpdatedAt = time.Now()
	o.mu.Unlock()
}

// Rebind replaces the item, slot, buyer details and amount of a session
// that has not committed to a charge yet. A buyer who retries for a
// different slot must not settle against the old one.
func (o *Orchestrator) Rebind(item models.ItemDescriptor, date, hour string, buyer models.Buyer, amount float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight {
		return ErrTransitionInFlight
	}
	switch o.session.State {
	case models.StateAwaitingMethod, models.StateCardForm:
	default:
		return ErrInvalidTransition
	}
	o.session.Item = item
	o.session.Date = date
	o.session.Hour = hour
	o.session.Buyer = buyer
	o.session.Amount = amount
	o.session.UpdatedAt = time.Now()
	return nil
}

// SelectPix asks the gateway for a PIX charge. On success the session holds
// the QR code and moves to AWAITING_SETTLEMENT with the poller running; on
// gateway failure it falls back to AWAITING_METHOD so the buyer can retry
// or pick another method.
func (o *Orchestrator) SelectPix(ctx context.Context) (models.BookingSession, error) {
	if err := o.begin(models.StateAwaitingMethod); err != nil {
		return o.Session(), err
	}
	defer o.end()

	o.mu.Lock()
	o.session.Method = models.MethodPix
	req := models.PixChargeRequest{Buyer: o.session.Buyer, Amount: o.session.Amount}
	o.session.State = models.StateSubmitting
	o.session.UpdatedAt = time.Now()
	o.mu.Unlock()

	charge, err := o.gateway.CreatePixCharge(ctx, req)
	if err != nil {
		o.recordFailure(err)
		o.setState(models.StateAwaitingMethod)
		return o.Session(), err
	}

	o.mu.Lock()
	o.session.GatewayChargeID = charge.ChargeID
	o.session.PixEncodedImage = charge.EncodedImage
	o.session.PixPayload = charge.Payload
	o.session.State = models.StateAwaitingSettlement
	o.session.UpdatedAt = time.Now()
	o.poller = NewSettlementPoller(o.policy, o.logger)
	poller := o.poller
	chargeID := charge.ChargeID
	o.mu.Unlock()

	err = poller.Start(
		func(ctx context.Context) (bool, error) { return o.gateway.ChargeSettled(ctx, chargeID) },
		o.settle,
		o.exhaust,
	)
	if err != nil {
		// Only possible if the same poller were started twice, which the
		// state machine rules out. Log and keep the session waiting.
		o.logger.Error("failed to start settlement poller", zap.Error(err))
	}
	return o.Session(), nil
}

// SelectCard opens the card form. No gateway call happens yet.
func (o *Orchestrator) SelectCard() (models.BookingSession, error) {
	if err := o.begin(models.StateAwaitingMethod); err != nil {
		return o.Session(), err
	}
	defer o.end()

	o.mu.Lock()
	o.session.Method = models.MethodCard
	o.session.State = models.StateCardForm
	o.session.UpdatedAt = time.Now()
	o.mu.Unlock()
	return o.Session(), nil
}

// SubmitCard validates and submits the card. Success confirms the session
// immediately; a gateway rejection returns to CARD_FORM with the rejection
// detail preserved so the buyer can correct and resubmit.
func (o *Orchestrator) SubmitCard(ctx context.Context, card models.CardDetails) (models.BookingSession, error) {
	if err := card.Validate(); err != nil {
		return o.Session(), err
	}
	if err := o.begin(models.StateCardForm); err != nil {
		return o.Session(), err
	}
	defer o.end()

	o.mu.Lock()
	req := models.CardChargeRequest{Buyer: o.session.Buyer, Card: card, Amount: o.session.Amount}
	o.session.State = models.StateSubmitting
	o.session.UpdatedAt = time.Now()
	o.mu.Unlock()

	charge, err := o.gateway.CreateCardCharge(ctx, req)
	if err != nil {
		o.recordFailure(err)
		o.setState(models.StateCardForm)
		return o.Session(), err
	}

	o.mu.Lock()
	o.session.GatewayChargeID = charge.ChargeID
	o.session.State = models.StateConfirmed
	o.session.UpdatedAt = time.Now()
	snapshot := o.session
	o.mu.Unlock()

	o.logger.Info("card checkout confirmed",
		zap.String("sessionId", snapshot.SessionID),
		zap.String("chargeId", snapshot.GatewayChargeID))
	if o.onSettled != nil {
		o.onSettled(snapshot)
	}
	return snapshot, nil
}

// BackToMethods abandons the card form and returns to method selection.
func (o *Orchestrator) BackToMethods() (models.BookingSession, error) {
	if err := o.begin(models.StateCardForm); err != nil {
		return o.Session(), err
	}
	defer o.end()

	o.mu.Lock()
	o.session.Method = ""
	o.session.State = models.StateAwaitingMethod
	o.session.UpdatedAt = time.Now()
	o.mu.Unlock()
	return o.Session(), nil
}

// Cancel moves the session to CANCELLED and stops the poller. The poller is
// stopped after the state flips and outside the mutex; a tick that slipped
// in before Stop sees the terminal state in settle and does nothing, and
// once Stop returns no further tick can fire at all.
//
// A cancel that arrives while a gateway call is in flight cannot interrupt
// it, so it is recorded and applied by end as soon as the call returns,
// unless the call already confirmed the payment.
func (o *Orchestrator) Cancel() (models.BookingSession, error) {
	o.mu.Lock()
	if o.inFlight {
		o.cancelRequested = true
		session := o.session
		o.mu.Unlock()
		return session, nil
	}
	if o.session.State.Terminal() {
		session := o.session
		o.mu.Unlock()
		return session, ErrSessionTerminal
	}
	o.session.State = models.StateCancelled
	o.session.UpdatedAt = time.Now()
	poller := o.poller
	session := o.session
	o.mu.Unlock()

	if poller != nil {
		poller.Stop()
		poller.Wait()
	}
	o.logger.Info("checkout cancelled", zap.String("sessionId", session.SessionID))
	return session, nil
}

// settle runs on the poller goroutine when the charge is observed paid.
func (o *Orchestrator) settle() {
	o.mu.Lock()
	if o.session.State != models.StateAwaitingSettlement {
		o.mu.Unlock()
		return
	}
	o.session.State = models.StateConfirmed
	o.session.UpdatedAt = time.Now()
	snapshot := o.session
	o.mu.Unlock()

	o.logger.Info("pix checkout confirmed",
		zap.String("sessionId", snapshot.SessionID),
		zap.String("chargeId", snapshot.GatewayChargeID))
	if o.onSettled != nil {
		o.onSettled(snapshot)
	}
}

// exhaust runs when the poll policy gives up before settlement.
func (o *Orchestrator) exhaust() {
	o.mu.Lock()
	if o.session.State != models.StateAwaitingSettlement {
		o.mu.Unlock()
		return
	}
	o.session.State = models.StateFailed
	o.session.UpdatedAt = time.Now()
	o.failure = &FailureDetail{Message: "payment was not confirmed in time", At: time.Now()}
	snapshot := o.session
	o.mu.Unlock()

	o.logger.Warn("pix settlement poll exhausted",
		zap.String("sessionId", snapshot.SessionID),
		zap.String("chargeId", snapshot.GatewayChargeID))
}

func (o *Orchestrator) recordFailure(err error) {
	detail := err.Error()
	var gwErr *payment.GatewayError
	if errors.As(err, &gwErr) && gwErr.Detail != "" {
		detail = gwErr.Detail
	}
	o.mu.Lock()
	o.failure = &FailureDetail{Message: detail, At: time.Now()}
	o.mu.Unlock()
}

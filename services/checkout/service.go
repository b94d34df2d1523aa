package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	agendaRepo "agendify/database/repository/agenda"
	catalogRepo "agendify/database/repository/catalog"
	paymentRepo "agendify/database/repository/paymentrec"
	"agendify/models"
	"agendify/services/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUnknownProfessor is returned when a lesson checkout names a professor
// that does not exist in the catalog.
var ErrUnknownProfessor = errors.New("unknown professor")

// ReconcilePayload identifies a pending PIX charge for the background
// reconcile worker, which re-checks settlement with the gateway in case the
// in-process poller died with the server.
type ReconcilePayload struct {
	SessionID string  `json:"sessionId"`
	ChargeID  string  `json:"chargeId"`
	BuyerName string  `json:"buyerName"`
	Amount    float64 `json:"amount"`
}

// Reconciler schedules a deferred settlement re-check.
type Reconciler interface {
	EnqueueReconcile(ctx context.Context, payload ReconcilePayload) error
}

// StartRequest opens a checkout. Amount comes from the client the way the
// storefront computes it; for lessons the professor must exist.
type StartRequest struct {
	Buyer  models.Buyer
	Amount float64
	Item   models.ItemDescriptor
	Date   string // lessons only
	Hour   string // lessons only
}

// Service owns every live checkout. Sessions are indexed by session id and
// by buyer name, because the public API keys most operations on the name
// the buyer typed.
type Service struct {
	gateway     payment.Gateway
	store       *SessionStore
	policy      PollPolicy
	agendaRepo  agendaRepo.AgendaRepository
	paymentRepo paymentRepo.PaymentRepository
	catalogRepo catalogRepo.CatalogRepository
	reconciler  Reconciler
	logger      *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Orchestrator // by session id
	byBuyer  map[string]string        // buyer name -> session id
}

func NewService(
	gateway payment.Gateway,
	store *SessionStore,
	policy PollPolicy,
	agenda agendaRepo.AgendaRepository,
	payments paymentRepo.PaymentRepository,
	catalog catalogRepo.CatalogRepository,
	reconciler Reconciler,
	logger *zap.Logger,
) *Service {
	return &Service{
		gateway:     gateway,
		store:       store,
		policy:      policy,
		agendaRepo:  agenda,
		paymentRepo: payments,
		catalogRepo: catalog,
		reconciler:  reconciler,
		logger:      logger,
		sessions:    make(map[string]*Orchestrator),
		byBuyer:     make(map[string]string),
	}
}

// openSession returns the buyer's live orchestrator, creating one when none
// exists or the previous one reached a terminal state. One live session per
// buyer name at a time.
func (s *Service) openSession(ctx context.Context, req StartRequest) (*Orchestrator, error) {
	if err := req.Buyer.Validate(); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	if req.Item.Kind == models.ItemLesson && req.Item.Professor != "" {
		prof, err := s.catalogRepo.GetProfessorByName(ctx, req.Item.Professor)
		if err != nil {
			return nil, err
		}
		if prof == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProfessor, req.Item.Professor)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byBuyer[req.Buyer.Name]; ok {
		if orch, ok := s.sessions[id]; ok && !orch.Session().State.Terminal() {
			// A retry may carry a different slot, item or amount. Refresh
			// the session while it is still pre-charge so the settlement
			// books what the buyer actually asked for; once a charge is
			// pending, the session is committed and stays as is.
			switch orch.Session().State {
			case models.StateAwaitingMethod, models.StateCardForm:
				if err := orch.Rebind(req.Item, req.Date, req.Hour, req.Buyer, req.Amount); err != nil {
					return nil, err
				}
			}
			return orch, nil
		}
	}

	session := models.BookingSession{
		SessionID: uuid.New().String(),
		Item:      req.Item,
		Date:      req.Date,
		Hour:      req.Hour,
		Buyer:     req.Buyer,
		Amount:    req.Amount,
	}
	orch := NewOrchestrator(session, s.gateway, s.policy, s.persistSettled, s.logger)
	s.sessions[session.SessionID] = orch
	s.byBuyer[req.Buyer.Name] = session.SessionID
	return orch, nil
}

// StartPixCheckout opens (or resumes) the buyer's session and requests a
// PIX charge. The returned session carries the QR code on success.
func (s *Service) StartPixCheckout(ctx context.Context, req StartRequest) (models.BookingSession, error) {
	orch, err := s.openSession(ctx, req)
	if err != nil {
		return models.BookingSession{}, err
	}

	session, err := orch.SelectPix(ctx)
	s.snapshot(ctx, session)
	if err != nil {
		return session, err
	}

	if s.reconciler != nil {
		payload := ReconcilePayload{
			SessionID: session.SessionID,
			ChargeID:  session.GatewayChargeID,
			BuyerName: session.Buyer.Name,
			Amount:    session.Amount,
		}
		if err := s.reconciler.EnqueueReconcile(ctx, payload); err != nil {
			s.logger.Warn("failed to enqueue settlement reconcile", zap.Error(err))
		}
	}
	return session, nil
}

// SubmitCardCheckout opens (or resumes) the buyer's session and submits the
// card in one step: method selection, form, submission.
func (s *Service) SubmitCardCheckout(ctx context.Context, req StartRequest, card models.CardDetails) (models.BookingSession, error) {
	orch, err := s.openSession(ctx, req)
	if err != nil {
		return models.BookingSession{}, err
	}

	if orch.Session().State == models.StateAwaitingMethod {
		if _, err := orch.SelectCard(); err != nil {
			return orch.Session(), err
		}
	}
	session, err := orch.SubmitCard(ctx, card)
	s.snapshot(ctx, session)
	return session, err
}

// Cancel tears down the buyer's live session. Idempotent from the client's
// point of view: an unknown or already-terminal session is reported as such.
func (s *Service) Cancel(ctx context.Context, buyerName string) (models.BookingSession, error) {
	orch, ok := s.byBuyerName(buyerName)
	if !ok {
		return models.BookingSession{}, ErrNotFound
	}
	session, err := orch.Cancel()
	if err != nil {
		return session, err
	}
	s.snapshot(ctx, session)
	s.forget(session)
	return session, nil
}

// IsPaid reports whether the buyer has a settled charge. It checks the
// persisted payments so the answer survives restarts.
func (s *Service) IsPaid(ctx context.Context, buyerName string) (bool, error) {
	return s.paymentRepo.ExistsByBuyerName(ctx, buyerName)
}

// SessionByBuyer returns the buyer's live session snapshot plus the last
// gateway failure, if any.
func (s *Service) SessionByBuyer(buyerName string) (models.BookingSession, *FailureDetail, error) {
	orch, ok := s.byBuyerName(buyerName)
	if !ok {
		return models.BookingSession{}, nil, ErrNotFound
	}
	return orch.Session(), orch.Failure(), nil
}

// Shutdown stops every live poller. Pending PIX charges are left to the
// reconcile worker.
func (s *Service) Shutdown() {
	s.mu.Lock()
	orchs := make([]*Orchestrator, 0, len(s.sessions))
	for _, o := range s.sessions {
		orchs = append(orchs, o)
	}
	s.mu.Unlock()

	for _, o := range orchs {
		if session := o.Session(); session.State == models.StateAwaitingSettlement {
			_, _ = o.Cancel()
		}
	}
}

func (s *Service) byBuyerName(name string) (*Orchestrator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byBuyer[name]
	if !ok {
		return nil, false
	}
	orch, ok := s.sessions[id]
	return orch, ok
}

// persistSettled runs once per confirmed session. Lessons land on the
// professor's agenda; every settlement lands in the payments collection.
func (s *Service) persistSettled(session models.BookingSession) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if session.Item.Kind == models.ItemLesson && session.Item.Professor != "" && session.Date != "" {
		entry := models.AgendaEntry{
			Name:      session.Buyer.Name,
			Professor: session.Item.Professor,
			Date:      session.Date,
			Hour:      session.Hour,
		}
		if _, err := s.agendaRepo.Create(ctx, entry); err != nil {
			s.logger.Error("failed to record booked lesson",
				zap.String("sessionId", session.SessionID), zap.Error(err))
		}
	}

	record := models.PaymentRecord{
		BuyerName: session.Buyer.Name,
		Email:     session.Buyer.Email,
		CpfCnpj:   session.Buyer.CpfCnpj,
		Amount:    session.Amount,
		Method:    session.Method,
		ChargeID:  session.GatewayChargeID,
		Item:      session.Item,
	}
	if _, err := s.paymentRepo.Create(ctx, record); err != nil {
		s.logger.Error("failed to record settled payment",
			zap.String("sessionId", session.SessionID), zap.Error(err))
	}

	s.snapshot(ctx, session)
	s.forget(session)
}

// snapshot mirrors the session into Redis. Failures are logged, never fatal.
func (s *Service) snapshot(ctx context.Context, session models.BookingSession) {
	if s.store == nil || session.SessionID == "" {
		return
	}
	if err := s.store.Save(ctx, session); err != nil {
		s.logger.Warn("failed to snapshot checkout session", zap.Error(err))
	}
}

// forget drops a terminal session from the in-memory indexes.
func (s *Service) forget(session models.BookingSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, session.SessionID)
	if s.byBuyer[session.Buyer.Name] == session.SessionID {
		delete(s.byBuyer, session.Buyer.Name)
	}
}

package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"agendify/models"

	"go.uber.org/zap"
)

type fakeAgendaRepo struct {
	mu      sync.Mutex
	entries []models.AgendaEntry
}

func (f *fakeAgendaRepo) Create(ctx context.Context, entry models.AgendaEntry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return "agenda_1", nil
}

func (f *fakeAgendaRepo) GetByProfessor(ctx context.Context, professor string) ([]models.AgendaEntry, error) {
	return nil, nil
}

func (f *fakeAgendaRepo) GetByProfessorAndDate(ctx context.Context, professor, date string) ([]models.AgendaEntry, error) {
	return nil, nil
}

func (f *fakeAgendaRepo) all() []models.AgendaEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AgendaEntry(nil), f.entries...)
}

type fakePaymentRepo struct {
	mu      sync.Mutex
	records []models.PaymentRecord
}

func (f *fakePaymentRepo) Create(ctx context.Context, record models.PaymentRecord) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return "payment_1", nil
}

func (f *fakePaymentRepo) ExistsByBuyerName(ctx context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.BuyerName == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePaymentRepo) ExistsByChargeID(ctx context.Context, chargeID string) (bool, error) {
	return false, nil
}

func (f *fakePaymentRepo) List(ctx context.Context) ([]models.PaymentRecord, error) {
	return nil, nil
}

type fakeCatalogRepo struct {
	professors map[string]models.Professor
}

func (f *fakeCatalogRepo) GetProfessorByName(ctx context.Context, name string) (*models.Professor, error) {
	if p, ok := f.professors[name]; ok {
		return &p, nil
	}
	return nil, nil
}

func (f *fakeCatalogRepo) ListProfessors(ctx context.Context) ([]models.Professor, error) {
	return nil, nil
}

func (f *fakeCatalogRepo) ListProducts(ctx context.Context) ([]models.Product, error) {
	return nil, nil
}

func (f *fakeCatalogRepo) ListPackages(ctx context.Context) ([]models.Package, error) {
	return nil, nil
}

func newTestService(gw *fakeGateway) (*Service, *fakeAgendaRepo, *fakePaymentRepo) {
	agenda := &fakeAgendaRepo{}
	payments := &fakePaymentRepo{}
	catalog := &fakeCatalogRepo{professors: map[string]models.Professor{
		"Marina": {Name: "Marina", Specialties: []models.Specialty{{TypeDance: "Forró", PricePerClass: 80}}},
	}}
	policy := PollPolicy{Interval: 5 * time.Millisecond}
	svc := NewService(gw, nil, policy, agenda, payments, catalog, nil, zap.NewNop())
	return svc, agenda, payments
}

func lessonRequest() StartRequest {
	return StartRequest{
		Buyer:  models.Buyer{Name: "Ana Souza", Email: "ana@example.com", CpfCnpj: "12345678909"},
		Amount: 80,
		Item:   models.ItemDescriptor{Kind: models.ItemLesson, Professor: "Marina", Specialty: "Forró"},
		Date:   "2026-09-07",
		Hour:   "09:00",
	}
}

func TestPixSettlementBooksLessonAndRecordsPayment(t *testing.T) {
	gw := &fakeGateway{}
	svc, agenda, payments := newTestService(gw)

	session, err := svc.StartPixCheckout(context.Background(), lessonRequest())
	if err != nil {
		t.Fatalf("StartPixCheckout: %v", err)
	}
	if session.State != models.StateAwaitingSettlement {
		t.Fatalf("state = %s, want AWAITING_SETTLEMENT", session.State)
	}

	paid, err := svc.IsPaid(context.Background(), "Ana Souza")
	if err != nil {
		t.Fatalf("IsPaid: %v", err)
	}
	if paid {
		t.Fatalf("buyer reported paid before settlement")
	}

	gw.markSettled()
	waitFor(t, func() bool {
		ok, _ := svc.IsPaid(context.Background(), "Ana Souza")
		return ok
	})

	booked := agenda.all()
	if len(booked) != 1 {
		t.Fatalf("agenda entries = %d, want 1", len(booked))
	}
	if booked[0].Professor != "Marina" || booked[0].Date != "2026-09-07" || booked[0].Hour != "09:00" {
		t.Fatalf("unexpected booking: %+v", booked[0])
	}

	payments.mu.Lock()
	defer payments.mu.Unlock()
	if len(payments.records) != 1 {
		t.Fatalf("payment records = %d, want 1", len(payments.records))
	}
	if payments.records[0].Method != models.MethodPix || payments.records[0].Amount != 80 {
		t.Fatalf("unexpected record: %+v", payments.records[0])
	}
}

func TestCardCheckoutBooksImmediately(t *testing.T) {
	gw := &fakeGateway{}
	svc, agenda, _ := newTestService(gw)

	session, err := svc.SubmitCardCheckout(context.Background(), lessonRequest(), validCard())
	if err != nil {
		t.Fatalf("SubmitCardCheckout: %v", err)
	}
	if session.State != models.StateConfirmed {
		t.Fatalf("state = %s, want CONFIRMED", session.State)
	}
	if len(agenda.all()) != 1 {
		t.Fatalf("lesson not booked on card settlement")
	}
}

func TestUnknownProfessorRejected(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, _ := newTestService(gw)

	req := lessonRequest()
	req.Item.Professor = "Nobody"
	if _, err := svc.StartPixCheckout(context.Background(), req); !errors.Is(err, ErrUnknownProfessor) {
		t.Fatalf("StartPixCheckout with unknown professor = %v, want ErrUnknownProfessor", err)
	}
}

func TestBuyerSessionIsReused(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, _ := newTestService(gw)

	first, err := svc.StartPixCheckout(context.Background(), lessonRequest())
	if err != nil {
		t.Fatalf("first StartPixCheckout: %v", err)
	}

	// A second attempt while the charge is pending must not mint a second
	// session; the state machine rejects the duplicate transition instead.
	second, err := svc.StartPixCheckout(context.Background(), lessonRequest())
	if second.SessionID != first.SessionID {
		t.Fatalf("second checkout created a new session: %s vs %s", second.SessionID, first.SessionID)
	}
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second StartPixCheckout = %v, want ErrInvalidTransition", err)
	}

	if _, err := svc.Cancel(context.Background(), "Ana Souza"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	// After cancellation the buyer can start fresh.
	third, err := svc.StartPixCheckout(context.Background(), lessonRequest())
	if err != nil {
		t.Fatalf("third StartPixCheckout: %v", err)
	}
	if third.SessionID == first.SessionID {
		t.Fatalf("cancelled session was revived")
	}
	svc.Shutdown()
}

func TestRetryAfterGatewayFailureBooksNewSlot(t *testing.T) {
	gw := &fakeGateway{pixErr: errors.New("gateway down")}
	svc, agenda, _ := newTestService(gw)

	// First attempt fails at the gateway and the session falls back to
	// method selection.
	if _, err := svc.StartPixCheckout(context.Background(), lessonRequest()); err == nil {
		t.Fatalf("expected gateway failure")
	}

	// The buyer retries for a different slot. The resumed session must
	// carry the new slot, not the one from the failed attempt.
	gw.mu.Lock()
	gw.pixErr = nil
	gw.mu.Unlock()

	retry := lessonRequest()
	retry.Date = "2026-09-08"
	retry.Hour = "10:00"
	retry.Amount = 90
	session, err := svc.StartPixCheckout(context.Background(), retry)
	if err != nil {
		t.Fatalf("retry StartPixCheckout: %v", err)
	}
	if session.Date != "2026-09-08" || session.Hour != "10:00" || session.Amount != 90 {
		t.Fatalf("resumed session kept stale values: %+v", session)
	}

	gw.markSettled()
	waitFor(t, func() bool { return len(agenda.all()) == 1 })

	booked := agenda.all()[0]
	if booked.Date != "2026-09-08" || booked.Hour != "10:00" {
		t.Fatalf("settlement booked the stale slot: %+v", booked)
	}
}

func TestCancelUnknownBuyer(t *testing.T) {
	gw := &fakeGateway{}
	svc, _, _ := newTestService(gw)

	if _, err := svc.Cancel(context.Background(), "Nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Cancel unknown buyer = %v, want ErrNotFound", err)
	}
}

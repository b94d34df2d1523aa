package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"agendify/models"
	"agendify/services/schedule"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type fakeScheduleRepo struct {
	entries []models.ScheduleConfigEntry
}

func (f *fakeScheduleRepo) GetByProfessor(ctx context.Context, professor string) ([]models.ScheduleConfigEntry, error) {
	return f.entries, nil
}

func (f *fakeScheduleRepo) Save(ctx context.Context, professor string, entries []models.ScheduleConfigEntry) error {
	f.entries = entries
	return nil
}

func newScheduleRouter(repo *fakeScheduleRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := schedule.NewService(repo, nil, 0, zap.NewNop())
	h := NewScheduleHandler(svc)
	r := gin.New()
	r.POST("/findConfigSchedule", h.FindConfigSchedule)
	return r
}

func TestFindConfigScheduleReturnsBareArray(t *testing.T) {
	repo := &fakeScheduleRepo{entries: []models.ScheduleConfigEntry{
		{
			Type:   models.EntryWeeklyPattern,
			Weekly: &models.WeeklyPattern{Day: "Segunda-feira", Active: true, Start: "09:00", End: "10:00"},
		},
	}}
	router := newScheduleRouter(repo)

	req := httptest.NewRequest(http.MethodPost, "/findConfigSchedule", bytes.NewBufferString(`{"professor":"Marina"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	// The booking page reads the body as a plain entry array, not a
	// wrapper object.
	var entries []models.ScheduleConfigEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatalf("response is not a bare entry array: %v\nbody: %s", err, w.Body.String())
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Type != models.EntryWeeklyPattern || entries[0].Weekly == nil || entries[0].Weekly.Day != "Segunda-feira" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}

func TestFindConfigScheduleEmptyConfig(t *testing.T) {
	router := newScheduleRouter(&fakeScheduleRepo{})

	req := httptest.NewRequest(http.MethodPost, "/findConfigSchedule", bytes.NewBufferString(`{"professor":"Marina"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body := w.Body.String(); body != "[]" {
		t.Fatalf("empty config body = %q, want []", body)
	}
}

package call

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHTTP(t *testing.T) (http.Handler, *Service, *fakeNotifier) {
	t.Helper()
	repo := newTestRepo(t)
	notifier := &fakeNotifier{}
	svc := NewService(repo, notifier, time.Minute)
	h := NewHandler(svc, repo)

	r := chi.NewRouter()
	r.Post("/api/calls", h.Create)
	r.Get("/api/calls/{userId}", h.History)
	r.Put("/api/calls/{id}", h.Update)
	return r, svc, notifier
}

func TestCreateCallRingsReceiver(t *testing.T) {
	router, svc, notifier := newTestHTTP(t)

	body, _ := json.Marshal(map[string]string{
		"callerId": "u1", "receiverId": "u2", "callType": "video",
	})
	req := httptest.NewRequest("POST", "/api/calls", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var c Call
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&c))
	assert.Equal(t, StatusRinging, c.Status)
	assert.Equal(t, TypeVideo, c.CallType)

	rings := notifier.byEvent(EventIncomingCall)
	require.Len(t, rings, 1)
	assert.Equal(t, "u2", rings[0].userID)

	svc.cancelMissedTimer(c.ID)
}

func TestCreateCallValidates(t *testing.T) {
	router, _, _ := newTestHTTP(t)

	req := httptest.NewRequest("POST", "/api/calls", bytes.NewReader([]byte(`{"callerId":"u1"}`)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHistoryNewestFirstOverHTTP(t *testing.T) {
	router, svc, _ := newTestHTTP(t)
	ctx := context.Background()

	older, err := svc.Start(ctx, "u1", "u2", TypeAudio)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	newer, err := svc.Start(ctx, "u2", "u1", TypeVideo)
	require.NoError(t, err)
	defer svc.cancelMissedTimer(older.ID)
	defer svc.cancelMissedTimer(newer.ID)

	req := httptest.NewRequest("GET", "/api/calls/u1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var calls []Call
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&calls))
	require.Len(t, calls, 2)
	assert.Equal(t, newer.ID, calls[0].ID)
}

func TestUpdateAccepts(t *testing.T) {
	router, svc, notifier := newTestHTTP(t)

	c, err := svc.Start(context.Background(), "u1", "u2", TypeAudio)
	require.NoError(t, err)

	body := []byte(`{"status":"accepted"}`)
	req := httptest.NewRequest("PUT", "/api/calls/"+c.ID, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var updated Call
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&updated))
	assert.Equal(t, StatusAccepted, updated.Status)
	require.NotNil(t, updated.AnsweredAt)

	// Both parties hear about it.
	assert.Len(t, notifier.byEvent(EventCallUpdated), 2)
}

func TestUpdateRefusesLeavingTerminalState(t *testing.T) {
	router, svc, _ := newTestHTTP(t)

	c, err := svc.Start(context.Background(), "u1", "u2", TypeAudio)
	require.NoError(t, err)
	_, err = svc.Decline(context.Background(), c.ID)
	require.NoError(t, err)

	body := []byte(`{"status":"accepted"}`)
	req := httptest.NewRequest("PUT", "/api/calls/"+c.ID, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestUpdateUnknownStatus(t *testing.T) {
	router, _, _ := newTestHTTP(t)

	req := httptest.NewRequest("PUT", "/api/calls/some-id", bytes.NewReader([]byte(`{"status":"ringing"}`)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

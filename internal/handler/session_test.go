package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authpkg "github.com/potsplit/settle-engine/internal/auth"
	"github.com/potsplit/settle-engine/internal/domain"
	"github.com/potsplit/settle-engine/internal/ledger"
)

const testSecret = "test-jwt-secret"

type mockSessionService struct {
	session  *domain.Session
	player   *domain.Player
	entry    *domain.LedgerEntry
	snapshot *ledger.Snapshot
	err      error
}

func (m *mockSessionService) CreateSession(_ context.Context, name, currency string) (*domain.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

func (m *mockSessionService) GetSession(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

func (m *mockSessionService) AddPlayer(_ context.Context, sessionID uuid.UUID, name string) (*domain.Player, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.player, nil
}

func (m *mockSessionService) RecordEntry(_ context.Context, sessionID, playerID uuid.UUID, entryType domain.EntryType, amount decimal.Decimal) (*domain.LedgerEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entry, nil
}

func (m *mockSessionService) Snapshot(_ context.Context, sessionID uuid.UUID) (*ledger.Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.snapshot, nil
}

func testSession() *domain.Session {
	return &domain.Session{
		ID:        uuid.MustParse("11111111-0000-0000-0000-000000000001"),
		Name:      "friday night",
		Currency:  "USD",
		Status:    domain.SessionStatusActive,
		CreatedAt: time.Date(2026, 5, 17, 21, 0, 0, 0, time.UTC),
	}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateSession(t *testing.T) {
	h := NewSessionHandler(&mockSessionService{session: testSession()}, testSecret, time.Hour)

	t.Run("success issues organizer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions",
			strings.NewReader(`{"name":"friday night","currency":"USD"}`))
		rec := httptest.NewRecorder()

		h.Create(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		resp := decodeResponse(t, rec)
		assert.True(t, resp.Success)

		data, ok := resp.Data.(map[string]any)
		require.True(t, ok)
		token, ok := data["organizer_token"].(string)
		require.True(t, ok)

		claims, err := authpkg.ValidateToken(token, testSecret)
		require.NoError(t, err)
		assert.Equal(t, testSession().ID, claims.SessionID)
	})

	t.Run("missing fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions",
			strings.NewReader(`{"name":"friday night"}`))
		rec := httptest.NewRecorder()

		h.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeResponse(t, rec)
		assert.False(t, resp.Success)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{`))
		rec := httptest.NewRecorder()

		h.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetSessionNotFound(t *testing.T) {
	h := NewSessionHandler(&mockSessionService{err: domain.ErrNotFound}, testSecret, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/x", nil)
	req.SetPathValue("id", testSession().ID.String())
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddPlayerTokenScoping(t *testing.T) {
	sess := testSession()
	h := NewSessionHandler(&mockSessionService{
		session: sess,
		player:  &domain.Player{ID: uuid.New(), SessionID: sess.ID, Name: "alice"},
	}, testSecret, time.Hour)

	newRequest := func(tokenSession uuid.UUID, withToken bool) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/x/players",
			strings.NewReader(`{"name":"alice"}`))
		req.SetPathValue("id", sess.ID.String())
		if withToken {
			req = req.WithContext(authpkg.ContextWithSessionID(req.Context(), tokenSession))
		}
		return req
	}

	t.Run("matching token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.AddPlayer(rec, newRequest(sess.ID, true))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("token for another session", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.AddPlayer(rec, newRequest(uuid.New(), true))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no token on context", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.AddPlayer(rec, newRequest(uuid.Nil, false))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRecordEntryValidation(t *testing.T) {
	sess := testSession()
	h := NewSessionHandler(&mockSessionService{
		session: sess,
		entry:   &domain.LedgerEntry{ID: uuid.New(), SessionID: sess.ID},
	}, testSecret, time.Hour)

	newRequest := func(body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/x/entries",
			strings.NewReader(body))
		req.SetPathValue("id", sess.ID.String())
		return req.WithContext(authpkg.ContextWithSessionID(req.Context(), sess.ID))
	}

	playerID := uuid.NewString()
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{
			name:     "valid buy-in",
			body:     `{"player_id":"` + playerID + `","type":"buy_in","amount":"100.00"}`,
			wantCode: http.StatusCreated,
		},
		{
			name:     "bad entry type",
			body:     `{"player_id":"` + playerID + `","type":"refund","amount":"100.00"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "negative amount",
			body:     `{"player_id":"` + playerID + `","type":"buy_in","amount":"-5"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "player id not a uuid",
			body:     `{"player_id":"alice","type":"buy_in","amount":"100.00"}`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.RecordEntry(rec, newRequest(tt.body))
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestBalances(t *testing.T) {
	sess := testSession()
	h := NewSessionHandler(&mockSessionService{
		snapshot: &ledger.Snapshot{
			Balances: []domain.PlayerBalance{
				{PlayerID: uuid.New(), Name: "alice", NetPosition: 5000},
				{PlayerID: uuid.New(), Name: "bob", NetPosition: -5000},
			},
			Tolerance: 2,
		},
	}, testSecret, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/x/balances", nil)
	req.SetPathValue("id", sess.ID.String())
	rec := httptest.NewRecorder()

	h.Balances(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), data["tolerance"])
	assert.Len(t, data["balances"], 2)
}

func TestBalancesUnbalancedLedger(t *testing.T) {
	h := NewSessionHandler(&mockSessionService{err: domain.ErrUnbalancedInput}, testSecret, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/x/balances", nil)
	req.SetPathValue("id", testSession().ID.String())
	rec := httptest.NewRecorder()

	h.Balances(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

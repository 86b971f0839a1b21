package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lootrun/internal/domain"
	"lootrun/internal/game"
	"lootrun/internal/http/handlers"
	"lootrun/internal/logger"
	"lootrun/internal/seeker"
	"lootrun/internal/service"
	"lootrun/internal/session"
	"lootrun/internal/ws"

	"github.com/gin-gonic/gin"
)

type fakeStore struct {
	games []domain.GameRecord
	top   []domain.LeaderboardEntry
	err   error
	limit int
}

func (f *fakeStore) Recent(_ context.Context, limit int) ([]domain.GameRecord, error) {
	f.limit = limit
	return f.games, f.err
}

func (f *fakeStore) Leaderboard(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	f.limit = limit
	return f.top, f.err
}

func newTestServer(t *testing.T, store handlers.GameStore) (*gin.Engine, *ws.Hub, *service.TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.Discard()
	catalog := game.DefaultCatalog()
	hub := ws.NewHub(ws.RoomDeps{
		Settings: session.Settings{TurnTimer: time.Minute, EscapeTimer: time.Minute, WinThreshold: 100, MinPlayers: 2, MaxPlayers: 4},
		Catalog:  catalog,
		Planner:  seeker.New(seeker.DefaultParams(), log),
		Log:      log,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = hub.Shutdown(ctx)
	})
	tokens := service.NewTokenService("test-secret", time.Hour)

	h := &handlers.Handler{Hub: hub, Games: store, Tokens: tokens, Catalog: catalog, Version: "test", Log: log}
	r := gin.New()
	RegisterRoutes(r, h, ws.NewHandler(hub, tokens, "", log), "")
	return r, hub, tokens
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _, _ := newTestServer(t, nil)
	w := do(r, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("health: %d %s", w.Code, w.Body)
	}
}

func TestRooms(t *testing.T) {
	r, hub, _ := newTestServer(t, nil)

	w := do(r, http.MethodPost, "/api/rooms", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body)
	}
	var info ws.RoomInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Code == "" || info.Phase != session.PhaseLobby.String() {
		t.Fatalf("unexpected room %+v", info)
	}
	if hub.Len() != 1 {
		t.Fatalf("hub has %d rooms", hub.Len())
	}

	w = do(r, http.MethodGet, "/api/rooms", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), info.Code) {
		t.Fatalf("list: %d %s", w.Code, w.Body)
	}
	w = do(r, http.MethodGet, "/api/rooms/"+strings.ToLower(info.Code), "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d %s", w.Code, w.Body)
	}
	w = do(r, http.MethodGet, "/api/rooms/NOPE", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing room: %d", w.Code)
	}
}

func TestCatalog(t *testing.T) {
	r, _, _ := newTestServer(t, nil)
	w := do(r, http.MethodGet, "/api/catalog", "")
	var body struct {
		Locations []game.Location `json:"locations"`
		Passives  []game.Passive  `json:"passives"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Locations) != game.DefaultCatalog().Len() || len(body.Passives) != len(game.Passives()) {
		t.Fatalf("unexpected catalog %+v", body)
	}
}

func TestGuestLogin(t *testing.T) {
	r, _, tokens := newTestServer(t, nil)

	w := do(r, http.MethodPost, "/api/auth/guest", `{"username":"  alice "}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body)
	}
	var body struct {
		Token     string `json:"token"`
		ProfileID string `json:"profile_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := tokens.Parse(body.Token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.Username != "alice" || claims.ProfileID != body.ProfileID {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if w := do(r, http.MethodPost, "/api/auth/guest", `{"username":" "}`); w.Code != http.StatusBadRequest {
		t.Fatalf("blank name: %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/api/auth/guest", `{`); w.Code != http.StatusBadRequest {
		t.Fatalf("broken body: %d", w.Code)
	}
}

func TestHistory(t *testing.T) {
	winner := "p1"
	store := &fakeStore{
		games: []domain.GameRecord{{ID: "g1", RoomCode: "ABCD", WinnerID: &winner, Reason: domain.EndReasonThreshold}},
		top:   []domain.LeaderboardEntry{{Username: "alice", Wins: 3, Games: 4, BestScore: 120}},
	}
	r, _, _ := newTestServer(t, store)

	w := do(r, http.MethodGet, "/api/games/recent?limit=500", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"g1"`) {
		t.Fatalf("recent: %d %s", w.Code, w.Body)
	}
	if store.limit != 100 {
		t.Fatalf("limit not clamped: %d", store.limit)
	}

	w = do(r, http.MethodGet, "/api/leaderboard", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"alice"`) {
		t.Fatalf("leaderboard: %d %s", w.Code, w.Body)
	}
	if store.limit != 20 {
		t.Fatalf("default limit: %d", store.limit)
	}

	store.err = errors.New("boom")
	if w := do(r, http.MethodGet, "/api/leaderboard", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("store error: %d", w.Code)
	}
}

func TestHistoryDisabled(t *testing.T) {
	r, _, _ := newTestServer(t, nil)
	if w := do(r, http.MethodGet, "/api/games/recent", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("recent without store: %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	r, _, _ := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/rooms", nil)
	req.Header.Set("Origin", "https://play.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "https://play.example" {
		t.Fatalf("preflight: %d %v", w.Code, w.Header())
	}
}

package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateGame(t *testing.T) {
	srv := New(nil, testConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp := doRequest(t, ts, http.MethodPost, "/api/games", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}

	body := decodeBody(t, resp)
	assertString(t, body["game_id"])
	assertString(t, body["join_code"])
}

func TestCreateGameWithSettings(t *testing.T) {
	srv := New(nil, testConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp := doRequest(t, ts, http.MethodPost, "/api/games", map[string]any{
		"question_time_seconds": 30,
		"total_questions":       5,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	snapshot := fetchSnapshot(t, ts, body["game_id"].(string))
	if got := snapshot["question_time_seconds"].(float64); got != 30 {
		t.Fatalf("expected question time 30, got %v", got)
	}
	if got := snapshot["total_questions"].(float64); got != 5 {
		t.Fatalf("expected total questions 5, got %v", got)
	}
}

func TestCreateGameRejectsBadSettings(t *testing.T) {
	srv := New(nil, testConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp := doRequest(t, ts, http.MethodPost, "/api/games", map[string]any{
		"question_time_seconds": 5,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestGetGame(t *testing.T) {
	srv := New(nil, testConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	gameID := createGame(t, ts)
	snapshot := fetchSnapshot(t, ts, gameID)
	if snapshot["phase"] != phaseWaiting {
		t.Fatalf("expected phase %q, got %v", phaseWaiting, snapshot["phase"])
	}
}

func TestGetGameNotFound(t *testing.T) {
	srv := New(nil, testConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp := doRequest(t, ts, http.MethodGet, "/api/games/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestJoinTeamByCode(t *testing.T) {
	srv := New(nil, testConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	_, joinCode := createGameWithCode(t, ts)
	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+strings.ToLower(joinCode)+"/join", map[string]string{
		"name": "Reindeers",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	assertString(t, body["team_id"])
	assertString(t, body["color"])
}

func TestJoinTeamDuplicateName(t *testing.T) {
	srv := New(nil, testConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	gameID := createGame(t, ts)
	joinTeam(t, ts, gameID, "Reindeers")

	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+gameID+"/join", map[string]string{
		"name": "reindeers",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
}

func TestJoinTeamInvalidName(t *testing.T) {
	srv := New(nil, testConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	gameID := createGame(t, ts)
	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+gameID+"/join", map[string]string{
		"name": "   ",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestJoinTeamFinishedGame(t *testing.T) {
	srv := New(nil, testConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	gameID := createGame(t, ts)
	joinTeam(t, ts, gameID, "Reindeers")
	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+gameID+"/end", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/games/"+gameID+"/join", map[string]string{
		"name": "Latecomers",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
}

func TestSubmitAnswerBeforeStart(t *testing.T) {
	srv := New(nil, testConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	gameID := createGame(t, ts)
	teamID := joinTeam(t, ts, gameID, "Reindeers")

	resp := submitAnswerRequest(t, ts, gameID, teamID, 0)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
}

func TestStartGameWithoutTeams(t *testing.T) {
	srv := New(nil, testConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	gameID := createGame(t, ts)
	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+gameID+"/start", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
}

func TestEventsWithoutDatabase(t *testing.T) {
	srv := New(nil, testConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	gameID := createGame(t, ts)
	resp := doRequest(t, ts, http.MethodGet, "/api/games/"+gameID+"/events", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, resp.StatusCode)
	}
}

func TestJoinQR(t *testing.T) {
	srv := New(nil, testConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	gameID := createGame(t, ts)
	resp := doRequest(t, ts, http.MethodGet, "/api/games/"+gameID+"/qr", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "image/png" {
		t.Fatalf("expected image/png, got %s", got)
	}
}

func TestResultsEmptyGame(t *testing.T) {
	srv := New(nil, testConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	gameID := createGame(t, ts)
	resp := doRequest(t, ts, http.MethodGet, "/api/games/"+gameID+"/results", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func mustAddTeam(t *testing.T, srv *Server, gameID, name string) string {
	t.Helper()
	_, team, err := srv.store.AddTeam(gameID, name, "")
	if err != nil {
		t.Fatalf("add team %s: %v", name, err)
	}
	return team.ID
}

func mustSubmit(t *testing.T, srv *Server, gameID, teamID string, answerIndex int) {
	t.Helper()
	_, err := srv.store.UpdateGame(gameID, func(game *Game) error {
		_, err := submitAnswer(game, teamID, answerIndex)
		return err
	})
	if err != nil {
		t.Fatalf("submit answer: %v", err)
	}
}

func mustGetGame(t *testing.T, srv *Server, gameID string) *Game {
	t.Helper()
	game, ok := srv.store.GetGame(gameID)
	if !ok {
		t.Fatalf("game %s not found", gameID)
	}
	return game
}

func teamScore(t *testing.T, game *Game, teamID string) int {
	t.Helper()
	team, ok := findTeam(game, teamID)
	if !ok {
		t.Fatalf("team %s not found", teamID)
	}
	return team.Score
}

func TestFullGameFlow(t *testing.T) {
	srv := New(nil, testConfig())
	game := srv.store.CreateGame(GameSettings{
		QuestionTimeSeconds: 20,
		TotalQuestions:      2,
		GracePeriodSeconds:  8,
	})
	alpha := mustAddTeam(t, srv, game.ID, "Alpha")
	bravo := mustAddTeam(t, srv, game.ID, "Bravo")
	charlie := mustAddTeam(t, srv, game.ID, "Charlie")

	if _, err := srv.startGame(game.ID); err != nil {
		t.Fatalf("start game: %v", err)
	}
	t.Cleanup(func() {
		srv.cancelPhaseTimer(game.ID)
	})

	game = mustGetGame(t, srv, game.ID)
	if game.Phase != phasePlaying {
		t.Fatalf("expected phase %q, got %q", phasePlaying, game.Phase)
	}
	if game.Question == nil {
		t.Fatal("expected a question after start")
	}
	if !game.AnsweringEnabled {
		t.Fatal("expected answering to be open without a grace period")
	}

	correct := game.Question.Correct
	wrong := (correct + 1) % answerOptionCount
	mustSubmit(t, srv, game.ID, alpha, correct)
	mustSubmit(t, srv, game.ID, bravo, wrong)
	mustSubmit(t, srv, game.ID, charlie, correct)

	srv.tryReveal(game.ID, 0, "all_answered")
	game = mustGetGame(t, srv, game.ID)
	if game.Phase != phaseRevealing {
		t.Fatalf("expected phase %q, got %q", phaseRevealing, game.Phase)
	}
	if game.RevealStage != revealStageAnswer {
		t.Fatalf("expected reveal stage %q, got %q", revealStageAnswer, game.RevealStage)
	}
	if got := teamScore(t, game, alpha); got != 300 {
		t.Fatalf("expected first correct answer to score 300, got %d", got)
	}
	if got := teamScore(t, game, charlie); got != 250 {
		t.Fatalf("expected second correct answer to score 250, got %d", got)
	}
	if got := teamScore(t, game, bravo); got != 0 {
		t.Fatalf("expected wrong answer to score 0, got %d", got)
	}

	// A second reveal for the same question must not reapply points.
	srv.tryReveal(game.ID, 0, "host")
	game = mustGetGame(t, srv, game.ID)
	if got := teamScore(t, game, alpha); got != 300 {
		t.Fatalf("expected repeated reveal to leave score at 300, got %d", got)
	}

	srv.advanceRevealStage(game.ID, 0)
	game = mustGetGame(t, srv, game.ID)
	if game.RevealStage != revealStageWinners {
		t.Fatalf("expected reveal stage %q, got %q", revealStageWinners, game.RevealStage)
	}

	firstQuestion := game.Question.Text
	srv.advanceQuestion(game.ID, 0)
	game = mustGetGame(t, srv, game.ID)
	if game.Phase != phasePlaying {
		t.Fatalf("expected phase %q, got %q", phasePlaying, game.Phase)
	}
	if game.CurrentQuestion != 1 {
		t.Fatalf("expected question index 1, got %d", game.CurrentQuestion)
	}
	if game.Revealed {
		t.Fatal("expected revealed flag to reset on advance")
	}
	if game.Question.Text == firstQuestion {
		t.Fatal("expected a fresh question after advancing")
	}
	for i := range game.Teams {
		if game.Teams[i].HasAnswered {
			t.Fatalf("expected has_answered reset for team %s", game.Teams[i].Name)
		}
	}

	mustSubmit(t, srv, game.ID, alpha, game.Question.Correct)
	srv.tryReveal(game.ID, 1, "timeout")
	srv.advanceRevealStage(game.ID, 1)
	srv.advanceQuestion(game.ID, 1)

	game = mustGetGame(t, srv, game.ID)
	if game.Phase != phaseFinished {
		t.Fatalf("expected phase %q, got %q", phaseFinished, game.Phase)
	}
	ranked := rankTeams(game)
	if ranked[0].ID != alpha || ranked[0].Score != 600 {
		t.Fatalf("expected Alpha first with 600, got %s with %d", ranked[0].Name, ranked[0].Score)
	}
	if ranked[1].ID != charlie || ranked[1].Score != 250 {
		t.Fatalf("expected Charlie second with 250, got %s with %d", ranked[1].Name, ranked[1].Score)
	}
	if ranked[2].ID != bravo {
		t.Fatalf("expected Bravo last, got %s", ranked[2].Name)
	}
}

func TestAllAnsweredRevealsOverHTTP(t *testing.T) {
	srv := New(nil, testConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	gameID := createGame(t, ts)
	alpha := joinTeam(t, ts, gameID, "Alpha")
	bravo := joinTeam(t, ts, gameID, "Bravo")

	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+gameID+"/start", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	t.Cleanup(func() {
		srv.cancelPhaseTimer(gameID)
	})

	game := mustGetGame(t, srv, gameID)
	correct := game.Question.Correct
	if resp := submitAnswerRequest(t, ts, gameID, alpha, correct); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if resp := submitAnswerRequest(t, ts, gameID, bravo, correct); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	// The reveal runs after the answer response is written; poll
	// briefly rather than racing it.
	deadline := time.Now().Add(2 * time.Second)
	for {
		game = mustGetGame(t, srv, gameID)
		if game.Phase == phaseRevealing {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected phase %q after all teams answered, got %q", phaseRevealing, game.Phase)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := teamScore(t, game, alpha); got != 300 {
		t.Fatalf("expected 300 for the first correct answer, got %d", got)
	}
	if got := teamScore(t, game, bravo); got != 250 {
		t.Fatalf("expected 250 for the second correct answer, got %d", got)
	}

	snapshot := fetchSnapshot(t, ts, gameID)
	question := snapshot["question"].(map[string]any)
	if got := question["correct"].(float64); int(got) != correct {
		t.Fatalf("expected snapshot to expose correct=%d during reveal, got %v", correct, got)
	}
}

func TestDuplicateAnswerReturnsOriginal(t *testing.T) {
	srv := New(nil, testConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	gameID := createGame(t, ts)
	alpha := joinTeam(t, ts, gameID, "Alpha")
	joinTeam(t, ts, gameID, "Bravo")

	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+gameID+"/start", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	t.Cleanup(func() {
		srv.cancelPhaseTimer(gameID)
	})

	first := submitAnswerRequest(t, ts, gameID, alpha, 0)
	if first.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, first.StatusCode)
	}
	firstBody := decodeBody(t, first)

	second := submitAnswerRequest(t, ts, gameID, alpha, 2)
	if second.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, second.StatusCode)
	}
	secondBody := decodeBody(t, second)
	if firstBody["id"] != secondBody["id"] {
		t.Fatalf("expected the original answer back, got %v and %v", firstBody["id"], secondBody["id"])
	}
	if got := secondBody["answer_index"].(float64); got != 0 {
		t.Fatalf("expected the original answer index 0, got %v", got)
	}

	snapshot := fetchSnapshot(t, ts, gameID)
	if got := snapshot["answers_count"].(float64); got != 1 {
		t.Fatalf("expected one recorded answer, got %v", got)
	}
}

func TestSubmitAnswerBadOption(t *testing.T) {
	srv := New(nil, testConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	gameID := createGame(t, ts)
	alpha := joinTeam(t, ts, gameID, "Alpha")
	joinTeam(t, ts, gameID, "Bravo")

	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+gameID+"/start", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	t.Cleanup(func() {
		srv.cancelPhaseTimer(gameID)
	})

	resp = submitAnswerRequest(t, ts, gameID, alpha, 4)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestSnapshotHidesCorrectWhilePlaying(t *testing.T) {
	srv := New(nil, testConfig())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	gameID := createGame(t, ts)
	joinTeam(t, ts, gameID, "Alpha")
	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+gameID+"/start", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	t.Cleanup(func() {
		srv.cancelPhaseTimer(gameID)
	})

	snapshot := fetchSnapshot(t, ts, gameID)
	question := snapshot["question"].(map[string]any)
	if _, exposed := question["correct"]; exposed {
		t.Fatal("expected correct index to be withheld while playing")
	}
	answers := question["answers"].([]any)
	if len(answers) != answerOptionCount {
		t.Fatalf("expected %d answer options, got %d", answerOptionCount, len(answers))
	}
}

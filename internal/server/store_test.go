package server

import (
	"errors"
	"strings"
	"testing"
)

func testSettings() GameSettings {
	return GameSettings{
		QuestionTimeSeconds: 20,
		TotalQuestions:      10,
		GracePeriodSeconds:  8,
	}
}

func TestStoreCreateGame(t *testing.T) {
	store := NewStore()
	game := store.CreateGame(testSettings())

	if game.ID == "" {
		t.Fatal("expected a game id")
	}
	if len(game.JoinCode) != 6 {
		t.Fatalf("expected a 6 character join code, got %q", game.JoinCode)
	}
	if game.Phase != phaseWaiting {
		t.Fatalf("expected phase %q, got %q", phaseWaiting, game.Phase)
	}

	got, ok := store.GetGame(game.ID)
	if !ok || got.ID != game.ID {
		t.Fatal("expected to look the game up by id")
	}
}

func TestStoreResolvesJoinCode(t *testing.T) {
	store := NewStore()
	game := store.CreateGame(testSettings())

	got, ok := store.GetGame(strings.ToLower(game.JoinCode))
	if !ok || got.ID != game.ID {
		t.Fatal("expected to look the game up by lowercase join code")
	}

	got, ok = store.FindGameByJoinCode(game.JoinCode)
	if !ok || got.ID != game.ID {
		t.Fatal("expected to find the game by join code")
	}
}

func TestStoreGameNotFound(t *testing.T) {
	store := NewStore()
	if _, ok := store.GetGame("missing"); ok {
		t.Fatal("expected a miss for an unknown id")
	}
	_, err := store.UpdateGame("missing", func(game *Game) error { return nil })
	if !errors.Is(err, errGameNotFound) {
		t.Fatalf("expected errGameNotFound, got %v", err)
	}
}

func TestStoreAddTeam(t *testing.T) {
	store := NewStore()
	game := store.CreateGame(testSettings())

	_, team, err := store.AddTeam(game.ID, "Reindeers", "")
	if err != nil {
		t.Fatalf("add team: %v", err)
	}
	if team.ID == "" {
		t.Fatal("expected a team id")
	}
	if !isTeamColor(team.Color) {
		t.Fatalf("expected a palette color, got %q", team.Color)
	}
}

func TestStoreAddTeamDuplicateName(t *testing.T) {
	store := NewStore()
	game := store.CreateGame(testSettings())

	if _, _, err := store.AddTeam(game.ID, "Reindeers", ""); err != nil {
		t.Fatalf("add team: %v", err)
	}
	_, _, err := store.AddTeam(game.ID, "REINDEERS", "")
	if !errors.Is(err, errTeamNameTaken) {
		t.Fatalf("expected errTeamNameTaken, got %v", err)
	}
}

func TestStoreAddTeamFinishedGame(t *testing.T) {
	store := NewStore()
	game := store.CreateGame(testSettings())
	_, _ = store.UpdateGame(game.ID, func(game *Game) error {
		game.Phase = phaseFinished
		return nil
	})

	_, _, err := store.AddTeam(game.ID, "Latecomers", "")
	if !errors.Is(err, errGameFinished) {
		t.Fatalf("expected errGameFinished, got %v", err)
	}
}

func TestStoreAddTeamInvalidColorFallsBack(t *testing.T) {
	store := NewStore()
	game := store.CreateGame(testSettings())

	_, team, err := store.AddTeam(game.ID, "Reindeers", "mauve")
	if err != nil {
		t.Fatalf("add team: %v", err)
	}
	if !isTeamColor(team.Color) {
		t.Fatalf("expected a palette color fallback, got %q", team.Color)
	}

	_, team, err = store.AddTeam(game.ID, "Foxes", "gold")
	if err != nil {
		t.Fatalf("add team: %v", err)
	}
	if team.Color != "gold" {
		t.Fatalf("expected the requested color, got %q", team.Color)
	}
}

func TestStoreRestoreGame(t *testing.T) {
	store := NewStore()
	game := &Game{
		ID:       newID(),
		JoinCode: "ABC123",
		Phase:    phasePaused,
	}
	if err := store.RestoreGame(game); err != nil {
		t.Fatalf("restore game: %v", err)
	}
	got, ok := store.GetGame(game.ID)
	if !ok {
		t.Fatal("expected the restored game to be resolvable")
	}
	if got.UsedQuestions == nil {
		t.Fatal("expected used-question tracking to be initialized")
	}

	if err := store.RestoreGame(game); err == nil {
		t.Fatal("expected a second restore of the same game to fail")
	}
	clash := &Game{ID: newID(), JoinCode: "abc123"}
	if err := store.RestoreGame(clash); err == nil {
		t.Fatal("expected a join code clash to fail")
	}
}

func TestStoreListGameSummaries(t *testing.T) {
	store := NewStore()
	first := store.CreateGame(testSettings())
	second := store.CreateGame(testSettings())
	_, _, _ = store.AddTeam(second.ID, "Reindeers", "")

	summaries := store.ListGameSummaries()
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	teamsByID := map[string]int{}
	for _, summary := range summaries {
		teamsByID[summary.ID] = summary.Teams
	}
	if teamsByID[first.ID] != 0 || teamsByID[second.ID] != 1 {
		t.Fatalf("unexpected team counts: %v", teamsByID)
	}
}

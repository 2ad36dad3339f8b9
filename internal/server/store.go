package server

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	errGameNotFound      = errors.New("game not found")
	errGameFinished      = errors.New("game already finished")
	errTeamNameTaken     = errors.New("team name taken")
	errTeamNotFound      = errors.New("team not found")
	errDuplicateAnswer   = errors.New("answer already submitted")
	errAnswersNotOpen    = errors.New("answers not open")
	errInvalidAnswer     = errors.New("answer index out of range")
	errGameNotPlaying    = errors.New("game is not playing")
	errAlreadyRevealed   = errors.New("question already revealed")
	errNoTeams           = errors.New("no teams joined")
	errGameNotWaiting    = errors.New("game already started")
	errGameNotPaused     = errors.New("game is not paused")
	errQuestionNotLoaded = errors.New("question not loaded")
)

type Store struct {
	mu    sync.Mutex
	games map[string]*Game
}

func NewStore() *Store {
	return &Store{
		games: make(map[string]*Game),
	}
}

func (s *Store) CreateGame(settings GameSettings) *Game {
	s.mu.Lock()
	defer s.mu.Unlock()

	game := &Game{
		ID:             newID(),
		JoinCode:       newJoinCode(),
		Phase:          phaseWaiting,
		PhaseStartedAt: timeNowUTC(),
		Settings:       settings,
		UsedQuestions:  make(map[string]struct{}),
	}
	s.games[game.ID] = game
	return game
}

func (s *Store) GetGame(id string) (*Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.resolve(id)
	return game, ok
}

// UpdateGame runs update while holding the store lock. Every phase
// transition and answer submission for a game goes through here, which
// serializes them against each other.
func (s *Store) UpdateGame(id string, update func(game *Game) error) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.resolve(id)
	if !ok {
		return nil, errGameNotFound
	}
	if err := update(game); err != nil {
		return game, err
	}
	return game, nil
}

func (s *Store) FindGameByJoinCode(code string) (*Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, game := range s.games {
		if strings.EqualFold(game.JoinCode, code) {
			return game, true
		}
	}
	return nil, false
}

// resolve accepts either a game id or a join code. Join codes are
// matched case-insensitively.
func (s *Store) resolve(idOrCode string) (*Game, bool) {
	if game, ok := s.games[idOrCode]; ok {
		return game, true
	}
	for _, game := range s.games {
		if strings.EqualFold(game.JoinCode, idOrCode) {
			return game, true
		}
	}
	return nil, false
}

func (s *Store) AddTeam(gameIDOrCode, name, color string) (*Game, *Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.resolve(gameIDOrCode)
	if !ok {
		return nil, nil, errGameNotFound
	}
	if game.Phase == phaseFinished {
		return nil, nil, errGameFinished
	}
	for i := range game.Teams {
		if strings.EqualFold(game.Teams[i].Name, name) {
			return nil, nil, errTeamNameTaken
		}
	}
	if color == "" || !isTeamColor(color) {
		color = pickTeamColor(len(game.Teams))
	}
	team := Team{
		ID:       newID(),
		Name:     name,
		Color:    color,
		JoinedAt: timeNowUTC(),
	}
	game.Teams = append(game.Teams, team)
	return game, &game.Teams[len(game.Teams)-1], nil
}

func (s *Store) GetTeam(gameID, teamID string) (*Game, *Team, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.resolve(gameID)
	if !ok {
		return nil, nil, false
	}
	team, ok := findTeam(game, teamID)
	return game, team, ok
}

func findTeam(game *Game, teamID string) (*Team, bool) {
	for i := range game.Teams {
		if game.Teams[i].ID == teamID {
			return &game.Teams[i], true
		}
	}
	return nil, false
}

// RestoreGame re-registers a game loaded from the durable store, e.g.
// after a server restart.
func (s *Store) RestoreGame(game *Game) error {
	if game == nil {
		return errors.New("game is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[game.ID]; ok {
		return errors.New("game already running")
	}
	for _, existing := range s.games {
		if strings.EqualFold(existing.JoinCode, game.JoinCode) {
			return errors.New("game already running")
		}
	}
	if game.UsedQuestions == nil {
		game.UsedQuestions = make(map[string]struct{})
	}
	s.games[game.ID] = game
	return nil
}

func (s *Store) ListGameSummaries() []GameSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]GameSummary, 0, len(s.games))
	for _, game := range s.games {
		list = append(list, GameSummary{
			ID:       game.ID,
			JoinCode: game.JoinCode,
			Phase:    game.Phase,
			Teams:    len(game.Teams),
		})
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}

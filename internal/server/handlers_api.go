package server

import (
	"errors"
	"log"
	"net/http"

	"trivia-night/internal/db"
)

type createGameRequest struct {
	QuestionTimeSeconds int  `json:"question_time_seconds"`
	TotalQuestions      int  `json:"total_questions"`
	GracePeriodEnabled  bool `json:"grace_period_enabled"`
	GracePeriodSeconds  int  `json:"grace_period_seconds"`
}

type joinRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type answerRequest struct {
	TeamID      string `json:"team_id"`
	AnswerIndex *int   `json:"answer_index"`
}

type settingsRequest struct {
	QuestionTimeSeconds int   `json:"question_time_seconds"`
	TotalQuestions      int   `json:"total_questions"`
	GracePeriodEnabled  *bool `json:"grace_period_enabled"`
	GracePeriodSeconds  int   `json:"grace_period_seconds"`
}

func (s *Server) handleGameSubroutes(w http.ResponseWriter, r *http.Request) {
	gameID, action, ok := parseGamePath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if action == "" && r.Method == http.MethodGet {
		s.handleGetGame(w, r, gameID)
		return
	}

	switch r.Method {
	case http.MethodGet:
		switch action {
		case "results":
			s.handleResults(w, r, gameID)
		case "events":
			s.handleEvents(w, r, gameID)
		case "qr":
			s.handleJoinQR(w, r, gameID)
		default:
			http.NotFound(w, r)
		}
	case http.MethodPost:
		switch action {
		case "join":
			s.handleJoinTeam(w, r, gameID)
		case "answers":
			s.handleSubmitAnswer(w, r, gameID)
		case "start":
			s.handleStartGame(w, r, gameID)
		case "pause":
			s.handlePauseGame(w, r, gameID)
		case "resume":
			s.handleResumeGame(w, r, gameID)
		case "end":
			s.handleEndGame(w, r, gameID)
		case "reveal":
			s.handleForceReveal(w, r, gameID)
		case "settings":
			s.handleSettings(w, r, gameID)
		default:
			http.NotFound(w, r)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	if !s.enforceRateLimit(w, r, "create") {
		return
	}
	settings := GameSettings{
		QuestionTimeSeconds: s.cfg.QuestionTimeSeconds,
		TotalQuestions:      s.cfg.TotalQuestions,
		GracePeriodEnabled:  s.cfg.GracePeriodEnabled,
		GracePeriodSeconds:  s.cfg.GracePeriodSeconds,
	}
	var req createGameRequest
	if err := readJSON(r.Body, &req); err == nil {
		if req.QuestionTimeSeconds != 0 {
			settings.QuestionTimeSeconds = req.QuestionTimeSeconds
		}
		if req.TotalQuestions != 0 {
			settings.TotalQuestions = req.TotalQuestions
		}
		if req.GracePeriodEnabled {
			settings.GracePeriodEnabled = true
		}
		if req.GracePeriodSeconds != 0 {
			settings.GracePeriodSeconds = req.GracePeriodSeconds
		}
	}
	if err := validateSettings(settings); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	game := s.store.CreateGame(settings)
	if err := s.persistGame(game); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create game")
		return
	}
	log.Printf("game created game_id=%s join_code=%s", game.ID, game.JoinCode)
	writeJSON(w, http.StatusCreated, map[string]string{
		"game_id":   game.ID,
		"join_code": game.JoinCode,
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request, gameID string) {
	game, ok := s.store.GetGame(gameID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, snapshot(game))
}

func (s *Server) handleJoinTeam(w http.ResponseWriter, r *http.Request, gameID string) {
	if !s.enforceRateLimit(w, r, "join") {
		return
	}
	var req joinRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	name, err := validateTeamName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	game, team, err := s.store.AddTeam(gameID, name, req.Color)
	if err != nil {
		s.writeGameError(w, r, err)
		return
	}
	if err := s.persistTeam(game, team); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to join game")
		return
	}
	log.Printf("team joined game_id=%s team_id=%s team_name=%s", game.ID, team.ID, team.Name)
	writeJSON(w, http.StatusOK, map[string]any{
		"game_id":   game.ID,
		"join_code": game.JoinCode,
		"team_id":   team.ID,
		"name":      team.Name,
		"color":     team.Color,
	})
	s.broadcastTeamUpdate(game, team, "insert")
	s.broadcastGameUpdate(game)
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request, gameID string) {
	if !s.enforceRateLimit(w, r, "answer") {
		return
	}
	var req answerRequest
	if err := readJSON(r.Body, &req); err != nil || req.TeamID == "" || req.AnswerIndex == nil {
		writeError(w, http.StatusBadRequest, "team_id and answer_index are required")
		return
	}

	var entry *AnswerEntry
	var seq int
	duplicate := false
	earlyReveal := false
	questionIndex := 0
	game, err := s.store.UpdateGame(gameID, func(game *Game) error {
		submitted, err := submitAnswer(game, req.TeamID, *req.AnswerIndex)
		if errors.Is(err, errDuplicateAnswer) {
			entry = submitted
			duplicate = true
			return nil
		}
		if err != nil {
			return err
		}
		entry = submitted
		seq = len(game.Answers)
		questionIndex = game.CurrentQuestion
		earlyReveal = allTeamsAnswered(game)
		return nil
	})
	if err != nil {
		s.writeGameError(w, r, err)
		return
	}
	if duplicate {
		// Retries and second tabs land here; the first submission
		// stands.
		writeJSON(w, http.StatusOK, answerPayload(entry))
		return
	}

	team, _ := findTeam(game, req.TeamID)
	if err := s.persistAnswer(game, entry, team); err != nil {
		log.Printf("answer persist failed game_id=%s team_id=%s error=%v", game.ID, req.TeamID, err)
	}
	log.Printf("answer submitted game_id=%s team_id=%s question=%d correct=%t", game.ID, req.TeamID, entry.QuestionIndex, entry.IsCorrect)
	writeJSON(w, http.StatusOK, answerPayload(entry))

	s.broadcastAnswerUpdate(game, entry, seq)
	if team != nil {
		s.broadcastTeamUpdate(game, team, "update")
	}
	if earlyReveal {
		s.tryReveal(game.ID, questionIndex, "all_answered")
	}
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request, gameID string) {
	game, err := s.startGame(gameID)
	if err != nil {
		s.writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot(game))
}

func (s *Server) handlePauseGame(w http.ResponseWriter, r *http.Request, gameID string) {
	game, err := s.pauseGame(gameID)
	if err != nil {
		s.writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot(game))
}

func (s *Server) handleResumeGame(w http.ResponseWriter, r *http.Request, gameID string) {
	game, err := s.resumeGame(gameID)
	if err != nil {
		s.writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot(game))
}

func (s *Server) handleEndGame(w http.ResponseWriter, r *http.Request, gameID string) {
	game, err := s.endGame(gameID)
	if err != nil {
		s.writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot(game))
}

func (s *Server) handleForceReveal(w http.ResponseWriter, r *http.Request, gameID string) {
	game, ok := s.store.GetGame(gameID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	// A second reveal for the same question is a silent no-op.
	s.tryReveal(game.ID, game.CurrentQuestion, "host")
	game, _ = s.store.GetGame(game.ID)
	writeJSON(w, http.StatusOK, snapshot(game))
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request, gameID string) {
	var req settingsRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings")
		return
	}
	game, err := s.store.UpdateGame(gameID, func(game *Game) error {
		if game.Phase != phaseWaiting && game.Phase != phasePaused {
			return errors.New("settings only available while waiting or paused")
		}
		updated := game.Settings
		if req.QuestionTimeSeconds != 0 {
			updated.QuestionTimeSeconds = req.QuestionTimeSeconds
		}
		if req.TotalQuestions != 0 {
			updated.TotalQuestions = req.TotalQuestions
		}
		if req.GracePeriodEnabled != nil {
			updated.GracePeriodEnabled = *req.GracePeriodEnabled
		}
		if req.GracePeriodSeconds != 0 {
			updated.GracePeriodSeconds = req.GracePeriodSeconds
		}
		if err := validateSettings(updated); err != nil {
			return err
		}
		if updated.TotalQuestions <= game.CurrentQuestion {
			return errors.New("total questions is below the current question")
		}
		game.Settings = updated
		// A stored remaining countdown must never exceed the newly
		// configured duration.
		if game.Phase == phasePaused && game.PausedRemaining > updated.QuestionTimeSeconds {
			game.PausedRemaining = updated.QuestionTimeSeconds
		}
		return nil
	})
	if err != nil {
		s.writeGameError(w, r, err)
		return
	}
	if err := s.persistSettings(game); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	log.Printf("settings updated game_id=%s seconds=%d questions=%d grace=%t", game.ID, game.Settings.QuestionTimeSeconds, game.Settings.TotalQuestions, game.Settings.GracePeriodEnabled)
	writeJSON(w, http.StatusOK, snapshot(game))
	s.broadcastGameUpdate(game)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request, gameID string) {
	game, ok := s.store.GetGame(gameID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"game_id": game.ID,
		"phase":   game.Phase,
		"results": resultsPayload(game),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, gameID string) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "events not available")
		return
	}
	game, ok := s.store.GetGame(gameID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if game.DBID == 0 {
		if err := s.ensureGameDBID(game); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load game")
			return
		}
	}
	var records []db.Event
	if err := s.db.Where("game_id = ?", game.DBID).Order("created_at asc").Find(&records).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}
	events := make([]map[string]any, 0, len(records))
	for _, record := range records {
		events = append(events, map[string]any{
			"id":         record.ID,
			"type":       record.Type,
			"team_id":    record.TeamID,
			"created_at": record.CreatedAt,
			"payload":    record.Payload,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"game_id": game.ID,
		"events":  events,
	})
}

func (s *Server) writeGameError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errGameNotFound):
		http.NotFound(w, r)
	case errors.Is(err, errInvalidAnswer):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusConflict, err.Error())
	}
}

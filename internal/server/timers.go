package server

import "time"

// One timer slot per game. The grace countdown, the answer countdown,
// and the two reveal stages are strictly sequential, so a later
// schedule replaces whatever was pending. Every callback revalidates
// phase and question index inside the store lock, so a stale fire is a
// no-op.

func (s *Server) scheduleQuestionTimers(game *Game) {
	if game.Settings.GracePeriodEnabled && !game.AnsweringEnabled {
		s.scheduleGraceTimer(game)
		return
	}
	s.scheduleCountdown(game, game.Settings.QuestionTimeSeconds)
}

func (s *Server) scheduleGraceTimer(game *Game) {
	gameID := game.ID
	question := game.CurrentQuestion
	seconds := game.Settings.GracePeriodSeconds
	s.setPhaseTimer(gameID, time.Duration(seconds)*time.Second, func() {
		s.openAnswerWindow(gameID, question)
	})
}

func (s *Server) scheduleCountdown(game *Game, seconds int) {
	gameID := game.ID
	question := game.CurrentQuestion
	if seconds <= 0 {
		s.cancelPhaseTimer(gameID)
		go s.tryReveal(gameID, question, "timeout")
		return
	}
	s.setPhaseTimer(gameID, time.Duration(seconds)*time.Second, func() {
		s.tryReveal(gameID, question, "timeout")
	})
}

func (s *Server) scheduleRevealStage(game *Game) {
	gameID := game.ID
	question := game.CurrentQuestion
	switch game.RevealStage {
	case revealStageAnswer:
		seconds := s.cfg.RevealAnswerSeconds
		s.setPhaseTimer(gameID, time.Duration(seconds)*time.Second, func() {
			s.advanceRevealStage(gameID, question)
		})
	case revealStageWinners:
		seconds := s.cfg.RevealWinnersSeconds
		s.setPhaseTimer(gameID, time.Duration(seconds)*time.Second, func() {
			s.advanceQuestion(gameID, question)
		})
	}
}

func (s *Server) setPhaseTimer(gameID string, d time.Duration, fire func()) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if existing, ok := s.timers[gameID]; ok {
		existing.Stop()
	}
	s.timers[gameID] = time.AfterFunc(d, fire)
}

func (s *Server) cancelPhaseTimer(gameID string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if timer, ok := s.timers[gameID]; ok {
		timer.Stop()
		delete(s.timers, gameID)
	}
}

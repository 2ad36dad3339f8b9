package server

import (
	"context"
	"log"
	"sort"
	"time"
)

func setPhase(game *Game, phase string) {
	setPhaseAt(game, phase, timeNowUTC())
}

func setPhaseAt(game *Game, phase string, at time.Time) {
	game.Phase = phase
	if at.IsZero() {
		at = timeNowUTC()
	}
	game.PhaseStartedAt = at
}

func installQuestion(game *Game, question *Question) {
	game.Question = question
	game.NextQuestion = nil
	game.QuestionLoading = false
	game.UsedQuestions[question.Text] = struct{}{}
}

// armAnswerWindow either opens the answer window immediately or closes
// the gate for the read-aloud grace period. The grace timer is
// scheduled by the caller.
func armAnswerWindow(game *Game, at time.Time) {
	if game.Settings.GracePeriodEnabled {
		game.AnsweringEnabled = false
		game.QuestionStartedAt = nil
		return
	}
	game.AnsweringEnabled = true
	game.QuestionStartedAt = &at
}

// remainingSeconds reports how much of the answer countdown is left.
// Never negative.
func remainingSeconds(game *Game, now time.Time) int {
	duration := game.Settings.QuestionTimeSeconds
	if !game.AnsweringEnabled || game.QuestionStartedAt == nil {
		return duration
	}
	elapsed := int(now.Sub(*game.QuestionStartedAt) / time.Second)
	remaining := duration - elapsed
	if remaining < 0 {
		return 0
	}
	if remaining > duration {
		return duration
	}
	return remaining
}

func (s *Server) startGame(gameID string) (*Game, error) {
	game, err := s.store.UpdateGame(gameID, func(game *Game) error {
		if game.Phase != phaseWaiting {
			return errGameNotWaiting
		}
		if len(game.Teams) == 0 {
			return errNoTeams
		}
		if game.QuestionLoading {
			return errQuestionNotLoaded
		}
		game.QuestionLoading = true
		return nil
	})
	if err != nil {
		return game, err
	}

	generated := s.fetchQuestion(context.Background(), 0)

	now := timeNowUTC()
	game, err = s.store.UpdateGame(gameID, func(game *Game) error {
		if game.Phase != phaseWaiting {
			return errGameNotWaiting
		}
		question := generated
		if !validQuestion(question) {
			bank := questionFromBank(game)
			question = &bank
		}
		game.CurrentQuestion = 0
		game.Revealed = false
		game.RevealStage = ""
		for i := range game.Teams {
			game.Teams[i].HasAnswered = false
		}
		installQuestion(game, question)
		armAnswerWindow(game, now)
		setPhaseAt(game, phasePlaying, now)
		return nil
	})
	if err != nil {
		s.clearQuestionLoading(gameID)
		return game, err
	}

	s.scheduleQuestionTimers(game)
	s.prefetchNextQuestion(game.ID, game.CurrentQuestion+1)
	if err := s.persistPhase(game, "game_started", EventPayload{Phase: game.Phase, QuestionIndex: game.CurrentQuestion}); err != nil {
		log.Printf("start persist failed game_id=%s error=%v", game.ID, err)
	}
	log.Printf("game started game_id=%s teams=%d", game.ID, len(game.Teams))
	s.broadcastGameUpdate(game)
	return game, nil
}

func (s *Server) clearQuestionLoading(gameID string) {
	_, _ = s.store.UpdateGame(gameID, func(game *Game) error {
		game.QuestionLoading = false
		return nil
	})
}

// openAnswerWindow fires when the read-aloud grace period elapses. It
// stamps the window start and kicks off the countdown.
func (s *Server) openAnswerWindow(gameID string, expectedQuestion int) {
	now := timeNowUTC()
	game, err := s.store.UpdateGame(gameID, func(game *Game) error {
		if game.Phase != phasePlaying || game.CurrentQuestion != expectedQuestion {
			return errGameNotPlaying
		}
		if game.AnsweringEnabled {
			return errAnswersNotOpen
		}
		game.AnsweringEnabled = true
		game.QuestionStartedAt = &now
		return nil
	})
	if err != nil {
		return
	}
	s.scheduleCountdown(game, game.Settings.QuestionTimeSeconds)
	if err := s.persistPhase(game, "answers_opened", EventPayload{QuestionIndex: game.CurrentQuestion}); err != nil {
		log.Printf("answers-open persist failed game_id=%s error=%v", game.ID, err)
	}
	s.broadcastGameUpdate(game)
}

// tryReveal is the single entry point for closing the answer window.
// The countdown expiry, the all-teams-answered check, and the host
// override all land here; the per-question Revealed flag makes
// whichever fires first win and the rest no-ops.
func (s *Server) tryReveal(gameID string, expectedQuestion int, reason string) {
	game, err := s.store.UpdateGame(gameID, func(game *Game) error {
		if game.Phase != phasePlaying {
			return errGameNotPlaying
		}
		if game.CurrentQuestion != expectedQuestion {
			return errAlreadyRevealed
		}
		if game.Revealed {
			return errAlreadyRevealed
		}
		game.Revealed = true
		game.AnsweringEnabled = false
		game.RevealStage = revealStageAnswer
		applyScores(game, expectedQuestion, s.policy)
		setPhase(game, phaseRevealing)
		return nil
	})
	if err != nil {
		return
	}
	if err := s.persistScores(game, expectedQuestion); err != nil {
		log.Printf("score persist failed game_id=%s question=%d error=%v", game.ID, expectedQuestion, err)
	}
	if err := s.persistPhase(game, "question_revealed", EventPayload{
		Phase:         game.Phase,
		QuestionIndex: expectedQuestion,
		Reason:        reason,
	}); err != nil {
		log.Printf("reveal persist failed game_id=%s error=%v", game.ID, err)
	}
	log.Printf("question revealed game_id=%s question=%d reason=%s", game.ID, expectedQuestion, reason)
	s.broadcastGameUpdate(game)
	s.scheduleRevealStage(game)
}

// advanceRevealStage moves the reveal from showing the correct answer
// to showing the ranked winners.
func (s *Server) advanceRevealStage(gameID string, expectedQuestion int) {
	game, err := s.store.UpdateGame(gameID, func(game *Game) error {
		if game.Phase != phaseRevealing || game.CurrentQuestion != expectedQuestion {
			return errAlreadyRevealed
		}
		if game.RevealStage != revealStageAnswer {
			return errAlreadyRevealed
		}
		game.RevealStage = revealStageWinners
		return nil
	})
	if err != nil {
		return
	}
	s.broadcastGameUpdate(game)
	s.scheduleRevealStage(game)
}

// advanceQuestion runs after the winners stage. It either finishes the
// game or moves to the next question, consuming the prefetched
// question when one is ready.
func (s *Server) advanceQuestion(gameID string, expectedQuestion int) {
	now := timeNowUTC()
	finished := false
	needsFetch := false
	game, err := s.store.UpdateGame(gameID, func(game *Game) error {
		if game.Phase != phaseRevealing || game.CurrentQuestion != expectedQuestion {
			return errAlreadyRevealed
		}
		next := game.CurrentQuestion + 1
		if next >= game.Settings.TotalQuestions {
			setPhaseAt(game, phaseFinished, now)
			finished = true
			return nil
		}
		game.CurrentQuestion = next
		game.Revealed = false
		game.RevealStage = ""
		game.AnsweringEnabled = false
		game.QuestionStartedAt = nil
		for i := range game.Teams {
			game.Teams[i].HasAnswered = false
		}
		if validQuestion(game.NextQuestion) {
			installQuestion(game, game.NextQuestion)
			armAnswerWindow(game, now)
			setPhaseAt(game, phasePlaying, now)
			return nil
		}
		// Prefetch missed; block progress behind a visible loading
		// state and fetch synchronously.
		game.Question = nil
		game.QuestionLoading = true
		setPhaseAt(game, phasePlaying, now)
		needsFetch = true
		return nil
	})
	if err != nil {
		return
	}

	if finished {
		s.cancelPhaseTimer(game.ID)
		if err := s.persistPhase(game, "game_finished", EventPayload{Phase: game.Phase}); err != nil {
			log.Printf("finish persist failed game_id=%s error=%v", game.ID, err)
		}
		log.Printf("game finished game_id=%s questions=%d", game.ID, expectedQuestion+1)
		s.broadcastGameUpdate(game)
		return
	}

	if needsFetch {
		s.broadcastGameUpdate(game)
		game, err = s.finishQuestionLoad(gameID)
		if err != nil {
			return
		}
		if game.Phase == phasePaused {
			// The host paused while the fetch was in flight. The
			// question is installed; resume opens the window.
			if err := s.persistPhase(game, "question_advanced", EventPayload{Phase: game.Phase, QuestionIndex: game.CurrentQuestion}); err != nil {
				log.Printf("advance persist failed game_id=%s error=%v", game.ID, err)
			}
			s.broadcastGameUpdate(game)
			return
		}
	}

	s.scheduleQuestionTimers(game)
	s.prefetchNextQuestion(game.ID, game.CurrentQuestion+1)
	if err := s.persistPhase(game, "question_advanced", EventPayload{Phase: game.Phase, QuestionIndex: game.CurrentQuestion}); err != nil {
		log.Printf("advance persist failed game_id=%s error=%v", game.ID, err)
	}
	s.broadcastGameUpdate(game)
}

// finishQuestionLoad completes a question fetch that is still owed,
// installing the result or the bank fallback. The window opens only
// when the game is playing; a pause that landed mid-fetch keeps the
// installed question gated until resume. Safe to call again after an
// interrupted attempt.
func (s *Server) finishQuestionLoad(gameID string) (*Game, error) {
	game, ok := s.store.GetGame(gameID)
	if !ok {
		return nil, errGameNotFound
	}
	generated := s.fetchQuestion(context.Background(), game.CurrentQuestion)
	windowAt := timeNowUTC()
	return s.store.UpdateGame(gameID, func(game *Game) error {
		if !game.QuestionLoading {
			return errQuestionNotLoaded
		}
		if game.Phase != phasePlaying && game.Phase != phasePaused {
			return errGameNotPlaying
		}
		question := generated
		if !validQuestion(question) {
			bank := questionFromBank(game)
			question = &bank
		}
		installQuestion(game, question)
		if game.Phase == phasePlaying {
			armAnswerWindow(game, windowAt)
		}
		return nil
	})
}

// fetchQuestion asks the generator for a question. A nil return means
// the caller should fall back to the built-in bank.
func (s *Server) fetchQuestion(ctx context.Context, questionNumber int) *Question {
	if s.cfg.OpenAIAPIKey == "" {
		return nil
	}
	question, err := s.generateQuestion(ctx, questionNumber)
	if err != nil {
		log.Printf("question generation failed number=%d error=%v", questionNumber, err)
		return nil
	}
	return question
}

// prefetchNextQuestion warms the next question in the background so
// advancing rarely has to block on the generator.
func (s *Server) prefetchNextQuestion(gameID string, questionNumber int) {
	if s.cfg.OpenAIAPIKey == "" {
		return
	}
	go func() {
		question := s.fetchQuestion(context.Background(), questionNumber)
		if question == nil {
			return
		}
		_, _ = s.store.UpdateGame(gameID, func(game *Game) error {
			if game.CurrentQuestion != questionNumber-1 {
				return errAlreadyRevealed
			}
			game.NextQuestion = question
			return nil
		})
	}()
}

func (s *Server) pauseGame(gameID string) (*Game, error) {
	now := timeNowUTC()
	game, err := s.store.UpdateGame(gameID, func(game *Game) error {
		if game.Phase != phasePlaying && game.Phase != phaseRevealing {
			return errGameNotPlaying
		}
		game.PausedPhase = game.Phase
		game.PausedRemaining = remainingSeconds(game, now)
		setPhaseAt(game, phasePaused, now)
		return nil
	})
	if err != nil {
		return game, err
	}
	s.cancelPhaseTimer(game.ID)
	if err := s.persistPhase(game, "game_paused", EventPayload{Phase: game.Phase}); err != nil {
		log.Printf("pause persist failed game_id=%s error=%v", game.ID, err)
	}
	log.Printf("game paused game_id=%s remaining=%d", game.ID, game.PausedRemaining)
	s.broadcastGameUpdate(game)
	return game, nil
}

func (s *Server) resumeGame(gameID string) (*Game, error) {
	now := timeNowUTC()
	resumedCountdown := 0
	game, err := s.store.UpdateGame(gameID, func(game *Game) error {
		if game.Phase != phasePaused {
			return errGameNotPaused
		}
		resumed := game.PausedPhase
		if resumed == "" {
			resumed = phasePlaying
		}
		switch {
		case resumed == phasePlaying && game.AnsweringEnabled:
			// Settings may have shrunk the question duration while
			// paused; the resumed countdown must never exceed it.
			remaining := game.PausedRemaining
			if remaining > game.Settings.QuestionTimeSeconds {
				remaining = game.Settings.QuestionTimeSeconds
			}
			startedAt := now.Add(-time.Duration(game.Settings.QuestionTimeSeconds-remaining) * time.Second)
			game.QuestionStartedAt = &startedAt
			resumedCountdown = remaining
		case resumed == phasePlaying && game.Question != nil && !game.QuestionLoading && !game.Settings.GracePeriodEnabled:
			// The pause landed before the window opened. Open it now
			// with the full countdown.
			game.AnsweringEnabled = true
			game.QuestionStartedAt = &now
			resumedCountdown = game.Settings.QuestionTimeSeconds
		}
		game.PausedPhase = ""
		game.PausedRemaining = 0
		setPhaseAt(game, resumed, now)
		return nil
	})
	if err != nil {
		return game, err
	}
	switch {
	case game.Phase == phaseRevealing:
		s.scheduleRevealStage(game)
	case game.Phase == phasePlaying && game.QuestionLoading:
		// A question fetch was interrupted mid-flight; finish it
		// before any countdown starts.
		s.broadcastGameUpdate(game)
		loaded, loadErr := s.finishQuestionLoad(game.ID)
		if loadErr == nil {
			game = loaded
			s.scheduleQuestionTimers(game)
			s.prefetchNextQuestion(game.ID, game.CurrentQuestion+1)
		}
	case game.Phase == phasePlaying && !game.AnsweringEnabled && game.Settings.GracePeriodEnabled:
		s.scheduleGraceTimer(game)
	case game.Phase == phasePlaying && game.AnsweringEnabled:
		s.scheduleCountdown(game, resumedCountdown)
	}
	if err := s.persistPhase(game, "game_resumed", EventPayload{Phase: game.Phase}); err != nil {
		log.Printf("resume persist failed game_id=%s error=%v", game.ID, err)
	}
	log.Printf("game resumed game_id=%s phase=%s", game.ID, game.Phase)
	s.broadcastGameUpdate(game)
	return game, nil
}

func (s *Server) endGame(gameID string) (*Game, error) {
	game, err := s.store.UpdateGame(gameID, func(game *Game) error {
		if game.Phase == phaseFinished {
			return errGameFinished
		}
		setPhase(game, phaseFinished)
		return nil
	})
	if err != nil {
		return game, err
	}
	s.cancelPhaseTimer(game.ID)
	if err := s.persistPhase(game, "game_ended", EventPayload{Phase: game.Phase, Reason: "host"}); err != nil {
		log.Printf("end persist failed game_id=%s error=%v", game.ID, err)
	}
	log.Printf("game ended game_id=%s", game.ID)
	s.broadcastGameUpdate(game)
	return game, nil
}

// rankTeams orders teams by score descending; ties keep join order.
func rankTeams(game *Game) []Team {
	ranked := make([]Team, len(game.Teams))
	copy(ranked, game.Teams)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].JoinedAt.Before(ranked[j].JoinedAt)
	})
	return ranked
}

func allTeamsAnswered(game *Game) bool {
	if len(game.Teams) == 0 {
		return false
	}
	for i := range game.Teams {
		if !game.Teams[i].HasAnswered {
			return false
		}
	}
	return true
}

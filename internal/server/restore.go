package server

import (
	"encoding/json"
	"log"

	"trivia-night/internal/db"
)

// RestoreActiveGames reloads every unfinished game from the durable
// store into memory after a restart. Games that were mid-question come
// back paused so the host can resume with a sane countdown.
func (s *Server) RestoreActiveGames() error {
	if s.db == nil {
		return nil
	}
	var records []db.Game
	if err := s.db.Where("phase <> ?", phaseFinished).Find(&records).Error; err != nil {
		return err
	}
	restored := 0
	for i := range records {
		game, err := s.loadGame(&records[i])
		if err != nil {
			log.Printf("game restore failed join_code=%s error=%v", records[i].JoinCode, err)
			continue
		}
		if err := s.store.RestoreGame(game); err != nil {
			log.Printf("game restore skipped game_id=%s error=%v", game.ID, err)
			continue
		}
		restored++
	}
	if restored > 0 {
		log.Printf("games restored count=%d", restored)
	}
	return nil
}

func (s *Server) loadGame(record *db.Game) (*Game, error) {
	game := gameFromRecord(record)

	var teamRecords []db.Team
	if err := s.db.Where("game_id = ?", record.ID).Order("joined_at asc").Find(&teamRecords).Error; err != nil {
		return nil, err
	}
	teamsByDBID := make(map[uint]string, len(teamRecords))
	for i := range teamRecords {
		team := teamFromRecord(&teamRecords[i])
		teamsByDBID[team.DBID] = team.ID
		game.Teams = append(game.Teams, team)
	}

	var answerRecords []db.Answer
	if err := s.db.Where("game_id = ?", record.ID).Order("answered_at asc").Find(&answerRecords).Error; err != nil {
		return nil, err
	}
	for i := range answerRecords {
		entry := answerFromRecord(&answerRecords[i])
		entry.TeamID = teamsByDBID[answerRecords[i].TeamID]
		game.Answers = append(game.Answers, entry)
	}
	markRevealedFromLedger(game)
	return game, nil
}

// markRevealedFromLedger flags the current question as revealed when
// its points are already on the board. Paused rows don't record which
// sub-phase they froze, and a question must never score twice.
func markRevealedFromLedger(game *Game) {
	if game.Revealed {
		return
	}
	for i := range game.Answers {
		entry := &game.Answers[i]
		if entry.QuestionIndex != game.CurrentQuestion || entry.PointsEarned <= 0 {
			continue
		}
		game.Revealed = true
		game.RevealStage = revealStageAnswer
		game.AnsweringEnabled = false
		game.QuestionLoading = false
		if game.PausedPhase == phasePlaying {
			game.PausedPhase = phaseRevealing
		}
		return
	}
}

// gameFromRecord rebuilds the in-memory session from its row. The
// inverse of what persistGame/persistPhase write: phase, question
// index, the question snapshot, and settings all survive the
// round-trip.
func gameFromRecord(record *db.Game) *Game {
	game := &Game{
		ID:              record.PublicID,
		DBID:            record.ID,
		JoinCode:        record.JoinCode,
		Phase:           record.Phase,
		CurrentQuestion: record.CurrentQuestion,
		Settings: GameSettings{
			QuestionTimeSeconds: record.QuestionTimeSeconds,
			TotalQuestions:      record.TotalQuestions,
			GracePeriodEnabled:  record.GracePeriodEnabled,
			GracePeriodSeconds:  record.GracePeriodSeconds,
		},
		UsedQuestions: make(map[string]struct{}),
	}
	if len(record.QuestionJSON) > 0 {
		var question Question
		if err := json.Unmarshal([]byte(record.QuestionJSON), &question); err == nil && validQuestion(&question) {
			game.Question = &question
			game.UsedQuestions[question.Text] = struct{}{}
		}
	}
	// No timers survive a restart; anything that was mid-countdown
	// comes back paused with the full window available on resume. A
	// game that was revealing already has its points on the board, so
	// it must come back revealed or the question would score twice.
	switch record.Phase {
	case phasePlaying, phasePaused:
		game.PausedPhase = phasePlaying
		game.PausedRemaining = record.QuestionTimeSeconds
		game.AnsweringEnabled = record.AnsweringEnabled
		game.Phase = phasePaused
		if game.Question == nil {
			// The question snapshot is gone; resume refetches it.
			game.QuestionLoading = true
			game.AnsweringEnabled = false
		}
	case phaseRevealing:
		game.PausedPhase = phaseRevealing
		game.PausedRemaining = record.QuestionTimeSeconds
		game.Revealed = true
		game.RevealStage = revealStageAnswer
		game.AnsweringEnabled = false
		game.Phase = phasePaused
	default:
		game.AnsweringEnabled = record.AnsweringEnabled
	}
	game.PhaseStartedAt = record.UpdatedAt
	return game
}

func teamFromRecord(record *db.Team) Team {
	return Team{
		ID:          record.PublicID,
		DBID:        record.ID,
		Name:        record.Name,
		Color:       record.Color,
		Score:       record.Score,
		HasAnswered: record.HasAnswered,
		JoinedAt:    record.JoinedAt,
	}
}

func answerFromRecord(record *db.Answer) AnswerEntry {
	return AnswerEntry{
		ID:            newID(),
		DBID:          record.ID,
		QuestionIndex: record.QuestionIndex,
		AnswerIndex:   record.AnswerIndex,
		IsCorrect:     record.IsCorrect,
		TimeTakenMs:   record.TimeTakenMs,
		PointsEarned:  record.PointsEarned,
		AnsweredAt:    record.AnsweredAt,
	}
}

package server

import (
	"encoding/json"
	"errors"

	"trivia-night/internal/db"

	"github.com/jackc/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Server) persistGame(game *Game) error {
	if s.db == nil {
		return nil
	}
	record := db.Game{
		PublicID:            game.ID,
		JoinCode:            game.JoinCode,
		Phase:               game.Phase,
		QuestionTimeSeconds: game.Settings.QuestionTimeSeconds,
		TotalQuestions:      game.Settings.TotalQuestions,
		GracePeriodEnabled:  game.Settings.GracePeriodEnabled,
		GracePeriodSeconds:  game.Settings.GracePeriodSeconds,
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}
	game.DBID = record.ID
	return s.persistEvent(game, nil, "game_created", EventPayload{
		GameID:   game.ID,
		JoinCode: game.JoinCode,
	})
}

func (s *Server) persistTeam(game *Game, team *Team) error {
	if s.db == nil {
		return nil
	}
	if team.DBID != 0 {
		return nil
	}
	if err := s.ensureGameDBID(game); err != nil {
		return err
	}
	record := db.Team{
		GameID:   game.DBID,
		PublicID: team.ID,
		Name:     team.Name,
		Color:    team.Color,
		JoinedAt: team.JoinedAt,
	}
	if err := s.db.Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := s.findTeamDBID(game.DBID, team.Name)
			if lookupErr == nil && existing != 0 {
				team.DBID = existing
				return nil
			}
		}
		return err
	}
	team.DBID = record.ID
	return s.persistEvent(game, team, "team_joined", EventPayload{
		TeamID:   team.ID,
		TeamName: team.Name,
	})
}

// persistAnswer writes a ledger entry. The unique index on
// (team_id, question_index) is the backstop against duplicate
// submissions racing past the in-memory guard; a violation means the
// row is already there and the write is dropped.
func (s *Server) persistAnswer(game *Game, entry *AnswerEntry, team *Team) error {
	if s.db == nil {
		return nil
	}
	if entry.DBID != 0 {
		return nil
	}
	if err := s.ensureGameDBID(game); err != nil {
		return err
	}
	if team == nil || team.DBID == 0 {
		return errors.New("team not persisted")
	}
	record := db.Answer{
		GameID:        game.DBID,
		TeamID:        team.DBID,
		QuestionIndex: entry.QuestionIndex,
		AnswerIndex:   entry.AnswerIndex,
		IsCorrect:     entry.IsCorrect,
		TimeTakenMs:   entry.TimeTakenMs,
		AnsweredAt:    entry.AnsweredAt,
	}
	if err := s.db.Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	entry.DBID = record.ID
	if err := s.db.Model(&db.Team{}).Where("id = ?", team.DBID).Update("has_answered", true).Error; err != nil {
		return err
	}
	return s.persistEvent(game, team, "answer_submitted", EventPayload{
		TeamID:        team.ID,
		QuestionIndex: entry.QuestionIndex,
		AnswerIndex:   entry.AnswerIndex,
	})
}

// persistScores flushes the points awarded during a reveal, in one
// transaction so a crash can't leave half the scores applied.
func (s *Server) persistScores(game *Game, questionIndex int) error {
	if s.db == nil {
		return nil
	}
	if err := s.ensureGameDBID(game); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		for i := range game.Answers {
			entry := &game.Answers[i]
			if entry.QuestionIndex != questionIndex || entry.DBID == 0 {
				continue
			}
			if err := tx.Model(&db.Answer{}).Where("id = ?", entry.DBID).
				Update("points_earned", entry.PointsEarned).Error; err != nil {
				return err
			}
		}
		for i := range game.Teams {
			team := &game.Teams[i]
			if team.DBID == 0 {
				continue
			}
			if err := tx.Model(&db.Team{}).Where("id = ?", team.DBID).
				Update("score", team.Score).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Server) persistPhase(game *Game, eventType string, payload EventPayload) error {
	if s.db == nil {
		return nil
	}
	if err := s.ensureGameDBID(game); err != nil {
		return err
	}
	updates := map[string]any{
		"phase":                 game.Phase,
		"current_question":      game.CurrentQuestion,
		"answering_enabled":     game.AnsweringEnabled,
		"question_start_time":   game.QuestionStartedAt,
		"question_time_seconds": game.Settings.QuestionTimeSeconds,
		"total_questions":       game.Settings.TotalQuestions,
	}
	if data := questionJSON(game.Question); data != nil {
		updates["question_json"] = data
	}
	if err := s.db.Model(&db.Game{}).Where("id = ?", game.DBID).Updates(updates).Error; err != nil {
		return err
	}
	// Keep the per-question flags in storage in step with memory;
	// advancing resets them for every team at once.
	for i := range game.Teams {
		team := &game.Teams[i]
		if team.DBID == 0 {
			continue
		}
		if err := s.db.Model(&db.Team{}).Where("id = ?", team.DBID).
			Update("has_answered", team.HasAnswered).Error; err != nil {
			return err
		}
	}
	return s.persistEvent(game, nil, eventType, payload)
}

func (s *Server) persistSettings(game *Game) error {
	if s.db == nil {
		return nil
	}
	if err := s.ensureGameDBID(game); err != nil {
		return err
	}
	return s.db.Model(&db.Game{}).Where("id = ?", game.DBID).Updates(map[string]any{
		"question_time_seconds": game.Settings.QuestionTimeSeconds,
		"total_questions":       game.Settings.TotalQuestions,
		"grace_period_enabled":  game.Settings.GracePeriodEnabled,
		"grace_period_seconds":  game.Settings.GracePeriodSeconds,
	}).Error
}

func (s *Server) persistEvent(game *Game, team *Team, eventType string, payload EventPayload) error {
	if s.db == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	record := db.Event{
		GameID:  game.DBID,
		Type:    eventType,
		Payload: datatypes.JSON(data),
	}
	if team != nil && team.DBID != 0 {
		record.TeamID = &team.DBID
	}
	return s.db.Create(&record).Error
}

func (s *Server) ensureGameDBID(game *Game) error {
	if s.db == nil || game.DBID != 0 {
		return nil
	}
	var record db.Game
	if err := s.db.Where("public_id = ?", game.ID).First(&record).Error; err != nil {
		return err
	}
	game.DBID = record.ID
	return nil
}

func (s *Server) findTeamDBID(gameDBID uint, name string) (uint, error) {
	var record db.Team
	if err := s.db.Where("game_id = ? AND name = ?", gameDBID, name).First(&record).Error; err != nil {
		return 0, err
	}
	return record.ID, nil
}

func questionJSON(question *Question) datatypes.JSON {
	if question == nil {
		return nil
	}
	data, err := json.Marshal(question)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

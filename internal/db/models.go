package db

import (
	"time"

	"gorm.io/datatypes"
)

type Game struct {
	ID                  uint   `gorm:"primaryKey"`
	PublicID            string `gorm:"size:36;uniqueIndex;not null"`
	JoinCode            string `gorm:"size:12;uniqueIndex;not null"`
	Phase               string `gorm:"size:32;not null"`
	CurrentQuestion     int    `gorm:"not null;default:0"`
	QuestionJSON        datatypes.JSON
	QuestionStartTime   *time.Time
	AnsweringEnabled    bool      `gorm:"not null;default:false"`
	QuestionTimeSeconds int       `gorm:"not null"`
	TotalQuestions      int       `gorm:"not null"`
	GracePeriodEnabled  bool      `gorm:"not null;default:false"`
	GracePeriodSeconds  int       `gorm:"not null;default:0"`
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
	Teams               []Team
	Answers             []Answer
	Events              []Event
}

type Team struct {
	ID          uint      `gorm:"primaryKey"`
	GameID      uint      `gorm:"index;not null;uniqueIndex:idx_teams_game_name"`
	PublicID    string    `gorm:"size:36;uniqueIndex;not null"`
	Name        string    `gorm:"size:64;not null;uniqueIndex:idx_teams_game_name"`
	Color       string    `gorm:"size:16;not null"`
	Score       int       `gorm:"not null;default:0"`
	HasAnswered bool      `gorm:"not null;default:false"`
	JoinedAt    time.Time `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
	Answers     []Answer
	Events      []Event
}

type Answer struct {
	ID            uint      `gorm:"primaryKey"`
	GameID        uint      `gorm:"index;not null"`
	TeamID        uint      `gorm:"index;not null;uniqueIndex:idx_answers_team_question"`
	QuestionIndex int       `gorm:"not null;uniqueIndex:idx_answers_team_question"`
	AnswerIndex   int       `gorm:"not null"`
	IsCorrect     bool      `gorm:"not null"`
	TimeTakenMs   int64     `gorm:"not null;default:0"`
	PointsEarned  int       `gorm:"not null;default:0"`
	AnsweredAt    time.Time `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

type RecentQuestion struct {
	ID           uint   `gorm:"primaryKey"`
	QuestionText string `gorm:"size:280;not null"`
	Difficulty   string `gorm:"size:16;not null"`
	AnswersJSON  datatypes.JSON
	CorrectIndex int       `gorm:"not null"`
	AskedAt      time.Time `gorm:"index;not null"`
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	GameID    uint           `gorm:"index;not null"`
	TeamID    *uint          `gorm:"index"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}

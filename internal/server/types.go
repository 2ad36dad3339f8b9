package server

import "time"

const (
	phaseWaiting   = "waiting"
	phasePlaying   = "playing"
	phasePaused    = "paused"
	phaseRevealing = "revealing"
	phaseFinished  = "finished"
)

const (
	revealStageAnswer  = "answer"
	revealStageWinners = "winners"
)

const (
	difficultyEasy     = "easy"
	difficultyMedium   = "medium"
	difficultyHard     = "hard"
	difficultyVeryHard = "very_hard"
)

const answerOptionCount = 4

type GameSummary struct {
	ID       string
	JoinCode string
	Phase    string
	Teams    int
}

type GameSettings struct {
	QuestionTimeSeconds int
	TotalQuestions      int
	GracePeriodEnabled  bool
	GracePeriodSeconds  int
}

type Question struct {
	Text       string   `json:"question"`
	Answers    []string `json:"answers"`
	Correct    int      `json:"correct"`
	Difficulty string   `json:"difficulty"`
}

type Game struct {
	ID                string
	DBID              uint
	JoinCode          string
	Phase             string
	PhaseStartedAt    time.Time
	CurrentQuestion   int
	Question          *Question
	NextQuestion      *Question
	QuestionLoading   bool
	QuestionStartedAt *time.Time
	AnsweringEnabled  bool
	Revealed          bool
	RevealStage       string
	PausedPhase       string
	PausedRemaining   int
	Settings          GameSettings
	Teams             []Team
	Answers           []AnswerEntry
	UsedQuestions     map[string]struct{}
}

type Team struct {
	ID          string
	DBID        uint
	Name        string
	Color       string
	Score       int
	HasAnswered bool
	JoinedAt    time.Time
}

type AnswerEntry struct {
	ID            string
	DBID          uint
	TeamID        string
	QuestionIndex int
	AnswerIndex   int
	IsCorrect     bool
	TimeTakenMs   int64
	PointsEarned  int
	AnsweredAt    time.Time
}

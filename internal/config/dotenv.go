package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	QuestionTimeSeconds      int
	TotalQuestions           int
	GracePeriodEnabled       bool
	GracePeriodSeconds       int
	RevealAnswerSeconds      int
	RevealWinnersSeconds     int
	RecentQuestionLimit      int
	ScorePolicy              string
	PublicBaseURL            string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
	OpenAIAPIKey             string
	OpenAIModel              string
}

func Default() Config {
	return Config{
		QuestionTimeSeconds:      20,
		TotalQuestions:           10,
		GracePeriodEnabled:       false,
		GracePeriodSeconds:       8,
		RevealAnswerSeconds:      5,
		RevealWinnersSeconds:     5,
		RecentQuestionLimit:      30,
		ScorePolicy:              "speed_table",
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		OpenAIModel:              "gpt-4o-mini",
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("QUESTION_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.QuestionTimeSeconds = value
		}
	}
	if raw := os.Getenv("TOTAL_QUESTIONS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.TotalQuestions = value
		}
	}
	if raw := os.Getenv("GRACE_PERIOD"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.GracePeriodEnabled = value
		}
	}
	if raw := os.Getenv("GRACE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.GracePeriodSeconds = value
		}
	}
	if raw := os.Getenv("REVEAL_ANSWER_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.RevealAnswerSeconds = value
		}
	}
	if raw := os.Getenv("REVEAL_WINNERS_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.RevealWinnersSeconds = value
		}
	}
	if raw := os.Getenv("RECENT_QUESTION_LIMIT"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.RecentQuestionLimit = value
		}
	}
	if raw := os.Getenv("SCORE_POLICY"); raw != "" {
		cfg.ScorePolicy = raw
	}
	if raw := os.Getenv("PUBLIC_BASE_URL"); raw != "" {
		cfg.PublicBaseURL = raw
	}
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
	if raw := os.Getenv("OPENAI_API_KEY"); raw != "" {
		cfg.OpenAIAPIKey = raw
	}
	if raw := os.Getenv("OPENAI_MODEL"); raw != "" {
		cfg.OpenAIModel = raw
	}
	return cfg
}

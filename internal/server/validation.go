package server

import (
	"errors"
	"fmt"
	"strings"
)

const (
	maxTeamNameLength = 20

	minQuestionSeconds = 10
	maxQuestionSeconds = 60
	minTotalQuestions  = 5
	maxTotalQuestions  = 50
	minGraceSeconds    = 3
	maxGraceSeconds    = 15
)

func validateTeamName(name string) (string, error) {
	trimmed := normalizeText(name)
	if trimmed == "" {
		return "", errors.New("name is required")
	}
	if len(trimmed) > maxTeamNameLength {
		return "", fmt.Errorf("name must be %d characters or fewer", maxTeamNameLength)
	}
	if !isSafeText(trimmed) {
		return "", errors.New("name contains unsupported characters")
	}
	return trimmed, nil
}

func validateSettings(settings GameSettings) error {
	if settings.QuestionTimeSeconds < minQuestionSeconds || settings.QuestionTimeSeconds > maxQuestionSeconds {
		return fmt.Errorf("question time must be between %d and %d seconds", minQuestionSeconds, maxQuestionSeconds)
	}
	if settings.TotalQuestions < minTotalQuestions || settings.TotalQuestions > maxTotalQuestions {
		return fmt.Errorf("total questions must be between %d and %d", minTotalQuestions, maxTotalQuestions)
	}
	if settings.GracePeriodEnabled {
		if settings.GracePeriodSeconds < minGraceSeconds || settings.GracePeriodSeconds > maxGraceSeconds {
			return fmt.Errorf("grace period must be between %d and %d seconds", minGraceSeconds, maxGraceSeconds)
		}
	}
	return nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}

func isSafeText(text string) bool {
	for _, r := range text {
		if r > 127 {
			return false
		}
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= 'A' && r <= 'Z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		switch r {
		case ' ', '-', '_', '\'', '"', '.', ',', '!', '?', ':', ';', '&', '(', ')', '/':
			continue
		default:
			return false
		}
	}
	return true
}

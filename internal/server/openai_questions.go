package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"trivia-night/internal/db"

	"gorm.io/datatypes"
)

type openAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const questionSystemPrompt = "You are a trivia expert who creates fun and educational quiz questions. " +
	"Always respond with valid JSON only, no markdown formatting."

var difficultyDescriptions = map[string]string{
	difficultyEasy:     "Very easy - common knowledge that most people would know",
	difficultyMedium:   "Medium difficulty - requires some general knowledge",
	difficultyHard:     "Hard - obscure facts that only enthusiasts might know",
	difficultyVeryHard: "Very hard - trivia that would stump most people",
}

// generateQuestion asks the configured OpenAI model for a fresh
// question, passing an avoid-list of recently served questions and
// their correct answers so near-duplicates don't come back.
func (s *Server) generateQuestion(ctx context.Context, questionNumber int) (*Question, error) {
	if strings.TrimSpace(s.cfg.OpenAIAPIKey) == "" {
		return nil, errors.New("OpenAI API key is not configured")
	}

	difficulty := difficultyForQuestion(questionNumber)
	userPrompt := buildQuestionPrompt(difficulty, s.recentQuestions(s.cfg.RecentQuestionLimit))

	reqBody := openAIChatRequest{
		Model: s.cfg.OpenAIModel,
		Messages: []openAIChatMessage{
			{Role: "system", Content: questionSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.9,
		MaxTokens:   500,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build OpenAI request")
	}

	reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, "https://api.openai.com/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build OpenAI request")
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(s.cfg.OpenAIAPIKey))
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach OpenAI")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAI response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("OpenAI request failed (%d)", resp.StatusCode)
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI response")
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return nil, fmt.Errorf("OpenAI error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("OpenAI returned no choices")
	}

	question, err := parseQuestionJSON(parsed.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	if question.Difficulty == "" {
		question.Difficulty = difficulty
	}
	s.recordRecentQuestion(question)
	return question, nil
}

func buildQuestionPrompt(difficulty string, recent []recentQuestion) string {
	var sb strings.Builder
	sb.WriteString("Generate a single trivia question with exactly 4 answer choices.\n\n")
	sb.WriteString("Difficulty level: " + strings.ToUpper(difficulty) + "\n")
	sb.WriteString(difficultyDescriptions[difficulty] + "\n\n")
	sb.WriteString("Requirements:\n")
	sb.WriteString("- Provide exactly 4 answer options\n")
	sb.WriteString("- Only ONE answer should be correct\n")
	sb.WriteString("- Wrong answers should be plausible but clearly incorrect\n")
	sb.WriteString("- Make the question interesting and fun\n")
	if len(recent) > 0 {
		sb.WriteString("\nDO NOT repeat or rephrase any of these recently asked questions, ")
		sb.WriteString("and DO NOT create a question whose correct answer matches one of theirs:\n")
		answers := make([]string, 0, len(recent))
		seen := make(map[string]struct{})
		for _, item := range recent {
			correct := ""
			if item.Correct >= 0 && item.Correct < len(item.Answers) {
				correct = item.Answers[item.Correct]
			}
			fmt.Fprintf(&sb, "- %q (Answer: %s)\n", item.Text, correct)
			if correct != "" {
				if _, dup := seen[correct]; !dup {
					seen[correct] = struct{}{}
					answers = append(answers, correct)
				}
			}
		}
		if len(answers) > 0 {
			sb.WriteString("\nAvoid these correct answers entirely: " + strings.Join(answers, ", ") + "\n")
		}
	}
	sb.WriteString("\nRespond in this exact JSON format (no markdown, just raw JSON):\n")
	sb.WriteString(`{"question": "Your question here?", "answers": ["A", "B", "C", "D"], "correct": 0, "difficulty": "` + difficulty + `"}`)
	return sb.String()
}

// parseQuestionJSON tolerates markdown code fences around the payload
// but otherwise insists on the exact shape: text, four answers, a
// correct index in range.
func parseQuestionJSON(raw string) (*Question, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)
	var question Question
	if err := json.Unmarshal([]byte(cleaned), &question); err != nil {
		return nil, fmt.Errorf("failed to parse question data")
	}
	if !validQuestion(&question) {
		return nil, errors.New("invalid question format")
	}
	return &question, nil
}

type recentQuestion struct {
	Text       string
	Difficulty string
	Answers    []string
	Correct    int
}

// recentQuestions returns the most recently served questions, newest
// first. Reads the durable store when available so the avoid-list
// spans games and restarts.
func (s *Server) recentQuestions(limit int) []recentQuestion {
	if limit <= 0 {
		return nil
	}
	if s.db == nil {
		s.recentMu.Lock()
		defer s.recentMu.Unlock()
		start := 0
		if len(s.recent) > limit {
			start = len(s.recent) - limit
		}
		out := make([]recentQuestion, 0, limit)
		for i := len(s.recent) - 1; i >= start; i-- {
			out = append(out, s.recent[i])
		}
		return out
	}
	var records []db.RecentQuestion
	if err := s.db.Order("asked_at desc").Limit(limit).Find(&records).Error; err != nil {
		return nil
	}
	out := make([]recentQuestion, 0, len(records))
	for _, record := range records {
		var answers []string
		_ = json.Unmarshal([]byte(record.AnswersJSON), &answers)
		out = append(out, recentQuestion{
			Text:       record.QuestionText,
			Difficulty: record.Difficulty,
			Answers:    answers,
			Correct:    record.CorrectIndex,
		})
	}
	return out
}

const recentQuestionKeep = 100

func (s *Server) recordRecentQuestion(question *Question) {
	entry := recentQuestion{
		Text:       question.Text,
		Difficulty: question.Difficulty,
		Answers:    question.Answers,
		Correct:    question.Correct,
	}
	if s.db == nil {
		s.recentMu.Lock()
		s.recent = append(s.recent, entry)
		if len(s.recent) > recentQuestionKeep {
			s.recent = s.recent[len(s.recent)-recentQuestionKeep:]
		}
		s.recentMu.Unlock()
		return
	}
	answersJSON, err := json.Marshal(question.Answers)
	if err != nil {
		return
	}
	record := db.RecentQuestion{
		QuestionText: question.Text,
		Difficulty:   question.Difficulty,
		AnswersJSON:  datatypes.JSON(answersJSON),
		CorrectIndex: question.Correct,
		AskedAt:      timeNowUTC(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return
	}
	// Keep the table from growing without bound.
	var cutoff db.RecentQuestion
	if err := s.db.Order("asked_at desc").Offset(recentQuestionKeep).First(&cutoff).Error; err == nil {
		_ = s.db.Where("asked_at <= ?", cutoff.AskedAt).Delete(&db.RecentQuestion{}).Error
	}
}

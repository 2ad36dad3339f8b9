package server

// snapshot renders the authoritative session state for clients. Every
// client treats this as a replaceable cache; reconnecting clients
// fetch it in full before subscribing to deltas.
func snapshot(game *Game) map[string]any {
	teams := make([]map[string]any, 0, len(game.Teams))
	for i := range game.Teams {
		teams = append(teams, teamPayload(&game.Teams[i]))
	}

	payload := map[string]any{
		"game_id":               game.ID,
		"join_code":             game.JoinCode,
		"phase":                 game.Phase,
		"current_question":      game.CurrentQuestion,
		"question_loading":      game.QuestionLoading,
		"answering_enabled":     game.AnsweringEnabled,
		"question_time_seconds": game.Settings.QuestionTimeSeconds,
		"total_questions":       game.Settings.TotalQuestions,
		"grace_period_enabled":  game.Settings.GracePeriodEnabled,
		"grace_period_seconds":  game.Settings.GracePeriodSeconds,
		"reveal_stage":          game.RevealStage,
		"teams":                 teams,
	}
	if game.QuestionStartedAt != nil {
		payload["question_start_time"] = game.QuestionStartedAt
	}
	if game.Question != nil {
		payload["question"] = questionPayload(game)
	}
	if game.Phase == phaseRevealing {
		payload["ranked_answers"] = rankedAnswersPayload(game)
	}
	if game.Phase == phaseFinished {
		payload["results"] = resultsPayload(game)
	}
	answersCount := 0
	for i := range game.Answers {
		if game.Answers[i].QuestionIndex == game.CurrentQuestion {
			answersCount++
		}
	}
	payload["answers_count"] = answersCount
	return payload
}

// questionPayload snapshots the active question. The correct index is
// withheld until the reveal so clients can never leak or trust it.
func questionPayload(game *Game) map[string]any {
	payload := map[string]any{
		"question":   game.Question.Text,
		"answers":    game.Question.Answers,
		"difficulty": game.Question.Difficulty,
	}
	if game.Phase == phaseRevealing || game.Phase == phaseFinished {
		payload["correct"] = game.Question.Correct
	}
	return payload
}

func teamPayload(team *Team) map[string]any {
	return map[string]any{
		"id":           team.ID,
		"name":         team.Name,
		"color":        team.Color,
		"score":        team.Score,
		"has_answered": team.HasAnswered,
	}
}

func answerPayload(entry *AnswerEntry) map[string]any {
	return map[string]any{
		"id":             entry.ID,
		"team_id":        entry.TeamID,
		"question_index": entry.QuestionIndex,
		"answer_index":   entry.AnswerIndex,
		"is_correct":     entry.IsCorrect,
		"time_taken_ms":  entry.TimeTakenMs,
		"points_earned":  entry.PointsEarned,
		"answered_at":    entry.AnsweredAt,
	}
}

func rankedAnswersPayload(game *Game) []map[string]any {
	ranked := rankCorrectAnswers(game, game.CurrentQuestion)
	out := make([]map[string]any, 0, len(ranked))
	for _, idx := range ranked {
		out = append(out, answerPayload(&game.Answers[idx]))
	}
	return out
}

func resultsPayload(game *Game) []map[string]any {
	ranked := rankTeams(game)
	out := make([]map[string]any, 0, len(ranked))
	for rank := range ranked {
		entry := teamPayload(&ranked[rank])
		entry["rank"] = rank + 1
		out = append(out, entry)
	}
	return out
}

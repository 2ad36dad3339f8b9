package server

// submitAnswer appends a team's answer for the current question.
// Callers run it inside Store.UpdateGame, which serializes submissions
// for the game and makes the duplicate check race-free. A duplicate
// returns the existing entry with errDuplicateAnswer so retries stay
// idempotent.
func submitAnswer(game *Game, teamID string, answerIndex int) (*AnswerEntry, error) {
	if game.Phase != phasePlaying {
		return nil, errGameNotPlaying
	}
	if !game.AnsweringEnabled || game.QuestionStartedAt == nil || game.Question == nil {
		return nil, errAnswersNotOpen
	}
	if game.Revealed {
		return nil, errAnswersNotOpen
	}
	if answerIndex < 0 || answerIndex >= answerOptionCount {
		return nil, errInvalidAnswer
	}
	team, ok := findTeam(game, teamID)
	if !ok {
		return nil, errTeamNotFound
	}
	for i := range game.Answers {
		if game.Answers[i].TeamID == teamID && game.Answers[i].QuestionIndex == game.CurrentQuestion {
			return &game.Answers[i], errDuplicateAnswer
		}
	}

	now := timeNowUTC()
	entry := AnswerEntry{
		ID:            newID(),
		TeamID:        teamID,
		QuestionIndex: game.CurrentQuestion,
		AnswerIndex:   answerIndex,
		IsCorrect:     answerIndex == game.Question.Correct,
		TimeTakenMs:   now.Sub(*game.QuestionStartedAt).Milliseconds(),
		AnsweredAt:    now,
	}
	game.Answers = append(game.Answers, entry)
	team.HasAnswered = true
	return &game.Answers[len(game.Answers)-1], nil
}

package server

import "sort"

// ScorePolicy assigns points to a correct answer by its speed rank.
// Rank is 0-based among the correct answers for one question, ordered
// by submission time ascending. totalCorrect is the number of correct
// answers for that question.
type ScorePolicy interface {
	Points(rank, totalCorrect int) int
}

// speedTablePolicy pays a fixed amount per rank. Everyone past the
// table still earns the floor value.
type speedTablePolicy struct{}

var speedTable = []int{300, 250, 200, 175, 150, 125}

const speedTableFloor = 100

func (speedTablePolicy) Points(rank, _ int) int {
	if rank < 0 {
		return 0
	}
	if rank < len(speedTable) {
		return speedTable[rank]
	}
	return speedTableFloor
}

// decayingBonusPolicy pays a flat base plus a bonus that shrinks as
// more teams beat you to the answer.
type decayingBonusPolicy struct{}

const (
	decayingBase = 100
	decayingStep = 25
)

func (decayingBonusPolicy) Points(rank, totalCorrect int) int {
	if rank < 0 {
		return 0
	}
	bonus := (totalCorrect - rank) * decayingStep
	if bonus < 0 {
		bonus = 0
	}
	return decayingBase + bonus
}

func scorePolicyByName(name string) ScorePolicy {
	switch name {
	case "decaying":
		return decayingBonusPolicy{}
	default:
		return speedTablePolicy{}
	}
}

// rankCorrectAnswers returns the indexes into game.Answers of the
// correct answers for questionIndex, ordered by submission time
// ascending. Ties keep insertion order, which is submission-receipt
// order under the store lock.
func rankCorrectAnswers(game *Game, questionIndex int) []int {
	ranked := make([]int, 0, len(game.Answers))
	for i := range game.Answers {
		entry := &game.Answers[i]
		if entry.QuestionIndex != questionIndex || !entry.IsCorrect {
			continue
		}
		ranked = append(ranked, i)
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return game.Answers[ranked[a]].AnsweredAt.Before(game.Answers[ranked[b]].AnsweredAt)
	})
	return ranked
}

// applyScores assigns points to every correct answer for questionIndex
// and increments team scores. It must run exactly once per question;
// the caller guards with the per-question revealed flag.
func applyScores(game *Game, questionIndex int, policy ScorePolicy) {
	ranked := rankCorrectAnswers(game, questionIndex)
	for rank, idx := range ranked {
		points := policy.Points(rank, len(ranked))
		game.Answers[idx].PointsEarned = points
		for i := range game.Teams {
			if game.Teams[i].ID == game.Answers[idx].TeamID {
				game.Teams[i].Score += points
				break
			}
		}
	}
}

package server

// questionBank is the built-in question set. It drives games when no
// generator is configured and is the fallback when the generator is
// unavailable or returns garbage.
var questionBank = []Question{
	{
		Text:       "Which planet in our solar system has the most moons?",
		Answers:    []string{"Jupiter", "Saturn", "Uranus", "Neptune"},
		Correct:    1,
		Difficulty: difficultyMedium,
	},
	{
		Text:       "What is the largest ocean on Earth?",
		Answers:    []string{"Atlantic", "Indian", "Arctic", "Pacific"},
		Correct:    3,
		Difficulty: difficultyEasy,
	},
	{
		Text:       "Which element has the chemical symbol 'Au'?",
		Answers:    []string{"Silver", "Gold", "Aluminium", "Argon"},
		Correct:    1,
		Difficulty: difficultyEasy,
	},
	{
		Text:       "In which year did the Berlin Wall fall?",
		Answers:    []string{"1987", "1989", "1991", "1993"},
		Correct:    1,
		Difficulty: difficultyMedium,
	},
	{
		Text:       "What is the smallest country in the world by area?",
		Answers:    []string{"Monaco", "Malta", "Vatican City", "San Marino"},
		Correct:    2,
		Difficulty: difficultyEasy,
	},
	{
		Text:       "Which composer wrote 'The Four Seasons'?",
		Answers:    []string{"Bach", "Mozart", "Vivaldi", "Handel"},
		Correct:    2,
		Difficulty: difficultyMedium,
	},
	{
		Text:       "How many bones are in the adult human body?",
		Answers:    []string{"186", "206", "226", "246"},
		Correct:    1,
		Difficulty: difficultyMedium,
	},
	{
		Text:       "Which country invented tea bags?",
		Answers:    []string{"China", "India", "United Kingdom", "United States"},
		Correct:    3,
		Difficulty: difficultyHard,
	},
	{
		Text:       "What is the only mammal capable of true flight?",
		Answers:    []string{"Flying squirrel", "Bat", "Sugar glider", "Colugo"},
		Correct:    1,
		Difficulty: difficultyEasy,
	},
	{
		Text:       "Which artist painted 'Girl with a Pearl Earring'?",
		Answers:    []string{"Rembrandt", "Vermeer", "Van Gogh", "Rubens"},
		Correct:    1,
		Difficulty: difficultyMedium,
	},
	{
		Text:       "What year was the first ever Wimbledon championship held?",
		Answers:    []string{"1857", "1867", "1877", "1887"},
		Correct:    2,
		Difficulty: difficultyVeryHard,
	},
	{
		Text:       "Which gas makes up roughly 78% of Earth's atmosphere?",
		Answers:    []string{"Oxygen", "Carbon dioxide", "Nitrogen", "Argon"},
		Correct:    2,
		Difficulty: difficultyEasy,
	},
	{
		Text:       "Which river flows through Baghdad?",
		Answers:    []string{"Euphrates", "Tigris", "Nile", "Jordan"},
		Correct:    1,
		Difficulty: difficultyHard,
	},
	{
		Text:       "Who was the first woman to win a Nobel Prize?",
		Answers:    []string{"Marie Curie", "Rosalind Franklin", "Lise Meitner", "Dorothy Hodgkin"},
		Correct:    0,
		Difficulty: difficultyMedium,
	},
	{
		Text:       "What is the rarest naturally occurring blood type?",
		Answers:    []string{"B negative", "O negative", "AB negative", "A negative"},
		Correct:    2,
		Difficulty: difficultyHard,
	},
}

// difficultyPattern rotates difficulties across a game so early
// questions stay approachable and variety is guaranteed.
var difficultyPattern = []string{
	difficultyEasy, difficultyMedium, difficultyHard, difficultyMedium,
	difficultyVeryHard, difficultyMedium, difficultyHard, difficultyMedium,
	difficultyEasy, difficultyHard,
}

func difficultyForQuestion(questionNumber int) string {
	if questionNumber < 0 {
		questionNumber = 0
	}
	return difficultyPattern[questionNumber%len(difficultyPattern)]
}

// questionFromBank picks the first bank question this game has not used
// yet, wrapping around when the bank is exhausted. It always returns a
// question with exactly four answers and a valid correct index.
func questionFromBank(game *Game) Question {
	for _, question := range questionBank {
		if _, used := game.UsedQuestions[question.Text]; !used {
			return question
		}
	}
	return questionBank[game.CurrentQuestion%len(questionBank)]
}

func validQuestion(question *Question) bool {
	if question == nil {
		return false
	}
	if question.Text == "" {
		return false
	}
	if len(question.Answers) != answerOptionCount {
		return false
	}
	for _, answer := range question.Answers {
		if answer == "" {
			return false
		}
	}
	return question.Correct >= 0 && question.Correct < answerOptionCount
}

package server

type EventPayload struct {
	GameID        string `json:"game_id,omitempty"`
	JoinCode      string `json:"join_code,omitempty"`
	TeamID        string `json:"team_id,omitempty"`
	TeamName      string `json:"team,omitempty"`
	QuestionIndex int    `json:"question_index,omitempty"`
	AnswerIndex   int    `json:"answer_index,omitempty"`
	Phase         string `json:"phase,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Points        int    `json:"points,omitempty"`
}

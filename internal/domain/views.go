package domain

// View is the phase-tagged payload handed to the presentation layer on
// every poll. Exactly one of the per-phase fields is set, matching Phase.
type View struct {
	Phase       Phase            `json:"phase"`
	Countdown   int              `json:"countdown,omitempty"`
	Waiting     *WaitingView     `json:"waiting,omitempty"`
	Question    *QuestionView    `json:"question,omitempty"`
	Reveal      *RevealView      `json:"reveal,omitempty"`
	Leaderboard *LeaderboardView `json:"leaderboard,omitempty"`
}

// WaitingView is the lobby: the public join code and who is in so far.
type WaitingView struct {
	Code    int      `json:"code"`
	Aliases []string `json:"aliases"`
}

// QuestionView shows the current question. Options never reveal which one
// is correct.
type QuestionView struct {
	Index   int      `json:"index"`
	Total   int      `json:"total"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// RevealView is shown after a question closes: the correct answer text
// (empty when the catalog has none marked), each participant's outcome and
// the share of submitted guesses that were correct, 0..100.
type RevealView struct {
	QuestionText      string         `json:"questionText"`
	CorrectAnswer     string         `json:"correctAnswer"`
	Outcomes          []GuessOutcome `json:"outcomes"`
	CorrectPercentage float64        `json:"correctPercentage"`
}

// GuessOutcome reports whether a participant answered the revealed
// question and whether they were right.
type GuessOutcome struct {
	Alias    string `json:"alias"`
	Answered bool   `json:"answered"`
	Correct  bool   `json:"correct"`
}

// RankingEntry is one leaderboard row.
type RankingEntry struct {
	Alias  string `json:"alias"`
	Points int    `json:"points"`
}

// LeaderboardView is the terminal podium. First/Second/Third are absent
// when fewer participants played.
type LeaderboardView struct {
	Title   string         `json:"title"`
	Ranking []RankingEntry `json:"ranking"`
	First   *RankingEntry  `json:"first,omitempty"`
	Second  *RankingEntry  `json:"second,omitempty"`
	Third   *RankingEntry  `json:"third,omitempty"`
}

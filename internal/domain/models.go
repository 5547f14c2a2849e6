package domain

// Answer is one selectable option of a question.
type Answer struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models a timed MCQ question with exactly one correct answer.
// AnswerTime is the per-question countdown in seconds; zero means the
// default applies.
type Question struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	AnswerTime int      `json:"answerTime"`
	Answers    []Answer `json:"answers"`
}

// DefaultAnswerTime is the countdown used when a question carries none.
const DefaultAnswerTime = 10

// Countdown returns the effective answer time for the question.
func (q Question) Countdown() int {
	if q.AnswerTime > 0 {
		return q.AnswerTime
	}
	return DefaultAnswerTime
}

// CorrectAnswer returns the answer marked correct, if any. A question
// without one is a catalog integrity problem; callers degrade instead of
// failing.
func (q Question) CorrectAnswer() (Answer, bool) {
	for _, a := range q.Answers {
		if a.Correct {
			return a, true
		}
	}
	return Answer{}, false
}

// OptionTexts returns the option texts in presentation order, without
// leaking which one is correct.
func (q Question) OptionTexts() []string {
	texts := make([]string, len(q.Answers))
	for i, a := range q.Answers {
		texts[i] = a.Text
	}
	return texts
}

// Questionnaire is a read-only catalog entry: an ordered list of questions.
type Questionnaire struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Participant is a player joined to one game. Token is the opaque
// identifier the participant's client uses instead of a guessable id.
type Participant struct {
	Token  string `json:"token"`
	Alias  string `json:"alias"`
	Points int    `json:"points"`
}

// Guess records one answered question for one participant. At most one
// guess exists per (participant, question) pair.
type Guess struct {
	ParticipantToken string `json:"-"`
	Alias            string `json:"alias"`
	QuestionIndex    int    `json:"questionIndex"`
	AnswerIndex      int    `json:"answerIndex"`
	Correct          bool   `json:"correct"`
}

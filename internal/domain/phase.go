package domain

// Phase is the current stage of a running game.
type Phase string

const (
	PhaseWaiting     Phase = "WAITING"     // lobby, participants may join
	PhaseQuestion    Phase = "QUESTION"    // current question on screen
	PhaseAnswer      Phase = "ANSWER"      // reveal for the question just shown
	PhaseLeaderboard Phase = "LEADERBOARD" // terminal podium display
)

func (p Phase) String() string {
	return string(p)
}

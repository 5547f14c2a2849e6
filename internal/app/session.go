package app

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"live-quiz-service/internal/domain"
)

// Game holds the live state of one running quiz session: phase, roster,
// guess ledger and watch subscribers. All mutation goes through methods
// that take the game mutex; reads never advance the phase.
type Game struct {
	id             string
	code           int
	questionnaire  domain.Questionnaire
	lobbyCountdown int
	createdAt      time.Time
	now            func() time.Time

	mu          sync.Mutex
	phase       domain.Phase
	remaining   int
	roster      []*domain.Participant // join order, drives tie-breaking
	byToken     map[string]*domain.Participant
	byAlias     map[string]*domain.Participant
	guesses     map[string]map[int]*domain.Guess // token -> question index
	subscribers map[chan domain.View]struct{}
}

// NewGame is exported for infrastructure layers and tests that need to
// construct a game directly; the service normally does this in StartGame.
func NewGame(id string, code int, q domain.Questionnaire, lobbyCountdown int) *Game {
	return newGame(id, code, q, lobbyCountdown)
}

// NewGameWithClock is test-only for deterministic timestamps.
func NewGameWithClock(id string, code int, q domain.Questionnaire, lobbyCountdown int, now func() time.Time) *Game {
	return newGameWithClock(id, code, q, lobbyCountdown, now)
}

func newGame(id string, code int, q domain.Questionnaire, lobbyCountdown int) *Game {
	return newGameWithClock(id, code, q, lobbyCountdown, time.Now)
}

// newGameWithClock allows deterministic timestamps in tests.
func newGameWithClock(id string, code int, q domain.Questionnaire, lobbyCountdown int, now func() time.Time) *Game {
	return &Game{
		id:             id,
		code:           code,
		questionnaire:  q,
		lobbyCountdown: lobbyCountdown,
		createdAt:      now(),
		now:            now,
		phase:          domain.PhaseWaiting,
		remaining:      len(q.Questions),
		byToken:        make(map[string]*domain.Participant),
		byAlias:        make(map[string]*domain.Participant),
		guesses:        make(map[string]map[int]*domain.Guess),
		subscribers:    make(map[chan domain.View]struct{}),
	}
}

func (g *Game) ID() string    { return g.id }
func (g *Game) Code() int     { return g.code }
func (g *Game) Title() string { return g.questionnaire.Title }

// QuestionnaireID identifies the catalog entry this game was started from.
func (g *Game) QuestionnaireID() string { return g.questionnaire.ID }

// Phase returns the current phase without advancing it.
func (g *Game) Phase() domain.Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// join adds a participant while the game is still in the waiting room.
// Aliases are unique per game, case-sensitive. The returned participant
// carries a fresh opaque token.
func (g *Game) join(alias string) (domain.Participant, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != domain.PhaseWaiting {
		return domain.Participant{}, domain.ErrGameNotWaiting
	}
	if _, taken := g.byAlias[alias]; taken {
		return domain.Participant{}, domain.ErrAliasTaken
	}

	token := uuid.NewString()
	for {
		if _, exists := g.byToken[token]; !exists {
			break
		}
		token = uuid.NewString()
	}

	p := &domain.Participant{Token: token, Alias: alias}
	g.roster = append(g.roster, p)
	g.byToken[token] = p
	g.byAlias[alias] = p
	g.broadcastLocked()
	return *p, nil
}

// aliases returns the roster display names in join order.
func (g *Game) aliases() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.aliasesLocked()
}

func (g *Game) aliasesLocked() []string {
	out := make([]string, len(g.roster))
	for i, p := range g.roster {
		out[i] = p.Alias
	}
	return out
}

// advance performs exactly one forward phase step and returns the view for
// the phase entered. Advancing a finished game is a no-op that re-emits
// the leaderboard.
func (g *Game) advance() domain.View {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.phase {
	case domain.PhaseWaiting:
		g.phase = domain.PhaseQuestion
	case domain.PhaseQuestion:
		g.phase = domain.PhaseAnswer
	case domain.PhaseAnswer:
		g.remaining--
		if g.remaining <= 0 {
			g.phase = domain.PhaseLeaderboard
		} else {
			g.phase = domain.PhaseQuestion
		}
	case domain.PhaseLeaderboard:
		// terminal, stay put
	}
	view := g.viewLocked()
	g.broadcastLocked()
	return view
}

// view returns the current phase payload without transitioning.
func (g *Game) view() domain.View {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.viewLocked()
}

// currentIndexLocked is the 0-based index of the question in play:
// total minus remaining. Out of range only once the game is finished.
func (g *Game) currentIndexLocked() int {
	return len(g.questionnaire.Questions) - g.remaining
}

func (g *Game) viewLocked() domain.View {
	switch g.phase {
	case domain.PhaseWaiting:
		return domain.View{
			Phase:     domain.PhaseWaiting,
			Countdown: g.lobbyCountdown,
			Waiting:   &domain.WaitingView{Code: g.code, Aliases: g.aliasesLocked()},
		}
	case domain.PhaseQuestion:
		idx := g.currentIndexLocked()
		q := g.questionnaire.Questions[idx]
		return domain.View{
			Phase:     domain.PhaseQuestion,
			Countdown: q.Countdown(),
			Question: &domain.QuestionView{
				Index:   idx,
				Total:   len(g.questionnaire.Questions),
				Text:    q.Text,
				Options: q.OptionTexts(),
			},
		}
	case domain.PhaseAnswer:
		return domain.View{
			Phase:  domain.PhaseAnswer,
			Reveal: g.revealLocked(g.currentIndexLocked()),
		}
	default:
		return domain.View{
			Phase:       domain.PhaseLeaderboard,
			Leaderboard: g.leaderboardLocked(),
		}
	}
}

// revealLocked builds the ANSWER payload for one question. A question
// without a marked-correct answer yields an empty correct-answer text
// rather than an error.
func (g *Game) revealLocked(idx int) *domain.RevealView {
	q := g.questionnaire.Questions[idx]

	correctText := ""
	if correct, ok := q.CorrectAnswer(); ok {
		correctText = correct.Text
	}

	outcomes := make([]domain.GuessOutcome, 0, len(g.roster))
	total, right := 0, 0
	for _, p := range g.roster {
		outcome := domain.GuessOutcome{Alias: p.Alias}
		if guess, ok := g.guesses[p.Token][idx]; ok {
			outcome.Answered = true
			outcome.Correct = guess.Correct
			total++
			if guess.Correct {
				right++
			}
		}
		outcomes = append(outcomes, outcome)
	}

	percentage := 0.0
	if total > 0 {
		percentage = float64(right) / float64(total) * 100
	}

	return &domain.RevealView{
		QuestionText:      q.Text,
		CorrectAnswer:     correctText,
		Outcomes:          outcomes,
		CorrectPercentage: percentage,
	}
}

// submitGuess records one guess for the question currently in play and
// awards the point in the same critical section, so a duplicate check and
// a score increment can never interleave.
func (g *Game) submitGuess(token string, answerIndex int) (domain.Guess, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.byToken[token]
	if !ok {
		return domain.Guess{}, domain.ErrParticipantNotFound
	}

	idx := g.currentIndexLocked()
	if idx < 0 || idx >= len(g.questionnaire.Questions) {
		return domain.Guess{}, domain.ErrInvalidAnswer
	}
	q := g.questionnaire.Questions[idx]

	// Selectors are 1-based on the wire.
	if answerIndex < 1 || answerIndex > len(q.Answers) {
		return domain.Guess{}, domain.ErrInvalidAnswer
	}

	if _, exists := g.guesses[token][idx]; exists {
		return domain.Guess{}, domain.ErrDuplicateGuess
	}

	answer := q.Answers[answerIndex-1]
	guess := &domain.Guess{
		ParticipantToken: token,
		Alias:            p.Alias,
		QuestionIndex:    idx,
		AnswerIndex:      answerIndex,
		Correct:          answer.Correct,
	}
	if g.guesses[token] == nil {
		g.guesses[token] = make(map[int]*domain.Guess)
	}
	g.guesses[token][idx] = guess
	if answer.Correct {
		p.Points++
	}
	g.broadcastLocked()
	return *guess, nil
}

// ranking returns participants ordered by points descending, ties broken
// by join order (earlier joiner first).
func (g *Game) ranking() []domain.RankingEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rankingLocked()
}

func (g *Game) rankingLocked() []domain.RankingEntry {
	entries := make([]domain.RankingEntry, len(g.roster))
	for i, p := range g.roster {
		entries[i] = domain.RankingEntry{Alias: p.Alias, Points: p.Points}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Points > entries[j].Points
	})
	return entries
}

func (g *Game) leaderboardLocked() *domain.LeaderboardView {
	ranking := g.rankingLocked()
	lb := &domain.LeaderboardView{
		Title:   g.questionnaire.Title,
		Ranking: ranking,
	}
	if len(ranking) > 0 {
		lb.First = &ranking[0]
	}
	if len(ranking) > 1 {
		lb.Second = &ranking[1]
	}
	if len(ranking) > 2 {
		lb.Third = &ranking[2]
	}
	return lb
}

// subscribe registers a watch channel that receives a view snapshot on
// every roster, guess or phase change. The caller must invoke the cancel
// function to avoid leaks.
func (g *Game) subscribe() (<-chan domain.View, func()) {
	ch := make(chan domain.View, 8)

	g.mu.Lock()
	g.subscribers[ch] = struct{}{}
	initial := g.viewLocked()
	g.mu.Unlock()

	ch <- initial

	cancel := func() {
		g.mu.Lock()
		if _, ok := g.subscribers[ch]; ok {
			delete(g.subscribers, ch)
			close(ch)
		}
		g.mu.Unlock()
	}
	return ch, cancel
}

func (g *Game) broadcastLocked() {
	if len(g.subscribers) == 0 {
		return
	}
	view := g.viewLocked()
	for ch := range g.subscribers {
		select {
		case ch <- view:
		default:
			// drop the stale snapshot so a slow watcher never blocks the
			// game; if the buffer refills meanwhile, skip this update too
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- view:
			default:
			}
		}
	}
}

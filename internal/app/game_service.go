package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"live-quiz-service/internal/domain"
)

// GameRegistry abstracts how active games are tracked (in-memory, Redis
// liveness, etc). Register atomically replaces any game already held for
// the same questionnaire, so at most one game per questionnaire is ever
// active, and must reject a join code held by a game of a different
// questionnaire.
type GameRegistry interface {
	Register(game *Game) error
	ByID(id string) (*Game, bool)
	ByCode(code int) (*Game, bool)
	ByQuestionnaire(questionnaireID string) (*Game, bool)
	Remove(id string) bool
}

// CatalogRepository loads questionnaire content (from cache/backing store).
type CatalogRepository interface {
	GetQuestionnaire(ctx context.Context, id string) (domain.Questionnaire, error)
}

// ErrCodeInUse is returned by registries when a join code collides with an
// active game; StartGame retries with a fresh code.
var ErrCodeInUse = errors.New("join code already in use")

// joinCodeSpace matches the original public id range: 1..10^6 keeps codes
// short enough to type while making collisions rare among active games.
const joinCodeSpace = 1_000_000

const maxCodeAttempts = 10

// DefaultLobbyCountdown is the waiting-room countdown in seconds.
const DefaultLobbyCountdown = 10

// GameService contains the core game use cases: starting and destroying
// sessions, joining, advancing the phase machine, guessing and ranking.
type GameService struct {
	games          GameRegistry
	catalog        CatalogRepository
	lobbyCountdown int
	newCode        func() int
}

func NewGameService(games GameRegistry, catalog CatalogRepository, lobbyCountdown int) *GameService {
	if lobbyCountdown <= 0 {
		lobbyCountdown = DefaultLobbyCountdown
	}
	return &GameService{
		games:          games,
		catalog:        catalog,
		lobbyCountdown: lobbyCountdown,
		// the global source is safe for concurrent StartGame calls
		newCode: func() int { return rand.Intn(joinCodeSpace) + 1 },
	}
}

// StartGame creates a new game for a questionnaire. Register evicts any
// existing game for the same questionnaire in the same critical section,
// participants and guesses included: starting twice is a restart, not an
// error, and two concurrent restarts leave exactly one game active.
func (s *GameService) StartGame(ctx context.Context, questionnaireID string) (*Game, error) {
	q, err := s.catalog.GetQuestionnaire(ctx, questionnaireID)
	if err != nil {
		return nil, err
	}
	if len(q.Questions) == 0 {
		return nil, domain.ErrQuestionnaireNotFound
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		game := newGame(uuid.NewString(), s.newCode(), q, s.lobbyCountdown)
		err := s.games.Register(game)
		if err == nil {
			return game, nil
		}
		if !errors.Is(err, ErrCodeInUse) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("allocate join code: %w", ErrCodeInUse)
}

// Lookup finds an active game by its public join code.
func (s *GameService) Lookup(code int) (*Game, error) {
	game, ok := s.games.ByCode(code)
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return game, nil
}

// LookupByID finds an active game by its internal id.
func (s *GameService) LookupByID(id string) (*Game, error) {
	game, ok := s.games.ByID(id)
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return game, nil
}

// EndGame destroys a game; its participants and guesses go with it.
func (s *GameService) EndGame(id string) error {
	if !s.games.Remove(id) {
		return domain.ErrGameNotFound
	}
	return nil
}

// Join registers a participant in a waiting game by join code. The
// returned participant carries the opaque token for subsequent guesses.
func (s *GameService) Join(code int, alias string) (domain.Participant, error) {
	game, err := s.Lookup(code)
	if err != nil {
		return domain.Participant{}, err
	}
	return game.join(alias)
}

// Aliases lists the waiting-room roster of a game in join order.
func (s *GameService) Aliases(code int) ([]string, error) {
	game, err := s.Lookup(code)
	if err != nil {
		return nil, err
	}
	return game.aliases(), nil
}

// Advance moves the game one phase forward and returns the view for the
// phase entered. On a finished game it re-emits the leaderboard.
func (s *GameService) Advance(id string) (domain.View, error) {
	game, err := s.LookupByID(id)
	if err != nil {
		return domain.View{}, err
	}
	return game.advance(), nil
}

// CurrentView returns the present phase payload without transitioning.
func (s *GameService) CurrentView(id string) (domain.View, error) {
	game, err := s.LookupByID(id)
	if err != nil {
		return domain.View{}, err
	}
	return game.view(), nil
}

// SubmitGuess records a guess for the current question of the game behind
// code. The duplicate check and the point award happen atomically inside
// the game.
func (s *GameService) SubmitGuess(code int, participantToken string, answerIndex int) (domain.Guess, error) {
	game, err := s.Lookup(code)
	if err != nil {
		return domain.Guess{}, err
	}
	return game.submitGuess(participantToken, answerIndex)
}

// Ranking returns the leaderboard order for a game: points descending,
// ties broken by join order.
func (s *GameService) Ranking(id string) ([]domain.RankingEntry, error) {
	game, err := s.LookupByID(id)
	if err != nil {
		return nil, err
	}
	return game.ranking(), nil
}

// Watch returns a channel of view snapshots for host screens. The caller
// must invoke the returned cancel function to avoid leaks.
func (s *GameService) Watch(id string) (<-chan domain.View, func(), error) {
	game, err := s.LookupByID(id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := game.subscribe()
	return ch, cancel, nil
}

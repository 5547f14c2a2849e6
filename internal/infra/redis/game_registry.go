package redis

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/app"
)

// GameRegistry is a Redis-aware implementation of app.GameRegistry.
// Notes:
//   - Game state itself stays in process; the phase machine and guess
//     ledger need the in-memory mutex semantics of app.Game.
//   - Redis marks join-code liveness (game:code:{code}) so operators can
//     see active codes and a future multi-instance setup could route on
//     them.
type GameRegistry struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	inner  *memoryRegistry
}

type memoryRegistry struct {
	byID            map[string]*app.Game
	byCode          map[int]*app.Game
	byQuestionnaire map[string]*app.Game
}

func NewGameRegistry(client *redis.Client, ttl time.Duration) *GameRegistry {
	return &GameRegistry{
		inner: &memoryRegistry{
			byID:            make(map[string]*app.Game),
			byCode:          make(map[int]*app.Game),
			byQuestionnaire: make(map[string]*app.Game),
		},
		client: client,
		ttl:    ttl,
	}
}

// Register adds a game, evicting any game already registered for the same
// questionnaire inside the same critical section, its liveness key
// included.
func (r *GameRegistry) Register(game *app.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.inner.byQuestionnaire[game.QuestionnaireID()]
	if holder, exists := r.inner.byCode[game.Code()]; exists && holder != old {
		return app.ErrCodeInUse
	}
	if old != nil {
		delete(r.inner.byID, old.ID())
		delete(r.inner.byCode, old.Code())
		_ = r.client.Del(context.Background(), r.key(old.Code())).Err()
	}
	r.inner.byID[game.ID()] = game
	r.inner.byCode[game.Code()] = game
	r.inner.byQuestionnaire[game.QuestionnaireID()] = game
	// best-effort liveness marker
	_ = r.client.Set(context.Background(), r.key(game.Code()), game.ID(), r.ttl).Err()
	return nil
}

func (r *GameRegistry) ByID(id string) (*app.Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	game, ok := r.inner.byID[id]
	return game, ok
}

func (r *GameRegistry) ByCode(code int) (*app.Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	game, ok := r.inner.byCode[code]
	return game, ok
}

func (r *GameRegistry) ByQuestionnaire(questionnaireID string) (*app.Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	game, ok := r.inner.byQuestionnaire[questionnaireID]
	return game, ok
}

func (r *GameRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	game, ok := r.inner.byID[id]
	if !ok {
		return false
	}
	delete(r.inner.byID, id)
	delete(r.inner.byCode, game.Code())
	if current, ok := r.inner.byQuestionnaire[game.QuestionnaireID()]; ok && current == game {
		delete(r.inner.byQuestionnaire, game.QuestionnaireID())
	}
	_ = r.client.Del(context.Background(), r.key(game.Code())).Err()
	return true
}

func (r *GameRegistry) key(code int) string {
	return "game:code:" + strconv.Itoa(code)
}

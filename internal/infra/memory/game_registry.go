package memory

import (
	"sync"

	"live-quiz-service/internal/app"
)

// GameRegistry is an in-memory implementation of app.GameRegistry. It
// indexes active games by id, join code and questionnaire so lookups on
// any of the three are O(1).
type GameRegistry struct {
	mu              sync.RWMutex
	byID            map[string]*app.Game
	byCode          map[int]*app.Game
	byQuestionnaire map[string]*app.Game
}

func NewGameRegistry() *GameRegistry {
	return &GameRegistry{
		byID:            make(map[string]*app.Game),
		byCode:          make(map[int]*app.Game),
		byQuestionnaire: make(map[string]*app.Game),
	}
}

// Register adds a game, evicting any game already registered for the same
// questionnaire. The collision check, the eviction and the insert share
// one critical section, so concurrent restarts leave exactly one game.
func (r *GameRegistry) Register(game *app.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.byQuestionnaire[game.QuestionnaireID()]
	if holder, exists := r.byCode[game.Code()]; exists && holder != old {
		return app.ErrCodeInUse
	}
	if old != nil {
		delete(r.byID, old.ID())
		delete(r.byCode, old.Code())
	}
	r.byID[game.ID()] = game
	r.byCode[game.Code()] = game
	r.byQuestionnaire[game.QuestionnaireID()] = game
	return nil
}

func (r *GameRegistry) ByID(id string) (*app.Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	game, ok := r.byID[id]
	return game, ok
}

func (r *GameRegistry) ByCode(code int) (*app.Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	game, ok := r.byCode[code]
	return game, ok
}

func (r *GameRegistry) ByQuestionnaire(questionnaireID string) (*app.Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	game, ok := r.byQuestionnaire[questionnaireID]
	return game, ok
}

// Remove drops a game from all indexes. Participants and guesses live
// inside the game value, so dropping it cascades.
func (r *GameRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	game, ok := r.byID[id]
	if !ok {
		return false
	}
	delete(r.byID, id)
	delete(r.byCode, game.Code())
	if current, ok := r.byQuestionnaire[game.QuestionnaireID()]; ok && current == game {
		delete(r.byQuestionnaire, game.QuestionnaireID())
	}
	return true
}

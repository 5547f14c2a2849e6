package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// Handler exposes the game operations as a JSON API. Host screens poll
// /advance and /view at the pace of the countdown each view carries; the
// server never advances a game on its own.
type Handler struct {
	service *app.GameService
}

func NewHandler(service *app.GameService) *Handler {
	return &Handler{service: service}
}

// Register wires the routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/games", h.startGame)
	mux.HandleFunc("GET /api/games/{code}", h.lookup)
	mux.HandleFunc("DELETE /api/games/{id}", h.endGame)
	mux.HandleFunc("POST /api/games/{id}/advance", h.advance)
	mux.HandleFunc("GET /api/games/{id}/view", h.currentView)
	mux.HandleFunc("GET /api/games/{id}/ranking", h.ranking)
	mux.HandleFunc("POST /api/participants", h.join)
	mux.HandleFunc("POST /api/guesses", h.submitGuess)
	mux.HandleFunc("GET /ws/watch", h.serveWatch)
}

type gameResponse struct {
	ID    string `json:"id"`
	Code  int    `json:"code"`
	Phase string `json:"phase"`
	Title string `json:"title"`
}

type startGameRequest struct {
	QuestionnaireID string `json:"questionnaireId"`
}

func (h *Handler) startGame(w http.ResponseWriter, r *http.Request) {
	var req startGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuestionnaireID == "" {
		writeDetail(w, http.StatusBadRequest, "missing questionnaireId")
		return
	}
	game, err := h.service.StartGame(r.Context(), req.QuestionnaireID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, gameResponse{
		ID:    game.ID(),
		Code:  game.Code(),
		Phase: game.Phase().String(),
		Title: game.Title(),
	})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(r.PathValue("code"))
	if err != nil {
		writeError(w, domain.ErrGameNotFound)
		return
	}
	game, err := h.service.Lookup(code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gameResponse{
		ID:    game.ID(),
		Code:  game.Code(),
		Phase: game.Phase().String(),
		Title: game.Title(),
	})
}

func (h *Handler) endGame(w http.ResponseWriter, r *http.Request) {
	if err := h.service.EndGame(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) advance(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Advance(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) currentView(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.CurrentView(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) ranking(w http.ResponseWriter, r *http.Request) {
	ranking, err := h.service.Ranking(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}

type joinRequest struct {
	Game  int    `json:"game"`
	Alias string `json:"alias"`
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Alias == "" {
		writeDetail(w, http.StatusBadRequest, "missing game code or alias")
		return
	}
	participant, err := h.service.Join(req.Game, req.Alias)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, participant)
}

type guessRequest struct {
	Game        int    `json:"game"`
	Participant string `json:"participant"`
	Answer      int    `json:"answer"`
}

func (h *Handler) submitGuess(w http.ResponseWriter, r *http.Request) {
	var req guessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Participant == "" {
		writeDetail(w, http.StatusBadRequest, "missing game code, participant or answer")
		return
	}
	guess, err := h.service.SubmitGuess(req.Game, req.Participant, req.Answer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, guess)
}

// writeError maps the stable error kinds onto HTTP statuses. The detail
// string is the error text itself; clients display it verbatim.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrQuestionnaireNotFound),
		errors.Is(err, domain.ErrGameNotFound),
		errors.Is(err, domain.ErrParticipantNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrGameNotWaiting),
		errors.Is(err, domain.ErrAliasTaken),
		errors.Is(err, domain.ErrDuplicateGuess):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAnswer):
		status = http.StatusUnprocessableEntity
	}
	writeDetail(w, status, err.Error())
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

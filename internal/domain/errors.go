package domain

import "errors"

var (
	// ErrQuestionnaireNotFound indicates the catalog has no such
	// questionnaire, or it has no questions to play.
	ErrQuestionnaireNotFound = errors.New("questionnaire not found")
	// ErrGameNotFound is returned when no active game matches the given
	// join code or id.
	ErrGameNotFound = errors.New("game not found")
	// ErrParticipantNotFound is returned when a token matches no
	// participant of the game.
	ErrParticipantNotFound = errors.New("participant not found in game")
	// ErrGameNotWaiting is returned when joining is attempted after the
	// game has left the waiting room.
	ErrGameNotWaiting = errors.New("game is not in waiting phase")
	// ErrAliasTaken is returned when another participant of the same game
	// already uses the alias.
	ErrAliasTaken = errors.New("alias already taken")
	// ErrInvalidAnswer indicates the selector does not resolve to an
	// option of the current question.
	ErrInvalidAnswer = errors.New("invalid answer")
	// ErrDuplicateGuess is returned on a second guess for the same
	// question by the same participant.
	ErrDuplicateGuess = errors.New("guess already exists")
)

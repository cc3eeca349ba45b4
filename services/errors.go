package services

import "errors"

// Error kinds. Every rejection a service returns matches exactly one of them with errors.Is.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrInvalidState     = errors.New("operation not allowed in the current state")
	ErrForbidden        = errors.New("operation not allowed for the current user")
	ErrValidationFailed = errors.New("validation failed")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func notFound(msg string) error     { return &kindError{kind: ErrNotFound, msg: msg} }
func invalidState(msg string) error { return &kindError{kind: ErrInvalidState, msg: msg} }
func forbidden(msg string) error    { return &kindError{kind: ErrForbidden, msg: msg} }
func invalid(msg string) error      { return &kindError{kind: ErrValidationFailed, msg: msg} }

var (
	ErrTournamentNotFound = notFound("tournament not found")
	ErrMatchNotFound      = notFound("match not found")
	ErrGameNotFound       = notFound("match game not found")

	// Валидация входных данных
	ErrTitleRequired       = invalid("tournament title is required")
	ErrInvalidDateRange    = invalid("tournament end date must be after start date")
	ErrInvalidSlotsLimit   = invalid("slots limit must be at least 2")
	ErrInvalidTotalRounds  = invalid("total rounds must be positive")
	ErrInvalidGameCode     = invalid("game code must be 6 letters or digits")
	ErrStartDateRequired   = invalid("tournament start date is required")
	ErrInvalidStatusFilter = invalid("unknown status filter")
	ErrWinnerRequired      = invalid("winner is required")
	ErrInvalidStage        = invalid("unknown match stage")
	ErrLobbyTitleRequired  = invalid("game title is required")

	// Состояние турнира
	ErrTournamentTitleConflict = invalidState("tournament title already exists for this administrator")
	ErrTournamentNotDraft      = invalidState("tournament enrollment can only be opened from draft")
	ErrEnrollmentClosed        = invalidState("tournament is not open for enrollment")
	ErrTournamentFull          = invalidState("tournament registration is full")
	ErrAlreadyEnrolled         = invalidState("user is already enrolled in this tournament")
	ErrTournamentNotOpen       = invalidState("tournament can only be started while open")
	ErrNotEnoughParticipants   = invalidState("at least 2 enrolled participants are required")

	// Состояние матча и игры
	ErrMatchFinished             = invalidState("match is already finished")
	ErrGameActive                = invalidState("the previous game of this match is not confirmed yet")
	ErrGameNotPending            = invalidState("game is not waiting to be accepted")
	ErrGameNotInProgress         = invalidState("game is not in progress")
	ErrGameNotAwaitingConfirm    = invalidState("game result is not waiting for confirmation")
	ErrWinnerNotMatchParticipant = invalidState("reported winner does not play in this match")

	// Авторизация
	ErrAdminRequired       = forbidden("only administrators can create tournaments")
	ErrNotTournamentAdmin  = forbidden("only the tournament administrator can perform this action")
	ErrNotMatchParticipant = forbidden("user does not play in this match")
	ErrHostCannotAccept    = forbidden("the host cannot accept their own game")
	ErrNotGameHost         = forbidden("only the host can report the game result")
	ErrNotHostOpponent     = forbidden("only the host's opponent can confirm the game result")
)

package bracket

import "errors"

var (
	ErrUnauthorized             = errors.New("unauthorized")
	ErrRegistrationClosed       = errors.New("registration is closed")
	ErrCapacityExceeded         = errors.New("tournament is full")
	ErrInvalidRoster            = errors.New("invalid roster")
	ErrInvalidRating            = errors.New("rating must be between 0 and 5000")
	ErrInsufficientParticipants = errors.New("need at least 2 teams to start")
	ErrFieldLocked              = errors.New("cannot edit this field after tournament has started")
	ErrAlreadyFinalized         = errors.New("match already finished")
	ErrInvalidWinner            = errors.New("winner must be one of the match participants")
	ErrNotFound                 = errors.New("not found")

	ErrInvalidSchedule   = errors.New("registration deadline must be before start time")
	ErrTournamentNotOpen = errors.New("tournament is not open")
	ErrAlreadyRegistered = errors.New("team, captain or summoner name already registered in this tournament")
)

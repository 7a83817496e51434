package mystere

import "errors"

// Rule violations surfaced to the player. They are rejections, not faults:
// a rejected event leaves the session untouched.
var (
	ErrAlreadyRegistered = errors.New("user already registered in this session")
	ErrNumberTaken       = errors.New("number already claimed by another player")
	ErrSessionFull       = errors.New("session is full")
	ErrNotRegistered     = errors.New("user not registered in this session")
	ErrUnauthorized      = errors.New("user not authorized for this action")
	ErrNotEnoughPlayers  = errors.New("not enough players")
	ErrDealerAssigned    = errors.New("dealer already assigned")
	ErrNotReady          = errors.New("session state does not allow this action")
	ErrSessionNotFound   = errors.New("session not found")
)

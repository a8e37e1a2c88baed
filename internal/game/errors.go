package game

import "errors"

// Error kinds surfaced to clients. Each maps to a stable wire code via
// ErrorCode; the message is the human-readable half of the reply.
var (
	ErrAlreadyActive = errors.New("a session is already active")
	ErrNoSession     = errors.New("no session exists")
	ErrNotLobby      = errors.New("session is not in lobby")
	ErrSessionFull   = errors.New("session is full")
	ErrNameTaken     = errors.New("name is taken by a joined player (names free up when a player leaves)")
	ErrEmptyName     = errors.New("name must not be empty")
	ErrNotHost       = errors.New("only the host can start the game")
	ErrTooFewPlayers = errors.New("at least two players are required to start")
	ErrNotRunning    = errors.New("session is not running")

	ErrUnknownProduct = errors.New("unknown product")
	ErrQtyBounds      = errors.New("quantity is out of bounds")
	ErrBadSide        = errors.New("side must be buy or sell")
	ErrBadType        = errors.New("order type must be limit or market")
	ErrBadPrice       = errors.New("limit price must be a positive integer no greater than 1000000000")

	ErrInsufficientCash      = errors.New("insufficient cash")
	ErrInsufficientInventory = errors.New("insufficient inventory")

	ErrOrderNotFound   = errors.New("order not found")
	ErrNotOwner        = errors.New("order belongs to another player")
	ErrAlreadyTerminal = errors.New("order is already filled or cancelled")

	ErrUnknownPlayer = errors.New("unknown player (join first)")
)

// ErrorCode maps an error to the code carried in command replies.
// Unrecognized errors collapse to "internal".
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyActive):
		return "already_active"
	case errors.Is(err, ErrNoSession):
		return "no_session"
	case errors.Is(err, ErrNotLobby):
		return "not_lobby"
	case errors.Is(err, ErrSessionFull):
		return "full"
	case errors.Is(err, ErrNameTaken):
		return "name_taken"
	case errors.Is(err, ErrEmptyName):
		return "empty_name"
	case errors.Is(err, ErrNotHost):
		return "not_host"
	case errors.Is(err, ErrTooFewPlayers):
		return "too_few_players"
	case errors.Is(err, ErrNotRunning):
		return "session_not_running"
	case errors.Is(err, ErrUnknownProduct):
		return "unknown_product"
	case errors.Is(err, ErrQtyBounds):
		return "qty_out_of_bounds"
	case errors.Is(err, ErrBadSide):
		return "bad_side"
	case errors.Is(err, ErrBadType):
		return "bad_type"
	case errors.Is(err, ErrBadPrice):
		return "bad_price"
	case errors.Is(err, ErrInsufficientCash):
		return "insufficient_cash"
	case errors.Is(err, ErrInsufficientInventory):
		return "insufficient_inventory"
	case errors.Is(err, ErrOrderNotFound):
		return "not_found"
	case errors.Is(err, ErrNotOwner):
		return "not_owner"
	case errors.Is(err, ErrAlreadyTerminal):
		return "already_terminal"
	case errors.Is(err, ErrUnknownPlayer):
		return "unknown_player"
	default:
		return "internal"
	}
}

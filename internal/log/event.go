package log

// EventType enumerates the observable steps of a search.
type EventType int

const (
	EventTurnStart EventType = iota
	EventActions
	EventDraw
	EventPlay
	EventSacrifice
	EventAttack
	EventDirectDamage
	EventCardKilled
	EventEnemyPlace
	EventPromote
	EventRoundResult
	EventDuplicateState
	EventCircuitBreaker
	EventIterationCap
)

func (e EventType) String() string {
	switch e {
	case EventTurnStart:
		return "TurnStart"
	case EventActions:
		return "Actions"
	case EventDraw:
		return "Draw"
	case EventPlay:
		return "Play"
	case EventSacrifice:
		return "Sacrifice"
	case EventAttack:
		return "Attack"
	case EventDirectDamage:
		return "DirectDamage"
	case EventCardKilled:
		return "CardKilled"
	case EventEnemyPlace:
		return "EnemyPlace"
	case EventPromote:
		return "Promote"
	case EventRoundResult:
		return "RoundResult"
	case EventDuplicateState:
		return "DuplicateState"
	case EventCircuitBreaker:
		return "CircuitBreaker"
	case EventIterationCap:
		return "IterationCap"
	default:
		return "Unknown"
	}
}

// Side identifies who an event belongs to.
type Side int

const (
	SideNone Side = iota
	SidePlayer
	SideEnemy
)

func (s Side) String() string {
	switch s {
	case SidePlayer:
		return "player"
	case SideEnemy:
		return "enemy"
	default:
		return ""
	}
}

// GameEvent represents a single observable event in a search.
type GameEvent struct {
	Seq     int       // monotonic sequence number
	Branch  int       // search iteration that produced the event
	Turn    int       // game turn (1-based; 0 for setup)
	Side    Side      // acting side
	Type    EventType // event type
	Card    string    // card name (if applicable)
	Details string    // human-readable detail string
}

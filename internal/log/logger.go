package log

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// EventLogger is the interface for logging search events.
type EventLogger interface {
	Log(event GameEvent)
	Events() []GameEvent
}

// --- MemoryLogger: stores events in memory for test assertions ---

type MemoryLogger struct {
	events []GameEvent
	seq    int
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (l *MemoryLogger) Log(event GameEvent) {
	l.seq++
	event.Seq = l.seq
	l.events = append(l.events, event)
}

func (l *MemoryLogger) Events() []GameEvent {
	return l.events
}

// EventsOfType returns all events matching the given type.
func (l *MemoryLogger) EventsOfType(t EventType) []GameEvent {
	var result []GameEvent
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// LastEvent returns the most recent event, or a zero event if none.
func (l *MemoryLogger) LastEvent() GameEvent {
	if len(l.events) == 0 {
		return GameEvent{}
	}
	return l.events[len(l.events)-1]
}

// --- TextLogger: writes human-readable lines to an io.Writer ---

type TextLogger struct {
	MemoryLogger
	w io.Writer
}

func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: w}
}

func (l *TextLogger) Log(event GameEvent) {
	l.MemoryLogger.Log(event)
	fmt.Fprintln(l.w, FormatEvent(l.LastEvent()))
}

// --- FuncLogger: forwards events to a callback (streaming) ---

// FuncLogger numbers events and hands each one to fn. It keeps no history.
// Safe for use from one search at a time.
type FuncLogger struct {
	mu  sync.Mutex
	seq int
	fn  func(GameEvent)
}

func NewFuncLogger(fn func(GameEvent)) *FuncLogger {
	return &FuncLogger{fn: fn}
}

func (l *FuncLogger) Log(event GameEvent) {
	l.mu.Lock()
	l.seq++
	event.Seq = l.seq
	l.mu.Unlock()
	l.fn(event)
}

func (l *FuncLogger) Events() []GameEvent {
	return nil
}

// --- Formatting ---

// FormatEvent formats a single event as a human-readable line.
func FormatEvent(e GameEvent) string {
	side := e.Side.String()
	for len(side) < 7 {
		side += " "
	}
	return fmt.Sprintf("#%-5d T%-2d %s| %s", e.Branch, e.Turn, side, e.Details)
}

// FormatAll formats all events as a multi-line string.
func FormatAll(events []GameEvent) string {
	var sb strings.Builder
	for _, e := range events {
		sb.WriteString(FormatEvent(e))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// --- Helper constructors for common events ---

func NewTurnStartEvent(branch, turn int, side Side, playerDamage, enemyDamage int) GameEvent {
	return GameEvent{
		Branch:  branch,
		Turn:    turn,
		Side:    side,
		Type:    EventTurnStart,
		Details: fmt.Sprintf("=== Turn %d (%s) damage player %d / enemy %d ===", turn, side, playerDamage, enemyDamage),
	}
}

func NewActionsEvent(branch, turn int, actions []string) GameEvent {
	return GameEvent{
		Branch:  branch,
		Turn:    turn,
		Side:    SidePlayer,
		Type:    EventActions,
		Details: fmt.Sprintf("%d candidate actions: %s", len(actions), strings.Join(actions, "; ")),
	}
}

func NewDrawEvent(branch, turn int, cardName, pile string) GameEvent {
	return GameEvent{
		Branch:  branch,
		Turn:    turn,
		Side:    SidePlayer,
		Type:    EventDraw,
		Card:    cardName,
		Details: fmt.Sprintf("player draws %s from the %s deck", cardName, pile),
	}
}

func NewPlayEvent(branch, turn int, cardName string, lane int, sacrifices []string) GameEvent {
	details := fmt.Sprintf("player plays %s to lane %d", cardName, lane+1)
	if len(sacrifices) > 0 {
		details += fmt.Sprintf(" (sacrificed: %s)", strings.Join(sacrifices, ", "))
	}
	return GameEvent{
		Branch:  branch,
		Turn:    turn,
		Side:    SidePlayer,
		Type:    EventPlay,
		Card:    cardName,
		Details: details,
	}
}

func NewSacrificeEvent(branch, turn int, cardName string, fromBoard bool) GameEvent {
	from := "hand"
	if fromBoard {
		from = "board"
	}
	return GameEvent{
		Branch:  branch,
		Turn:    turn,
		Side:    SidePlayer,
		Type:    EventSacrifice,
		Card:    cardName,
		Details: fmt.Sprintf("%s is sacrificed from the %s", cardName, from),
	}
}

func NewAttackEvent(branch, turn int, side Side, attacker, defender string, damage int) GameEvent {
	return GameEvent{
		Branch:  branch,
		Turn:    turn,
		Side:    side,
		Type:    EventAttack,
		Card:    attacker,
		Details: fmt.Sprintf("%s hits %s for %d", attacker, defender, damage),
	}
}

func NewDirectDamageEvent(branch, turn int, side Side, attacker string, damage, total int) GameEvent {
	return GameEvent{
		Branch:  branch,
		Turn:    turn,
		Side:    side,
		Type:    EventDirectDamage,
		Card:    attacker,
		Details: fmt.Sprintf("%s deals %d direct damage (total %d)", attacker, damage, total),
	}
}

func NewCardKilledEvent(branch, turn int, side Side, cardName string) GameEvent {
	return GameEvent{
		Branch:  branch,
		Turn:    turn,
		Side:    side,
		Type:    EventCardKilled,
		Card:    cardName,
		Details: fmt.Sprintf("%s dies", cardName),
	}
}

func NewEnemyPlaceEvent(branch, turn int, cardName string, lane int) GameEvent {
	return GameEvent{
		Branch:  branch,
		Turn:    turn,
		Side:    SideEnemy,
		Type:    EventEnemyPlace,
		Card:    cardName,
		Details: fmt.Sprintf("enemy stages %s in lane %d", cardName, lane+1),
	}
}

func NewPromoteEvent(branch, turn int, cardName string) GameEvent {
	return GameEvent{
		Branch:  branch,
		Turn:    turn,
		Side:    SideEnemy,
		Type:    EventPromote,
		Card:    cardName,
		Details: fmt.Sprintf("%s moves up to the front row", cardName),
	}
}

func NewRoundResultEvent(branch, turn int, result string, playerDamage, enemyDamage int) GameEvent {
	return GameEvent{
		Branch:  branch,
		Turn:    turn,
		Type:    EventRoundResult,
		Details: fmt.Sprintf("round ends: %s (player took %d, enemy took %d)", result, playerDamage, enemyDamage),
	}
}

func NewDuplicateStateEvent(branch, turn int, count int) GameEvent {
	return GameEvent{
		Branch:  branch,
		Turn:    turn,
		Type:    EventDuplicateState,
		Details: fmt.Sprintf("duplicate state discarded (%d so far)", count),
	}
}

func NewCircuitBreakerEvent(branch, turn int, queueLen int) GameEvent {
	return GameEvent{
		Branch:  branch,
		Turn:    turn,
		Type:    EventCircuitBreaker,
		Details: fmt.Sprintf("circuit breaker tripped at queue length %d, branching reduced to 1", queueLen),
	}
}

func NewIterationCapEvent(branch, turn int, limit int) GameEvent {
	return GameEvent{
		Branch:  branch,
		Turn:    turn,
		Type:    EventIterationCap,
		Details: fmt.Sprintf("iteration cap %d reached, search stopped", limit),
	}
}

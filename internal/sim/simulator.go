package sim

import (
	"fmt"

	"github.com/peterkuimelis/lanesim/internal/game"
	"github.com/peterkuimelis/lanesim/internal/log"
)

// InvariantError is raised (with panic) when the engine reaches a state that
// valid inputs cannot produce. Simulate turns it into an error.
type InvariantError = game.InvariantError

// WinMargin is the damage lead that ends a round.
const WinMargin = 5

// Config controls the search.
type Config struct {
	MaxTurns       int
	MaxBranch      int // actions expanded per player turn
	MinActionScore int // scored actions below this are dropped

	CircuitBreaker int // queue length that cuts branching to 1; 0 disables
	IterationCap   int // dequeued states before stopping; 0 disables

	CheckDuplicateStates bool
	AlwaysDrawCreature   bool
	AlwaysDrawSacrifice  bool

	OneActionPerCard       bool
	LookaheadTurns         int
	PreferCreatureFallback bool
}

// DefaultConfig matches the stock engine: 50 turns, a single branch and no
// pruning.
func DefaultConfig() Config {
	return Config{
		MaxTurns:         50,
		MaxBranch:        1,
		MinActionScore:   1,
		OneActionPerCard: true,
		LookaheadTurns:   DefaultLookahead,
	}
}

// GreedyConfig follows a single path: the best action each turn, even a
// zero-score one, and a creature draw when nothing scores.
func GreedyConfig() Config {
	cfg := DefaultConfig()
	cfg.MinActionScore = 0
	cfg.PreferCreatureFallback = true
	return cfg
}

func (c Config) normalized() Config {
	if c.MaxBranch < 1 {
		c.MaxBranch = 1
	}
	if c.LookaheadTurns < 1 {
		c.LookaheadTurns = DefaultLookahead
	}
	return c
}

// Setup is the starting position of a run.
type Setup struct {
	StartingHandSize int

	// Card lists with the top of the deck last.
	Creatures  []*game.CardDefinition
	Sacrifices []*game.CardDefinition

	// Shuffle both decks (sacrifices first) with a generator seeded by
	// ShuffleSeed when building them.
	Shuffle     bool
	ShuffleSeed int64

	// Opponent is cloned by Simulate, so a Setup can be run more than once.
	Opponent *game.Opponent
}

// Simulator runs the breadth-first search over player decisions.
type Simulator struct {
	Config Config
	Logger log.EventLogger // nil disables tracing
}

func New(cfg Config) *Simulator {
	return &Simulator{Config: cfg}
}

// Simulate explores every branch the configuration allows and returns the
// rounds reached. Engine invariant violations abort the run and are returned
// as an error wrapping *InvariantError.
func (sm *Simulator) Simulate(setup Setup) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			inv, ok := r.(*InvariantError)
			if !ok {
				panic(r)
			}
			res = nil
			err = fmt.Errorf("simulate: %w", inv)
		}
	}()

	cfg := sm.Config.normalized()
	run := &runContext{
		ids:         game.NewIDSource(),
		playerCards: NewPerformanceSummary(),
		enemyCards:  NewPerformanceSummary(),
		trace:       sm.Logger,
	}
	res = &Result{}
	initial := newInitialState(setup, run)

	queue := []*state{initial}
	seen := seenStates(initial, cfg)
	tripped := false

	enqueue := func(s *state) {
		if result, done := classify(s, cfg); done {
			res.Rounds = append(res.Rounds, Round{
				Turns:        s.turn,
				Result:       result,
				PlayerDamage: s.playerDamage,
				EnemyDamage:  s.enemyDamage,
			})
			s.recordRound(result)
			if run.tracing() {
				run.trace.Log(log.NewRoundResultEvent(run.branch, s.turn, result.String(), s.playerDamage, s.enemyDamage))
			}
			return
		}
		if cfg.CheckDuplicateStates {
			k := s.key()
			if _, dup := seen[k]; dup {
				res.DuplicateStates++
				if run.tracing() {
					run.trace.Log(log.NewDuplicateStateEvent(run.branch, s.turn, res.DuplicateStates))
				}
				return
			}
			seen[k] = struct{}{}
		}
		queue = append(queue, s)
	}

	for len(queue) > 0 {
		if cfg.IterationCap > 0 && res.Iterations >= cfg.IterationCap {
			res.Truncated = true
			if run.tracing() {
				run.trace.Log(log.NewIterationCapEvent(run.branch, queue[0].turn, cfg.IterationCap))
			}
			break
		}
		if !tripped && cfg.CircuitBreaker > 0 && len(queue) > cfg.CircuitBreaker {
			tripped = true
			res.CircuitBreakerTripped = true
			if run.tracing() {
				run.trace.Log(log.NewCircuitBreakerEvent(run.branch, queue[0].turn, len(queue)))
			}
		}

		s := queue[0]
		queue[0] = nil
		queue = queue[1:]
		res.Iterations++
		run.branch = res.Iterations

		if s.playerMove {
			if run.tracing() {
				run.trace.Log(log.NewTurnStartEvent(run.branch, s.turn, log.SidePlayer, s.playerDamage, s.enemyDamage))
			}
			for _, action := range sm.playerActions(s, cfg, tripped) {
				enqueue(stepPlayer(s, action))
			}
		} else {
			if run.tracing() {
				run.trace.Log(log.NewTurnStartEvent(run.branch, s.turn, log.SideEnemy, s.playerDamage, s.enemyDamage))
			}
			stepEnemy(s)
			enqueue(s)
		}
	}

	res.PlayerCards = run.playerCards.Cards()
	res.EnemyCards = run.enemyCards.Cards()
	return res, nil
}

// seenStates starts the duplicate set. The root is already queued, so it is
// registered before any successor is checked.
func seenStates(initial *state, cfg Config) map[string]struct{} {
	seen := make(map[string]struct{})
	if cfg.CheckDuplicateStates {
		seen[initial.key()] = struct{}{}
	}
	return seen
}

func newInitialState(setup Setup, run *runContext) *state {
	var rnd *game.Random
	if setup.Shuffle {
		rnd = game.NewRandom(setup.ShuffleSeed)
	}
	sacrifices := game.NewDeck(run.ids.Instances(setup.Sacrifices), rnd)
	creatures := game.NewDeck(run.ids.Instances(setup.Creatures), rnd)

	opponent := setup.Opponent
	if opponent == nil {
		opponent = game.NewOpponent(nil, nil, nil, nil)
	} else {
		opponent = opponent.Clone()
	}

	s := &state{
		turn:       1,
		playerMove: true,
		lanes:      game.NewLanes(),
		creatures:  creatures,
		sacrifices: sacrifices,
		opponent:   opponent,
		run:        run,
	}
	for i := 0; i < setup.StartingHandSize && !creatures.Empty(); i++ {
		s.hand = append(s.hand, creatures.DrawFromTop())
	}
	s.placeEnemyCards(0, [game.LaneCount]bool{})
	return s
}

// classify reports whether s is terminal and how it ended.
func classify(s *state, cfg Config) (RoundResult, bool) {
	if s.turn > cfg.MaxTurns {
		return MaxTurnsReached, true
	}
	net := s.enemyDamage - s.playerDamage
	if net >= WinMargin || net <= -WinMargin {
		if s.playerDamage < s.enemyDamage {
			return PlayerWin, true
		}
		return EnemyWin, true
	}
	if s.isStalemate() {
		return Stalemate, true
	}
	return 0, false
}

// playerActions picks the actions to expand for a player turn.
func (sm *Simulator) playerActions(s *state, cfg Config, tripped bool) []TurnAction {
	var byCreature, bySacrifice []TurnAction
	if !s.creatures.Empty() {
		hand := append(append([]*game.CardInstance(nil), s.hand...), s.creatures.PeekTop())
		byCreature = EnumerateActions(DrawCreature, hand, s.lanes, cfg.MaxBranch, cfg.OneActionPerCard, cfg.LookaheadTurns)
	}
	if !s.sacrifices.Empty() {
		hand := append(append([]*game.CardInstance(nil), s.hand...), s.sacrifices.PeekTop())
		bySacrifice = EnumerateActions(DrawSacrifice, hand, s.lanes, cfg.MaxBranch, cfg.OneActionPerCard, cfg.LookaheadTurns)
	}

	actions := TakeTop(cfg.MaxBranch, cfg.MinActionScore, byCreature, bySacrifice)
	if cfg.AlwaysDrawCreature && !s.creatures.Empty() {
		actions = append(actions, TurnAction{Draw: DrawCreature})
	}
	if cfg.AlwaysDrawSacrifice && !s.sacrifices.Empty() {
		actions = append(actions, TurnAction{Draw: DrawSacrifice})
	}
	if len(actions) == 0 {
		actions = append(actions, TurnAction{Draw: fallbackDraw(s, cfg.PreferCreatureFallback)})
	}
	if tripped && len(actions) > 1 {
		actions = actions[:1]
	}

	if s.run.tracing() {
		names := make([]string, len(actions))
		for i, a := range actions {
			names[i] = a.String()
		}
		s.run.trace.Log(log.NewActionsEvent(s.run.branch, s.turn, names))
	}
	return actions
}

func fallbackDraw(s *state, preferCreature bool) DrawAction {
	first, second := DrawSacrifice, DrawCreature
	if preferCreature {
		first, second = DrawCreature, DrawSacrifice
	}
	for _, d := range []DrawAction{first, second} {
		if d == DrawSacrifice && !s.sacrifices.Empty() {
			return d
		}
		if d == DrawCreature && !s.creatures.Empty() {
			return d
		}
	}
	return NoDraw
}

// stepPlayer applies action to a clone of s and resolves the player's attack.
func stepPlayer(s *state, action TurnAction) *state {
	next := s.clone()
	run := next.run

	switch action.Draw {
	case DrawCreature:
		card := next.creatures.DrawFromTop()
		next.hand = append(next.hand, card)
		if run.tracing() {
			run.trace.Log(log.NewDrawEvent(run.branch, next.turn, card.Card.Name(), "creature"))
		}
	case DrawSacrifice:
		card := next.sacrifices.DrawFromTop()
		next.hand = append(next.hand, card)
		if run.tracing() {
			run.trace.Log(log.NewDrawEvent(run.branch, next.turn, card.Card.Name(), "sacrifice"))
		}
	}

	if action.Play != nil {
		next.playCard(action.Play)
	}

	next.resolveCombat(true)
	next.playerMove = false
	return next
}

// playCard pays for and places a card. Instances are matched by id because
// the action was built against the parent state.
func (s *state) playCard(play *PlayCard) {
	run := s.run
	names := make([]string, 0, len(play.Sacrifices))
	for _, sac := range play.Sacrifices {
		names = append(names, sac.Card.Name())
		if s.removeFromHand(sac.ID) != nil {
			if run.tracing() {
				run.trace.Log(log.NewSacrificeEvent(run.branch, s.turn, sac.Card.Name(), false))
			}
			continue
		}
		if onBoard, _, _ := s.lanes.FindByID(sac.ID); onBoard != nil && s.lanes.TryRemoveByID(sac.ID) {
			s.playerGraveyard = append(s.playerGraveyard, onBoard)
			if run.tracing() {
				run.trace.Log(log.NewSacrificeEvent(run.branch, s.turn, sac.Card.Name(), true))
			}
			continue
		}
		panic(&InvariantError{Op: "playCard", Msg: fmt.Sprintf("sacrifice %s is neither in hand nor on the board", sac)})
	}

	card := s.removeFromHand(play.Card.ID)
	if card == nil {
		panic(&InvariantError{Op: "playCard", Msg: fmt.Sprintf("%s is not in hand", play.Card)})
	}
	s.lanes.PlayCard(card, play.Lane, false)
	if run.tracing() {
		run.trace.Log(log.NewPlayEvent(run.branch, s.turn, card.Card.Name(), play.Lane, names))
	}
}

// stepEnemy advances s in place through the enemy's half of the turn.
func stepEnemy(s *state) {
	for _, c := range s.lanes.PromoteStagedCards() {
		if s.run.tracing() {
			s.run.trace.Log(log.NewPromoteEvent(s.run.branch, s.turn, c.Card.Name()))
		}
	}
	s.placeEnemyCards(s.turn, s.lanes.Occupied(game.RowEnemyStaged))
	s.resolveCombat(false)
	s.turn++
	s.playerMove = true
}

func (s *state) placeEnemyCards(turn int, occupied [game.LaneCount]bool) {
	for _, p := range s.opponent.MovesForTurn(turn, occupied) {
		s.lanes.PlayCard(s.run.ids.NewInstance(p.Card), p.Lane, true)
		if s.run.tracing() {
			s.run.trace.Log(log.NewEnemyPlaceEvent(s.run.branch, turn, p.Card.Name(), p.Lane))
		}
	}
}

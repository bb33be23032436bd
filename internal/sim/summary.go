package sim

import "github.com/peterkuimelis/lanesim/internal/game"

// CardPerformance aggregates how one kind of card did across every round of
// a run.
type CardPerformance struct {
	Card           game.CardIdentity
	Played         int
	Won            int
	Lost           int
	DamageDealt    int
	DamageReceived int
}

// PerformanceSummary merges card performance by stat identity. Cards are
// listed in the order they were first recorded.
type PerformanceSummary struct {
	order  []game.CardIdentity
	byCard map[game.CardIdentity]*CardPerformance
}

func NewPerformanceSummary() *PerformanceSummary {
	return &PerformanceSummary{byCard: make(map[game.CardIdentity]*CardPerformance)}
}

func (s *PerformanceSummary) entry(id game.CardIdentity) *CardPerformance {
	p, ok := s.byCard[id]
	if !ok {
		p = &CardPerformance{Card: id}
		s.byCard[id] = p
		s.order = append(s.order, id)
	}
	return p
}

// Record counts one appearance of card in a finished round.
func (s *PerformanceSummary) Record(card *game.CardInstance, won, lost bool) {
	p := s.entry(card.Card.Identity())
	p.Played++
	if won {
		p.Won++
	}
	if lost {
		p.Lost++
	}
	p.DamageDealt += card.DamageDealt
	p.DamageReceived += card.DamageReceived
}

// Merge adds every counter of other into s.
func (s *PerformanceSummary) Merge(other *PerformanceSummary) {
	for _, id := range other.order {
		src := other.byCard[id]
		p := s.entry(id)
		p.Played += src.Played
		p.Won += src.Won
		p.Lost += src.Lost
		p.DamageDealt += src.DamageDealt
		p.DamageReceived += src.DamageReceived
	}
}

// Get returns the counters for one card identity.
func (s *PerformanceSummary) Get(id game.CardIdentity) (CardPerformance, bool) {
	p, ok := s.byCard[id]
	if !ok {
		return CardPerformance{}, false
	}
	return *p, true
}

func (s *PerformanceSummary) Len() int { return len(s.order) }

// Cards returns a snapshot of every entry in first-seen order.
func (s *PerformanceSummary) Cards() []CardPerformance {
	out := make([]CardPerformance, len(s.order))
	for i, id := range s.order {
		out[i] = *s.byCard[id]
	}
	return out
}

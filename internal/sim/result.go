package sim

import (
	"fmt"
	"strings"
)

// RoundResult is how a finished branch ended.
type RoundResult int

const (
	PlayerWin RoundResult = iota
	EnemyWin
	Stalemate
	MaxTurnsReached
)

func (r RoundResult) String() string {
	switch r {
	case PlayerWin:
		return "PlayerWin"
	case EnemyWin:
		return "EnemyWin"
	case Stalemate:
		return "Stalemate"
	case MaxTurnsReached:
		return "MaxTurnsReached"
	default:
		return "Unknown"
	}
}

// ParseRoundResult is the inverse of String.
func ParseRoundResult(s string) (RoundResult, error) {
	for _, r := range []RoundResult{PlayerWin, EnemyWin, Stalemate, MaxTurnsReached} {
		if strings.EqualFold(s, r.String()) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown round result %q", s)
}

// Round is one terminal state reached by the search.
type Round struct {
	Turns        int
	Result       RoundResult
	PlayerDamage int // damage received by the player
	EnemyDamage  int // damage received by the enemy
}

// Result is everything a run produced.
type Result struct {
	Rounds      []Round
	PlayerCards []CardPerformance
	EnemyCards  []CardPerformance

	DuplicateStates int
	Iterations      int

	// CircuitBreakerTripped reports that branching was cut to 1 part way
	// through; Truncated that the iteration cap stopped the search.
	CircuitBreakerTripped bool
	Truncated             bool
}

// Count returns the number of rounds that ended with kind.
func (r *Result) Count(kind RoundResult) int {
	n := 0
	for _, round := range r.Rounds {
		if round.Result == kind {
			n++
		}
	}
	return n
}

// WinRate is the fraction of rounds the player won (0 with no rounds).
func (r *Result) WinRate() float64 {
	if len(r.Rounds) == 0 {
		return 0
	}
	return float64(r.Count(PlayerWin)) / float64(len(r.Rounds))
}

// EnemyDamageDealt sums the damage the player received over every round.
func (r *Result) EnemyDamageDealt() int {
	total := 0
	for _, round := range r.Rounds {
		total += round.PlayerDamage
	}
	return total
}

func (r *Result) String() string {
	return fmt.Sprintf("%d rounds: %d player wins, %d enemy wins, %d stalemates, %d max turns (%d duplicates, %d iterations)",
		len(r.Rounds), r.Count(PlayerWin), r.Count(EnemyWin), r.Count(Stalemate), r.Count(MaxTurnsReached),
		r.DuplicateStates, r.Iterations)
}

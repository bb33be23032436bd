package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/peterkuimelis/lanesim/internal/analysis"
	"github.com/peterkuimelis/lanesim/internal/log"
	lanenet "github.com/peterkuimelis/lanesim/internal/net"
)

func runSimulate(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	c := addCommon(fs)
	o := addOverrides(fs)
	deck := fs.String("deck", "", "player deck name")
	opponent := fs.String("opponent", "", "opponent script name")
	seed := fs.Int64("seed", 1, "shuffle and opponent seed")
	hand := fs.Int("hand", 0, "starting hand size (0 uses the config)")
	trace := fs.Bool("trace", false, "print every game event")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	store := fs.Bool("store", false, "save the run to the run store")
	label := fs.String("label", "", "label saved with the run")
	fs.Parse(args)

	e, err := c.load(*store)
	if err != nil {
		return err
	}
	defer e.close()

	req := lanenet.RequestView{Deck: *deck, Opponent: *opponent, Seed: *seed, HandSize: *hand, Label: *label}
	o.apply(&req)

	var sink log.EventLogger
	if *trace {
		sink = log.NewTextLogger(os.Stdout)
	}
	res, id, err := e.runner().Run(context.Background(), req, sink)
	if err != nil {
		return err
	}

	view := lanenet.NewResultView(res)
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	printResult(os.Stdout, view)
	if id != "" {
		fmt.Printf("Saved run %s\n", id)
	}
	return nil
}

func runCalibrate(args []string) error {
	fs := flag.NewFlagSet("calibrate", flag.ExitOnError)
	c := addCommon(fs)
	deck := fs.String("deck", "", "player deck name")
	opponent := fs.String("opponent", "", "opponent script name")
	seed := fs.Int64("seed", 1, "shuffle and opponent seed")
	fs.Parse(args)

	if *opponent == "" {
		return fmt.Errorf("--opponent is required")
	}
	e, err := c.load(false)
	if err != nil {
		return err
	}
	defer e.close()

	setup, _, err := e.runner().Setup(lanenet.RequestView{Deck: *deck, Opponent: *opponent, Seed: *seed})
	if err != nil {
		return err
	}
	cal, err := analysis.Calibrate(setup, analysis.CalibrationConfig(), e.cfg.Analysis.Thresholds())
	if err != nil {
		return err
	}

	fmt.Printf("Difficulty: %s\n", cal.Difficulty)
	if cal.Reason != "" {
		fmt.Printf("Reason:     %s\n", cal.Reason)
	}
	if cal.Marker != "" {
		fmt.Printf("Marker:     %s\n", cal.Marker)
	}
	if cal.Difficulty != analysis.FailedGuardrail {
		fmt.Printf("Win rate:   %.1f%%\n", cal.WinRate*100)
		fmt.Printf("Summary:    %s\n", cal.Summary)
	}
	return nil
}

func printResult(w io.Writer, v *lanenet.ResultView) {
	fmt.Fprintf(w, "Rounds:     %d\n", v.Rounds)
	fmt.Fprintf(w, "Player wins %d, enemy wins %d, stalemates %d, max turns %d\n",
		v.PlayerWins, v.EnemyWins, v.Stalemates, v.MaxTurns)
	fmt.Fprintf(w, "Win rate:   %.1f%%\n", v.WinRate*100)
	fmt.Fprintf(w, "Duplicates: %d  Iterations: %d\n", v.DuplicateStates, v.Iterations)
	if v.CircuitBreakerTripped {
		fmt.Fprintln(w, "Circuit breaker tripped: branching was cut to 1")
	}
	if v.Truncated {
		fmt.Fprintln(w, "Iteration cap reached: search truncated")
	}

	printCards(w, "Player cards", v.PlayerCards)
	printCards(w, "Enemy cards", v.EnemyCards)
}

func printCards(w io.Writer, title string, cards []lanenet.CardStatView) {
	if len(cards) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CARD\tSTATS\tPLAYED\tWON\tLOST\tDEALT\tTAKEN")
	for _, c := range cards {
		fmt.Fprintf(tw, "%s\t%d/%d\t%d\t%d\t%d\t%d\t%d\n",
			c.Name, c.Attack, c.Health, c.Played, c.Won, c.Lost, c.DamageDealt, c.DamageReceived)
	}
	tw.Flush()
}

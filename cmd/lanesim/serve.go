package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	lanenet "github.com/peterkuimelis/lanesim/internal/net"
	"github.com/peterkuimelis/lanesim/internal/storage"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	c := addCommon(fs)
	addr := fs.String("addr", ":9000", "TCP address to listen on")
	store := fs.Bool("store", true, "save served runs to the run store")
	fs.Parse(args)

	e, err := c.load(*store)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := e.runner()
	runner.Limits = e.cfg.Server.Limits()
	srv := &lanenet.Server{Runner: runner, Logger: e.logger}
	return srv.ListenAndServe(ctx, *addr)
}

func runSubmit(args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	o := addOverrides(fs)
	addr := fs.String("addr", "localhost:9000", "simulation service address")
	deck := fs.String("deck", "", "player deck name")
	opponent := fs.String("opponent", "", "opponent script name")
	seed := fs.Int64("seed", 1, "shuffle and opponent seed")
	hand := fs.Int("hand", 0, "starting hand size (0 uses the server default)")
	label := fs.String("label", "", "label saved with the run")
	trace := fs.Bool("trace", false, "stream game events")
	timeout := fs.Duration("timeout", 5*time.Minute, "request timeout")
	fs.Parse(args)

	req := lanenet.RequestView{Deck: *deck, Opponent: *opponent, Seed: *seed, HandSize: *hand, Label: *label, Trace: *trace}
	o.apply(&req)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var onEvent func(lanenet.EventView)
	if *trace {
		onEvent = func(ev lanenet.EventView) {
			fmt.Printf("[%4d] b%-3d t%-2d %-7s %s\n", ev.Seq, ev.Branch, ev.Turn, ev.Side, ev.Details)
		}
	}
	res, id, err := lanenet.Submit(ctx, *addr, req, onEvent)
	if err != nil {
		return err
	}
	printResult(os.Stdout, res)
	if id != "" {
		fmt.Printf("Saved run %s\n", id)
	}
	return nil
}

func runRuns(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	c := addCommon(fs)
	limit := fs.Int("limit", 20, "number of runs to list")
	id := fs.String("id", "", "show card stats for one run")
	fs.Parse(args)

	e, err := c.load(true)
	if err != nil {
		return err
	}
	defer e.close()
	ctx := context.Background()

	if *id != "" {
		run, err := e.store.GetRun(ctx, *id)
		if err != nil {
			return err
		}
		stats, err := e.store.CardStats(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Printf("Run %s (%s vs %s, seed %d)\n", run.ID, run.Deck, run.Opponent, run.Seed)
		var player, enemy []lanenet.CardStatView
		for _, st := range stats {
			if st.Side == storage.SidePlayer {
				player = append(player, lanenet.NewCardStatView(st.CardPerformance))
			} else {
				enemy = append(enemy, lanenet.NewCardStatView(st.CardPerformance))
			}
		}
		printCards(os.Stdout, "Player cards", player)
		printCards(os.Stdout, "Enemy cards", enemy)
		return nil
	}

	runs, err := e.store.ListRuns(ctx, *limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tLABEL\tDECK\tOPPONENT\tSEED\tROUNDS\tWINS\tLOSSES")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.ID, r.CreatedAt.Format(time.DateTime), r.Label, r.Deck, r.Opponent, r.Seed,
			r.Rounds, r.PlayerWins, r.EnemyWins)
	}
	return tw.Flush()
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/api"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/collector"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/config"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/cycle"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/metrics"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/notifier"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/quota"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/recorder"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/scheduler"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/strategy"
	"github.com/AbdulsaboorS/fantasybasketballbot/internal/transaction"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	app := &cli.App{
		Name:  "fantasybot",
		Usage: "ESPN fantasy basketball roster assistant",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "configs/config.yaml",
				Usage:   "path to the YAML config",
				EnvVars: []string{"CONFIG_PATH"},
			},
			&cli.BoolFlag{
				Name:  "mock",
				Usage: "read from built-in mock data instead of ESPN",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			cycleCommand(),
			suggestCommand(),
			lineupCommand(),
			quotaCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
}

// bot holds the wired components shared by every command.
type bot struct {
	cfg          *config.Config
	orchestrator *cycle.Orchestrator
	recorder     recorder.Recorder
	metrics      *metrics.Metrics
	closers      []func() error
}

func (b *bot) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			log.Printf("[WARN] close: %v", err)
		}
	}
}

func setup(c *cli.Context) (*bot, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	mock := c.Bool("mock")
	if !mock {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config validation: %w", err)
		}
	}
	b := &bot{cfg: cfg, metrics: metrics.New()}

	// Init fetcher
	var fetcher collector.Fetcher
	if mock {
		fetcher = &collector.MockFetcher{Period: 1}
	} else {
		fetcher = collector.NewESPNFetcher(cfg.League.LeagueID, cfg.League.TeamID, cfg.League.SeasonYear,
			cfg.League.ESPNAuth.SWID, cfg.League.ESPNAuth.ESPNS2, cfg.Slots, cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())
	col := collector.NewCollector(fetcher, cfg.Strategy.Streaming.FreeAgentPoolSize)

	// Init quota store
	var store quota.Store
	switch cfg.Quota.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Quota.RedisAddr, Password: cfg.Quota.RedisPassword})
		if err := rdb.Ping(c.Context).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Quota.RedisAddr, err)
		}
		b.closers = append(b.closers, rdb.Close)
		store = quota.NewRedisStore(rdb, cfg.Quota.RedisKey, cfg.League.LeagueID, cfg.League.TeamID)
	default:
		store = quota.NewFileStore(cfg.Quota.StateFile)
	}
	log.Printf("[INFO] quota store: %s", store.Name())
	ledger := quota.NewLedger(store, cfg.Strategy.Streaming.WeeklyLimit)

	// Init recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			b.recorder = recorder.NewNoopRecorder()
		} else {
			b.recorder = sr
			b.closers = append(b.closers, sr.Close)
		}
	} else {
		b.recorder = recorder.NewNoopRecorder()
	}

	creds := transaction.Credentials{SWID: cfg.League.ESPNAuth.SWID, ESPNS2: cfg.League.ESPNAuth.ESPNS2}
	s := cfg.Strategy.Streaming
	b.orchestrator = cycle.New(cycle.Config{
		LeagueID: cfg.League.LeagueID,
		TeamID:   cfg.League.TeamID,
		Year:     cfg.League.SeasonYear,
		MemberID: cfg.League.ESPNAuth.SWID,
		Stream: strategy.StreamParams{
			Guardrails:     cfg.Strategy.Guardrails,
			MinGain:        s.MinPointsGain,
			WeeklyLimit:    s.WeeklyLimit,
			PoolSize:       s.FreeAgentPoolSize,
			TierCount:      s.TierCount,
			LowestTierSize: s.LowestTierSize,
		},
		Slots:  cfg.Slots,
		DryRun: s.DryRun || mock,
	}, col, ledger,
		transaction.NewBuilder(cfg.FreeAgentTemplate, cfg.LineupTemplate),
		transaction.NewSubmitter(creds, cfg.Proxy),
		b.recorder, b.metrics)

	if b.orchestrator.DryRun() {
		log.Println("[INFO] dry run: transactions are rendered but not sent")
	}
	return b, nil
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "run the scheduler, Telegram bot and dashboard API",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "run-on-start", Usage: "collect suggestions immediately", EnvVars: []string{"RUN_ON_START"}},
			&cli.BoolFlag{Name: "no-api", Usage: "do not serve the dashboard API"},
		},
		Action: func(c *cli.Context) error {
			log.Println("[INFO] fantasybot starting...")
			b, err := setup(c)
			if err != nil {
				return err
			}
			defer b.Close()

			// Context for graceful shutdown
			ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			var n notifier.Notifier = notifier.LogNotifier{}
			var tn *notifier.TelegramNotifier
			if b.cfg.Telegram.BotToken != "" {
				tn = notifier.NewTelegramNotifier(b.cfg.Telegram.BotToken, b.cfg.Telegram.ChatID, b.cfg.Proxy)
				n = tn
			} else {
				log.Println("[WARN] telegram not configured, notifications go to the log")
			}

			// Init scheduler
			sched := scheduler.NewScheduler(ctx, b.orchestrator, n, b.recorder, b.cfg.Lineup.AutoSwap)
			if err := sched.RegisterAll(b.cfg.Schedule.CycleCron, b.cfg.Schedule.LineupCheckCron); err != nil {
				return fmt.Errorf("register cron tasks: %w", err)
			}
			sched.Start()
			defer sched.Stop()

			if tn != nil {
				go tn.StartPolling(ctx, sched.HandleCommand)
				log.Println("[INFO] Telegram polling started")
			}

			apiErr := make(chan error, 1)
			if !c.Bool("no-api") {
				srv := api.NewServer(b.orchestrator, b.recorder, b.metrics)
				go func() { apiErr <- srv.Run(ctx, b.cfg.API.Addr) }()
			}

			if c.Bool("run-on-start") {
				log.Println("[INFO] RUN_ON_START enabled, collecting suggestions now")
				go sched.RunCycleNow()
			}

			log.Println("[INFO] fantasybot is running. Press Ctrl+C to stop.")
			select {
			case <-ctx.Done():
				log.Println("[INFO] shutdown signal received, stopping...")
			case err := <-apiErr:
				if err != nil {
					return fmt.Errorf("api server: %w", err)
				}
			}
			return nil
		},
	}
}

func cycleCommand() *cli.Command {
	return &cli.Command{
		Name:  "cycle",
		Usage: "run one decision cycle",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "confirm", Usage: "execute the streaming move without prompting"},
			&cli.BoolFlag{Name: "interactive", Aliases: []string{"i"}, Usage: "prompt to confirm, decline or regenerate"},
		},
		Action: func(c *cli.Context) error {
			b, err := setup(c)
			if err != nil {
				return err
			}
			defer b.Close()

			if c.Bool("interactive") {
				return interactive(c.Context, b.orchestrator, os.Stdin)
			}
			res, err := b.orchestrator.RunCycle(c.Context, c.Bool("confirm"))
			if err != nil {
				return err
			}
			for _, a := range res.Actions {
				fmt.Println(a)
			}
			return nil
		},
	}
}

// interactive drives a session from a line-oriented prompt.
func interactive(ctx context.Context, o *cycle.Orchestrator, in io.Reader) error {
	sess, err := o.Start(ctx)
	if err != nil {
		return err
	}
	reader := bufio.NewScanner(in)
	for sess.State() == cycle.StateAwaitingConfirmation {
		for _, line := range sess.Suggestions().Lines() {
			fmt.Println("  " + line)
		}
		fmt.Print("confirm / decline / regenerate? ")
		if !reader.Scan() {
			return sess.Decide(ctx, cycle.DecisionDecline)
		}
		d, err := cycle.ParseDecision(strings.ToLower(strings.TrimSpace(reader.Text())))
		if err != nil {
			fmt.Println(err)
			continue
		}
		if err := sess.Decide(ctx, d); err != nil {
			return err
		}
	}
	res, err := sess.Result()
	if err != nil {
		return err
	}
	if res != nil {
		for _, a := range res.Actions {
			fmt.Println(a)
		}
	}
	return nil
}

func suggestCommand() *cli.Command {
	return &cli.Command{
		Name:  "suggest",
		Usage: "print suggestions without executing anything",
		Action: func(c *cli.Context) error {
			b, err := setup(c)
			if err != nil {
				return err
			}
			defer b.Close()

			s, err := b.orchestrator.GetSuggestions(c.Context)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s), scoring period %d\n", s.Team.Name, s.Team.Record, s.ScoringPeriodID)
			for _, line := range s.Lines() {
				fmt.Println("  " + line)
			}
			fmt.Printf("quota %s: %d/%d used\n", s.Quota.Week, s.Quota.Used, s.Quota.Limit)
			return nil
		},
	}
}

func lineupCommand() *cli.Command {
	return &cli.Command{
		Name:  "lineup-status",
		Usage: "check today's starters, optionally applying swaps",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "execute", Usage: "submit urgent swaps"},
			&cli.BoolFlag{Name: "include-no-game", Usage: "also submit swaps for starters without a game"},
		},
		Action: func(c *cli.Context) error {
			b, err := setup(c)
			if err != nil {
				return err
			}
			defer b.Close()

			if c.Bool("execute") {
				report, outcomes, err := b.orchestrator.ExecuteLineupSwaps(c.Context, c.Bool("include-no-game"))
				if err != nil {
					return err
				}
				printLineup(report)
				for _, o := range outcomes {
					fmt.Println("  " + o.Message)
				}
				return nil
			}
			report, err := b.orchestrator.CheckLineupStatus(c.Context)
			if err != nil {
				return err
			}
			b.orchestrator.RecordLineupCheck(report)
			printLineup(report)
			return nil
		},
	}
}

func printLineup(r *cycle.LineupReport) {
	if !r.Status.HasAlerts() {
		fmt.Println("All starters are healthy and playing today.")
		return
	}
	for _, a := range r.Status.UrgentSwaps {
		fmt.Println("URGENT: " + a.Describe())
	}
	for _, a := range r.Status.NoGameSwaps {
		fmt.Println("NO GAME: " + a.Describe())
	}
	for _, p := range r.Status.Questionable {
		fmt.Printf("QUESTIONABLE: %s (%s)\n", p.Name, p.Status)
	}
}

func quotaCommand() *cli.Command {
	return &cli.Command{
		Name:  "quota",
		Usage: "show the weekly transaction quota",
		Action: func(c *cli.Context) error {
			b, err := setup(c)
			if err != nil {
				return err
			}
			defer b.Close()

			v, err := b.orchestrator.Quota(c.Context)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d/%d used, %d remaining\n", v.Week, v.Used, v.Limit, v.Remaining)
			return nil
		},
	}
}

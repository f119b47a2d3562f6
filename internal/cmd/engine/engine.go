// Package engine parses engine command flags and launches the engine runtime.
package engine

import (
	"context"
	"flag"
	"log"
	"time"

	entrypoint "github.com/RobGibbens/CardGames-sub000/internal/platform/cmd"

	"github.com/RobGibbens/CardGames-sub000/internal/broadcast"
	"github.com/RobGibbens/CardGames-sub000/internal/game/domain"
	"github.com/RobGibbens/CardGames-sub000/internal/game/scheduler"
	"github.com/RobGibbens/CardGames-sub000/internal/game/service"
	"github.com/RobGibbens/CardGames-sub000/internal/game/storage/sqlite"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/evaluator"
	"github.com/RobGibbens/CardGames-sub000/internal/poker/variant"
	"github.com/RobGibbens/CardGames-sub000/internal/telemetry"
)

// Config holds engine command configuration.
type Config struct {
	DBPath            string        `env:"CARDGAMES_ENGINE_DB_PATH" envDefault:"data/engine.db"`
	TurnTimeout       time.Duration `env:"CARDGAMES_ENGINE_TURN_TIMEOUT" envDefault:"30s"`
	TimeBankExtension time.Duration `env:"CARDGAMES_ENGINE_TIME_BANK" envDefault:"60s"`
	HandInterval      time.Duration `env:"CARDGAMES_ENGINE_HAND_INTERVAL" envDefault:"5s"`
	TickInterval      time.Duration `env:"CARDGAMES_ENGINE_TICK_INTERVAL" envDefault:"1s"`
	BatchSize         int           `env:"CARDGAMES_ENGINE_BATCH_SIZE" envDefault:"50"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The engine SQLite database path")
	fs.DurationVar(&cfg.TurnTimeout, "turn-timeout", cfg.TurnTimeout, "Per-turn action deadline")
	fs.DurationVar(&cfg.TimeBankExtension, "time-bank", cfg.TimeBankExtension, "One-shot per-hand deadline extension")
	fs.DurationVar(&cfg.HandInterval, "hand-interval", cfg.HandInterval, "Pause between completed hands")
	fs.DurationVar(&cfg.TickInterval, "tick-interval", cfg.TickInterval, "Due-session scan interval")
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Maximum due sessions dispatched per scan")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the engine runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceEngine, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		registry, err := variant.NewRegistry(variant.DefaultFlows()...)
		if err != nil {
			return err
		}

		eng, err := service.NewEngine(service.Options{
			Store:       store,
			Registry:    registry,
			Evaluator:   evaluator.NewStandard(),
			Broadcaster: &broadcast.LogBroadcaster{},
			Emitter:     telemetry.NewEmitter(store),
			Machine: domain.Config{
				TurnTimeout:       cfg.TurnTimeout,
				TimeBankExtension: cfg.TimeBankExtension,
				HandInterval:      cfg.HandInterval,
			},
		})
		if err != nil {
			return err
		}

		sched, err := scheduler.New(store, eng, scheduler.Config{
			TickInterval: cfg.TickInterval,
			BatchSize:    cfg.BatchSize,
		})
		if err != nil {
			return err
		}

		log.Printf("engine db=%s tick=%s turn_timeout=%s variants=%v",
			cfg.DBPath, cfg.TickInterval, cfg.TurnTimeout, registry.Codes())
		return sched.Run(ctx)
	})
}

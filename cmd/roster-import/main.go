// cmd/roster-import - Bulk-create teams from a JSON roster
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"hackportal/config"
	"hackportal/database"
	"hackportal/services"
	"hackportal/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// rosterFile is either a bare array of teams or {"teams": [...]}.
type rosterFile struct {
	Teams []services.TeamInput `json:"teams"`
}

func parseRoster(data []byte) ([]services.TeamInput, error) {
	var teams []services.TeamInput
	if err := json.Unmarshal(data, &teams); err == nil {
		return teams, nil
	}

	var wrapped rosterFile
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	return wrapped.Teams, nil
}

// importBatches feeds the roster to the team service batchSize teams at a
// time. Each batch is validated up front and written with a single INSERT.
func importBatches(ctx context.Context, svc *services.TeamService, teams []services.TeamInput, batchSize int) (created int, skipped []string, err error) {
	if batchSize < 1 {
		batchSize = len(teams)
	}
	for start := 0; start < len(teams); start += batchSize {
		end := start + batchSize
		if end > len(teams) {
			end = len(teams)
		}
		c, s, err := svc.ImportTeams(ctx, teams[start:end])
		created += len(c)
		skipped = append(skipped, s...)
		if err != nil {
			return created, skipped, err
		}
	}
	return created, skipped, nil
}

type options struct {
	file      string
	dsn       string
	dryRun    bool
	batchSize int
}

func main() {
	var opts options
	pflag.StringVar(&opts.file, "file", "", "Path to the JSON roster (required)")
	pflag.StringVar(&opts.dsn, "dsn", "", "PostgreSQL DSN (defaults to DATABASE_URL / DB_* settings)")
	pflag.BoolVar(&opts.dryRun, "dry-run", false, "Validate the roster against an in-memory store without writing")
	pflag.IntVar(&opts.batchSize, "batch", 50, "Teams per INSERT statement")
	pflag.Parse()

	if opts.file == "" {
		pflag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.Load()

	log, err := utils.NewLogger(cfg.AppEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	err = run(cfg, opts, log)
	_ = log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run returns instead of exiting so the deferred database close always runs.
func run(cfg *config.Config, opts options, log *zap.Logger) error {
	data, err := os.ReadFile(opts.file)
	if err != nil {
		log.Error("failed to read roster", zap.String("file", opts.file), zap.Error(err))
		return err
	}
	teams, err := parseRoster(data)
	if err != nil {
		log.Error("failed to parse roster", zap.Error(err))
		return err
	}
	log.Info("roster loaded", zap.Int("teams", len(teams)))

	var store services.TeamStore
	if opts.dryRun {
		store = services.NewMemoryStore()
	} else {
		dsn := opts.dsn
		if dsn == "" {
			dsn = cfg.DatabaseURL
		}
		db, err := database.InitDB(dsn, cfg.IsProduction(), log)
		if err != nil {
			log.Error("failed to connect to database", zap.Error(err))
			return err
		}
		defer func() {
			if err := database.CloseDB(); err != nil {
				log.Warn("failed to close database", zap.Error(err))
			}
		}()
		store = database.NewStore(db)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	created, skipped, err := importBatches(ctx, services.NewTeamService(store, log), teams, opts.batchSize)
	for _, code := range skipped {
		log.Warn("team skipped (duplicate or invalid)", zap.String("team_code", code))
	}
	if err != nil {
		log.Error("import aborted", zap.Int("created", created), zap.Error(err))
		return err
	}

	log.Info("import complete",
		zap.Int("created", created),
		zap.Int("skipped", len(skipped)),
		zap.Bool("dry_run", opts.dryRun),
	)
	return nil
}

// database/migrate.go - Database Migration Runner
package database

import (
	"fmt"

	"hackportal/models"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// indexStatements are applied after AutoMigrate. The unique index on
// selections.team_id is created by the model tag; it is the store-level
// guarantee behind one selection per team.
var indexStatements = []string{
	"CREATE INDEX IF NOT EXISTS idx_problems_title ON problems(title)",
	"CREATE INDEX IF NOT EXISTS idx_selections_problem_selected ON selections(problem_id, selected_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_teams_name ON teams(name)",
}

// constraintStatements need ALTER TABLE ... CONSTRAINT, which only PostgreSQL supports.
var constraintStatements = []string{
	"ALTER TABLE problems DROP CONSTRAINT IF EXISTS chk_problems_team_limit",
	"ALTER TABLE problems ADD CONSTRAINT chk_problems_team_limit CHECK (team_limit IS NULL OR team_limit > 0)",
	"ALTER TABLE selection_config DROP CONSTRAINT IF EXISTS chk_selection_config_singleton",
	"ALTER TABLE selection_config ADD CONSTRAINT chk_selection_config_singleton CHECK (id = 1)",
}

// RunMigrations runs all database migrations
func RunMigrations(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")

	if err := db.AutoMigrate(
		&models.Team{},
		&models.Problem{},
		&models.Selection{},
		&models.SelectionWindow{},
		&models.Admin{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Info("migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) error {
	stmts := indexStatements
	if db.Dialector.Name() == "postgres" {
		stmts = append(append([]string{}, indexStatements...), constraintStatements...)
	}

	var errs error
	for _, stmt := range stmts {
		errs = multierr.Append(errs, db.Exec(stmt).Error)
	}
	return errs
}

// database/store.go - GORM-backed implementation of services.Store
package database

import (
	"context"
	"errors"
	"time"

	"hackportal/models"
	"hackportal/services"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pgUniqueViolation is the SQLSTATE PostgreSQL reports for unique index conflicts.
const pgUniqueViolation = "23505"

type Store struct {
	db *gorm.DB
}

var _ services.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

// translate maps driver errors onto the services error taxonomy. dup is the
// error a unique violation stands for in the calling operation.
func translate(op string, err error, dup error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrProblemFull),
		errors.Is(err, services.ErrAlreadySelected),
		errors.Is(err, services.ErrDuplicateTeamCode):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return services.ErrNotFound
	case dup != nil && isUniqueViolation(err):
		return dup
	default:
		return services.Unavailable(op, err)
	}
}

// ================== SELECTIONS ==================

func (s *Store) ListSelections(ctx context.Context) ([]models.Selection, error) {
	var sels []models.Selection
	err := s.db.WithContext(ctx).Order("selected_at DESC").Find(&sels).Error
	return sels, translate("list selections", err, nil)
}

func (s *Store) ListSelectionsDetailed(ctx context.Context, limit int) ([]models.Selection, error) {
	var sels []models.Selection
	query := s.db.WithContext(ctx).
		Preload("Team").
		Preload("Problem").
		Order("selected_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&sels).Error
	return sels, translate("list selections", err, nil)
}

func (s *Store) SelectionsForProblem(ctx context.Context, problemID uuid.UUID) ([]models.Selection, error) {
	var sels []models.Selection
	err := s.db.WithContext(ctx).
		Where("problem_id = ?", problemID).
		Order("selected_at DESC").
		Find(&sels).Error
	return sels, translate("list problem selections", err, nil)
}

func (s *Store) SelectionForTeam(ctx context.Context, teamID uuid.UUID) (*models.Selection, error) {
	var sel models.Selection
	err := s.db.WithContext(ctx).
		Preload("Problem").
		Where("team_id = ?", teamID).
		First(&sel).Error
	if err != nil {
		return nil, translate("get team selection", err, nil)
	}
	return &sel, nil
}

func (s *Store) InsertSelection(ctx context.Context, sel *models.Selection) error {
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(sel).Error
	return translate("insert selection", err, services.ErrAlreadySelected)
}

// InsertSelectionWithinLimit locks the problem row so that concurrent claims
// on the same problem count and insert one after another.
func (s *Store) InsertSelectionWithinLimit(ctx context.Context, sel *models.Selection, limit int) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var problem models.Problem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", sel.ProblemID).
			First(&problem).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Selection{}).
			Where("problem_id = ?", sel.ProblemID).
			Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(limit) {
			return services.ErrProblemFull
		}

		return tx.Omit(clause.Associations).Create(sel).Error
	})
	return translate("insert selection", err, services.ErrAlreadySelected)
}

func (s *Store) SetSelectionLock(ctx context.Context, id uuid.UUID, locked bool, by string) (*models.Selection, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Selection{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_locked": locked,
			"locked_by": by,
		})
	if res.Error != nil {
		return nil, translate("update selection", res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return nil, services.ErrNotFound
	}

	var sel models.Selection
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&sel).Error; err != nil {
		return nil, translate("get selection", err, nil)
	}
	return &sel, nil
}

func (s *Store) DeleteSelection(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Selection{})
	if res.Error != nil {
		return translate("delete selection", res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return nil
}

func (s *Store) CountSelections(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Selection{}).Count(&count).Error
	return count, translate("count selections", err, nil)
}

// ================== WINDOW ==================

func (s *Store) GetWindow(ctx context.Context) (*models.SelectionWindow, error) {
	var w models.SelectionWindow
	err := s.db.WithContext(ctx).Where("id = ?", models.SelectionWindowID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.SelectionWindow{ID: models.SelectionWindowID}, nil
	}
	if err != nil {
		return nil, translate("get window", err, nil)
	}
	return &w, nil
}

// SaveWindow upserts the singleton row.
func (s *Store) SaveWindow(ctx context.Context, open bool) (*models.SelectionWindow, error) {
	w := models.SelectionWindow{ID: models.SelectionWindowID, IsOpen: open}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_open", "updated_at"}),
		}).
		Create(&w).Error
	if err != nil {
		return nil, translate("save window", err, nil)
	}
	return &w, nil
}

// ================== PROBLEMS ==================

func (s *Store) ListProblems(ctx context.Context, visibleOnly bool) ([]models.Problem, error) {
	var problems []models.Problem
	query := s.db.WithContext(ctx).Order("title ASC")
	if visibleOnly {
		query = query.Where("is_visible = ?", true)
	}
	err := query.Find(&problems).Error
	return problems, translate("list problems", err, nil)
}

func (s *Store) GetProblem(ctx context.Context, id uuid.UUID) (*models.Problem, error) {
	var p models.Problem
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate("get problem", err, nil)
	}
	return &p, nil
}

func (s *Store) CreateProblem(ctx context.Context, p *models.Problem) error {
	return translate("create problem", s.db.WithContext(ctx).Create(p).Error, nil)
}

func (s *Store) SaveProblem(ctx context.Context, p *models.Problem) error {
	return translate("save problem", s.db.WithContext(ctx).Save(p).Error, nil)
}

func (s *Store) DeleteProblem(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Problem{})
	if res.Error != nil {
		return translate("delete problem", res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return nil
}

// ================== TEAMS ==================

func (s *Store) ListTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	err := s.db.WithContext(ctx).Order("name ASC").Find(&teams).Error
	return teams, translate("list teams", err, nil)
}

func (s *Store) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	var t models.Team
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, translate("get team", err, nil)
	}
	return &t, nil
}

func (s *Store) GetTeamByCode(ctx context.Context, code string) (*models.Team, error) {
	var t models.Team
	if err := s.db.WithContext(ctx).Where("team_code = ?", code).First(&t).Error; err != nil {
		return nil, translate("get team by code", err, nil)
	}
	return &t, nil
}

func (s *Store) CreateTeam(ctx context.Context, t *models.Team) error {
	return translate("create team", s.db.WithContext(ctx).Create(t).Error, services.ErrDuplicateTeamCode)
}

// CreateTeams writes the batch as one multi-row INSERT.
func (s *Store) CreateTeams(ctx context.Context, teams []models.Team) error {
	if len(teams) == 0 {
		return nil
	}
	return translate("create teams", s.db.WithContext(ctx).Create(&teams).Error, services.ErrDuplicateTeamCode)
}

func (s *Store) SaveTeam(ctx context.Context, t *models.Team) error {
	return translate("save team", s.db.WithContext(ctx).Save(t).Error, services.ErrDuplicateTeamCode)
}

func (s *Store) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Team{})
	if res.Error != nil {
		return translate("delete team", res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return nil
}

// ================== ADMINS ==================

func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var a models.Admin
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, translate("get admin", err, nil)
	}
	return &a, nil
}

func (s *Store) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Admin{}).Count(&count).Error
	return count, translate("count admins", err, nil)
}

func (s *Store) CreateAdmin(ctx context.Context, a *models.Admin) error {
	return translate("create admin", s.db.WithContext(ctx).Create(a).Error, nil)
}

func (s *Store) TouchAdminLogin(ctx context.Context, id uint, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&models.Admin{}).Where("id = ?", id).Update("last_login", at).Error
	return translate("update admin", err, nil)
}

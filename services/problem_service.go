// services/problem_service.go - Problem catalog administration
package services

import (
	"context"
	"strings"

	"hackportal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProblemService struct {
	store        ProblemStore
	defaultLimit int
	log          *zap.Logger
}

func NewProblemService(store ProblemStore, defaultLimit int, log *zap.Logger) *ProblemService {
	return &ProblemService{store: store, defaultLimit: defaultLimit, log: log}
}

// ProblemInput is the editable part of a problem. A nil TeamLimit means "use
// the default" on create and "keep the current limit" on update; Unlimited
// clears the limit.
type ProblemInput struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Requirements    string `json:"requirements"`
	Deliverables    string `json:"deliverables"`
	EvaluationFocus string `json:"evaluation_focus"`
	Resources       string `json:"resources"`
	TeamLimit       *int   `json:"team_limit"`
	Unlimited       bool   `json:"unlimited"`
	IsVisible       bool   `json:"is_visible"`
}

func (in ProblemInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return invalid("title is required")
	}
	if in.TeamLimit != nil && *in.TeamLimit < 1 && !in.Unlimited {
		return invalid("team_limit must be a positive integer")
	}
	return nil
}

// ================== ADMIN CRUD ==================

func (s *ProblemService) List(ctx context.Context) ([]models.Problem, error) {
	return s.store.ListProblems(ctx, false)
}

func (s *ProblemService) Get(ctx context.Context, id uuid.UUID) (*models.Problem, error) {
	return s.store.GetProblem(ctx, id)
}

func (s *ProblemService) Create(ctx context.Context, in ProblemInput) (*models.Problem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &models.Problem{}
	applyProblemInput(p, in)
	switch {
	case in.Unlimited:
		p.TeamLimit = nil
	case in.TeamLimit == nil:
		limit := s.defaultLimit
		p.TeamLimit = &limit
	}

	if err := s.store.CreateProblem(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("problem created", zap.String("problem_id", p.ID.String()), zap.String("title", p.Title))
	return p, nil
}

func (s *ProblemService) Update(ctx context.Context, id uuid.UUID, in ProblemInput) (*models.Problem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := s.store.GetProblem(ctx, id)
	if err != nil {
		return nil, err
	}

	current := p.TeamLimit
	applyProblemInput(p, in)
	switch {
	case in.Unlimited:
		p.TeamLimit = nil
	case in.TeamLimit == nil:
		p.TeamLimit = current
	}

	if err := s.store.SaveProblem(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetVisibility shows or hides a problem from teams. Existing selections of a
// hidden problem are kept.
func (s *ProblemService) SetVisibility(ctx context.Context, id uuid.UUID, visible bool) (*models.Problem, error) {
	p, err := s.store.GetProblem(ctx, id)
	if err != nil {
		return nil, err
	}
	p.IsVisible = visible
	if err := s.store.SaveProblem(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the problem and, through the foreign key, its selections.
func (s *ProblemService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteProblem(ctx, id); err != nil {
		return err
	}
	s.log.Info("problem deleted", zap.String("problem_id", id.String()))
	return nil
}

func applyProblemInput(p *models.Problem, in ProblemInput) {
	p.Title = strings.TrimSpace(in.Title)
	p.Description = in.Description
	p.Requirements = in.Requirements
	p.Deliverables = in.Deliverables
	p.EvaluationFocus = in.EvaluationFocus
	p.Resources = in.Resources
	p.IsVisible = in.IsVisible
	if in.TeamLimit != nil {
		limit := *in.TeamLimit
		p.TeamLimit = &limit
	}
}

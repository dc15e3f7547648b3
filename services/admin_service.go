// services/admin_service.go - Admin accounts and password login
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"hackportal/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AdminService struct {
	store AdminStore
	log   *zap.Logger
}

func NewAdminService(store AdminStore, log *zap.Logger) *AdminService {
	return &AdminService{store: store, log: log}
}

// Authenticate checks an email/password pair. Unknown emails and wrong
// passwords both return ErrInvalidCredentials.
func (s *AdminService) Authenticate(ctx context.Context, email, password string) (*models.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	admin, err := s.store.GetAdminByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	admin.LastLogin = time.Now().UTC()
	if err := s.store.TouchAdminLogin(ctx, admin.ID, admin.LastLogin); err != nil {
		s.log.Warn("failed to record admin login", zap.Uint("admin_id", admin.ID), zap.Error(err))
	}
	return admin, nil
}

// EnsureBootstrapAdmin creates the first admin when none exists yet.
func (s *AdminService) EnsureBootstrapAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	count, err := s.store.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.store.CreateAdmin(ctx, &models.Admin{Email: email, Password: string(hashed)}); err != nil {
		return err
	}
	s.log.Info("bootstrap admin created", zap.String("email", email))
	return nil
}

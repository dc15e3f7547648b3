// services/window.go - Selection window controller
package services

import (
	"context"

	"hackportal/metrics"
	"hackportal/models"

	"go.uber.org/zap"
)

// WindowService is the only reader and writer of the selection window row.
type WindowService struct {
	store WindowStore
	log   *zap.Logger
}

func NewWindowService(store WindowStore, log *zap.Logger) *WindowService {
	return &WindowService{store: store, log: log}
}

// State returns the current window row. A missing row reads as closed.
func (s *WindowService) State(ctx context.Context) (*models.SelectionWindow, error) {
	return s.store.GetWindow(ctx)
}

func (s *WindowService) IsOpen(ctx context.Context) (bool, error) {
	w, err := s.store.GetWindow(ctx)
	if err != nil {
		return false, err
	}
	return w.IsOpen, nil
}

// SyncMetrics publishes the stored window state. Call it at startup; Set keeps
// the gauge current afterwards.
func (s *WindowService) SyncMetrics(ctx context.Context) error {
	open, err := s.IsOpen(ctx)
	if err != nil {
		return err
	}
	metrics.SetWindowOpen(open)
	return nil
}

func (s *WindowService) Open(ctx context.Context) (*models.SelectionWindow, error) {
	return s.Set(ctx, true)
}

func (s *WindowService) Close(ctx context.Context) (*models.SelectionWindow, error) {
	return s.Set(ctx, false)
}

// Set writes the flag. Repeated calls with the same value converge.
func (s *WindowService) Set(ctx context.Context, open bool) (*models.SelectionWindow, error) {
	w, err := s.store.SaveWindow(ctx, open)
	if err != nil {
		s.log.Error("failed to update selection window", zap.Bool("open", open), zap.Error(err))
		return nil, err
	}
	metrics.SetWindowOpen(w.IsOpen)
	s.log.Info("selection window updated", zap.Bool("open", w.IsOpen))
	return w, nil
}

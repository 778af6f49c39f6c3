package app

import (
	"context"

	"go.uber.org/zap"

	"perritofeliz/internal/domain"
	"perritofeliz/internal/validate"
)

// StaffService creates internal user accounts.
type StaffService struct {
	backend domain.Backend
	log     *zap.Logger
}

// NewStaffService creates a new staff service.
func NewStaffService(backend domain.Backend, log *zap.Logger) *StaffService {
	if log == nil {
		log = zap.NewNop()
	}
	return &StaffService{backend: backend, log: log}
}

// Create validates the form and creates the account.
func (s *StaffService) Create(ctx context.Context, form validate.InternalUserForm) error {
	if err := form.Validate().Err(); err != nil {
		return err
	}
	if err := s.backend.CreateInternalUser(ctx, form.InternalUser()); err != nil {
		s.log.Warn("backend internal user creation failed", zap.Error(err))
		return err
	}
	s.log.Info("internal user created", zap.String("role", form.Role), zap.String("email", form.Email))
	return nil
}

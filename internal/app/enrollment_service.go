package app

import (
	"context"

	"go.uber.org/zap"

	"perritofeliz/internal/domain"
	"perritofeliz/internal/validate"
)

// EnrollmentService submits pet enrollments.
type EnrollmentService struct {
	backend domain.Backend
	log     *zap.Logger
}

// NewEnrollmentService creates a new enrollment service.
func NewEnrollmentService(backend domain.Backend, log *zap.Logger) *EnrollmentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &EnrollmentService{backend: backend, log: log}
}

// Enroll validates the form and the vaccination PDF, then forwards the
// enrollment. An invalid file never reaches the backend.
func (s *EnrollmentService) Enroll(ctx context.Context, form validate.EnrollmentForm, pdf *domain.Attachment) (*domain.EnrollmentReceipt, error) {
	errs := form.Validate()
	if msg := validate.VaccinationPDF(pdf); msg != "" {
		if errs == nil {
			errs = validate.Errors{}
		}
		errs[validate.VaccinationField] = msg
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	rec, err := s.backend.CreateEnrollment(ctx, form.Enrollment(pdf))
	if err != nil {
		s.log.Warn("backend enrollment failed", zap.Error(err))
		return nil, err
	}
	s.log.Info("enrollment created",
		zap.String("id", rec.ID),
		zap.String("plan", form.Plan),
		zap.Int64("pdf_bytes", pdf.Size),
	)
	return rec, nil
}

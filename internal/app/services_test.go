package app

import (
	"context"
	"testing"

	"perritofeliz/internal/domain"
	"perritofeliz/internal/validate"
)

var testPDF = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF\n")

func validEnrollment() validate.EnrollmentForm {
	return validate.EnrollmentForm{
		Plan: "mensual", Transport: "all", PetName: "Firulais",
		Breed: "Criollo", BirthDate: "2024-03-01", Size: "peq",
	}
}

func TestEnrollmentService_RejectsBadPDFWithoutBackend(t *testing.T) {
	tests := map[string]*domain.Attachment{
		"absent":    nil,
		"not pdf":   {Filename: "foto.png", ContentType: "image/png", Size: 10, Data: []byte("\x89PNG\r\n\x1a\n00")},
		"too large": {Filename: "big.pdf", ContentType: domain.PDFContentType, Size: domain.MaxVaccinationPDFSize + 1},
	}
	for name, pdf := range tests {
		t.Run(name, func(t *testing.T) {
			b := &mockBackend{}
			_, err := NewEnrollmentService(b, nil).Enroll(context.Background(), validEnrollment(), pdf)
			errs, ok := validate.AsErrors(err)
			if !ok || errs[validate.VaccinationField] == "" {
				t.Fatalf("expected pdf error, got %v", err)
			}
			if b.calls != 0 {
				t.Errorf("backend called %d times", b.calls)
			}
		})
	}
}

func TestEnrollmentService_MergesFieldAndFileErrors(t *testing.T) {
	_, err := NewEnrollmentService(&mockBackend{}, nil).Enroll(context.Background(), validate.EnrollmentForm{}, nil)
	errs, ok := validate.AsErrors(err)
	if !ok || errs["plan"] == "" || errs[validate.VaccinationField] != validate.MsgPDFMissing {
		t.Fatalf("got %v", err)
	}
}

func TestEnrollmentService_Enroll(t *testing.T) {
	var got domain.Enrollment
	b := &mockBackend{
		createEnrollmentFn: func(ctx context.Context, e domain.Enrollment) (*domain.EnrollmentReceipt, error) {
			got = e
			return &domain.EnrollmentReceipt{ID: "enr-9"}, nil
		},
	}
	pdf := &domain.Attachment{Filename: "carne.pdf", ContentType: domain.PDFContentType, Size: int64(len(testPDF)), Data: testPDF}
	rec, err := NewEnrollmentService(b, nil).Enroll(context.Background(), validEnrollment(), pdf)
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID != "enr-9" || got.PetName != "Firulais" || got.VaccinationProof != pdf {
		t.Errorf("rec = %+v, enrollment = %+v", rec, got)
	}
}

func TestStaffService_Create(t *testing.T) {
	b := &mockBackend{}
	svc := NewStaffService(b, nil)
	if err := svc.Create(context.Background(), validate.InternalUserForm{Role: "admin"}); err == nil {
		t.Fatal("expected field errors")
	}
	if b.calls != 0 {
		t.Fatal("backend should not be called")
	}

	var got domain.InternalUser
	b.createInternalUserFn = func(ctx context.Context, u domain.InternalUser) error {
		got = u
		return nil
	}
	form := validate.InternalUserForm{
		Role: "director", FirstName: "Marta", LastName: "Ríos", BirthDate: "1985-06-07",
		DocumentType: "CC", DocumentNumber: "52123456", LinkedSince: "2024-02-01",
		Email: "marta@perritofeliz.co", Password: "Directo1!",
	}
	if err := svc.Create(context.Background(), form); err != nil {
		t.Fatal(err)
	}
	if got.Email != "marta@perritofeliz.co" || got.DocumentType != domain.DocNationalID {
		t.Errorf("got %+v", got)
	}
}

package validate

import (
	"github.com/gabriel-vasile/mimetype"

	"perritofeliz/internal/domain"
)

// VaccinationField is the form field of the vaccination proof.
const VaccinationField = "vacunas_pdf"

// Messages for the vaccination proof.
const (
	MsgPDFMissing  = "Adjunta el carné de vacunación en PDF."
	MsgPDFType     = "El archivo debe ser un PDF."
	MsgPDFTooLarge = "El archivo no debe superar 5MB."
	MsgPDFContent  = "El archivo no parece ser un PDF válido."
)

// VaccinationPDF returns the message for an unacceptable vaccination proof, or
// "" when the attachment can be forwarded. The declared type must be exactly
// application/pdf and the content must sniff as a PDF.
func VaccinationPDF(a *domain.Attachment) string {
	switch {
	case a == nil || a.Size == 0:
		return MsgPDFMissing
	case a.ContentType != domain.PDFContentType:
		return MsgPDFType
	case a.Size > domain.MaxVaccinationPDFSize:
		return MsgPDFTooLarge
	case a.Data != nil && !mimetype.Detect(a.Data).Is(domain.PDFContentType):
		return MsgPDFContent
	}
	return ""
}

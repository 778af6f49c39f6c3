package domain

import "time"

// MaxVaccinationPDFSize caps the vaccination proof upload.
const MaxVaccinationPDFSize = 5 * 1024 * 1024

// PDFContentType is the only declared type accepted for the vaccination proof.
const PDFContentType = "application/pdf"

// Enrollment plans.
var Plans = []Option{
	{Value: "mensual", Label: "1 mes"},
	{Value: "bimestre", Label: "2 meses"},
	{Value: "trimestre", Label: "3 meses"},
	{Value: "medio_año", Label: "6 meses"},
	{Value: "año", Label: "1 año"},
}

// Transport options.
var Transports = []Option{
	{Value: "all", Label: "Todo el día"},
	{Value: "medio", Label: "Medio día"},
	{Value: "none", Label: "Sin transporte"},
}

// Dog sizes.
var Sizes = []Option{
	{Value: "min", Label: "Mini"},
	{Value: "peq", Label: "Pequeño"},
	{Value: "med", Label: "Mediano"},
	{Value: "gran", Label: "Grande"},
}

// Attachment is an uploaded file held in memory until it is forwarded.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// Enrollment (matrícula) combines a care plan, a transport option and the
// vaccination proof of a dog.
type Enrollment struct {
	Plan             string
	Transport        string
	PetName          string
	Breed            string
	BirthDate        string
	Size             string
	VaccinationProof *Attachment
}

// EnrollmentReceipt is returned once the backend accepted an enrollment.
type EnrollmentReceipt struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

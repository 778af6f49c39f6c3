package domain

import "fmt"

// DocumentType identifies the kind of identity document.
type DocumentType string

// Accepted document types.
const (
	DocNationalID DocumentType = "CC"
	DocMinorID    DocumentType = "TI"
	DocForeignID  DocumentType = "CE"
	DocPassport   DocumentType = "PA"
)

// DocumentTypes lists the types offered on the registration form, in display order.
var DocumentTypes = []Option{
	{Value: string(DocNationalID), Label: "Cédula de ciudadanía"},
	{Value: string(DocMinorID), Label: "Tarjeta de identidad"},
	{Value: string(DocForeignID), Label: "Cédula de extranjería"},
	{Value: string(DocPassport), Label: "Pasaporte"},
}

// Option is a value/label pair rendered in a select control.
type Option struct {
	Value string
	Label string
}

// HasOption reports whether value is one of opts.
func HasOption(opts []Option, value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}

// RegistrationPayload is sent to the backend to create a customer account.
type RegistrationPayload struct {
	FirstName      string       `json:"firstName"`
	LastName       string       `json:"lastName"`
	DocumentType   DocumentType `json:"documentType"`
	DocumentNumber string       `json:"documentNumber"`
	Phone          string       `json:"phone"`
	Email          string       `json:"email"`
	Address        string       `json:"address"`
	Password       string       `json:"password"`
}

// Conflict fields reported by the backend on registration.
const (
	ConflictEmail    = "email"
	ConflictDocument = "document"
)

// FieldConflictError reports that a unique field is already registered.
type FieldConflictError struct {
	Field   string
	Status  int
	Message string
}

func (e *FieldConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already registered", e.Field)
}

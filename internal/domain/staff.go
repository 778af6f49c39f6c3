package domain

// Staff roles.
var StaffRoles = []Option{
	{Value: "director", Label: "Director"},
	{Value: "admin", Label: "Administrador"},
	{Value: "trainer", Label: "Entrenador"},
}

// StaffDocumentTypes omits the minor-id type offered to customers.
var StaffDocumentTypes = []Option{
	{Value: string(DocNationalID), Label: "Cédula de ciudadanía"},
	{Value: string(DocForeignID), Label: "Cédula de extranjería"},
	{Value: string(DocPassport), Label: "Pasaporte"},
}

// InternalUser is an employee account created from the dashboard.
type InternalUser struct {
	Role           string       `json:"role"`
	FirstName      string       `json:"firstName"`
	LastName       string       `json:"lastName"`
	BirthDate      string       `json:"birthDate"`
	DocumentType   DocumentType `json:"documentType"`
	DocumentNumber string       `json:"documentNumber"`
	LinkedSince    string       `json:"linkedSince"`
	Email          string       `json:"email"`
	Password       string       `json:"password"`
}

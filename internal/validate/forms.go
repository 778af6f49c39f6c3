package validate

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"perritofeliz/internal/domain"
)

// Form structs name their fields with a `form` tag. The "secret" option marks
// values that are never echoed back into a rendered page.

// Errors maps a form field to the message shown under it.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

// Err returns e as an error, or nil when there is nothing to report.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// AsErrors extracts field errors from err.
func AsErrors(err error) (Errors, bool) {
	var e Errors
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	rules := map[string]func(string) bool{
		"personname": Name,
		"digits":     Digits,
		"document":   Document,
		"phone":      Phone,
		"emailshape": Email,
		"strongpass": StrongPassword,
		"notblank":   NotBlank,
	}
	for tag, fn := range rules {
		_ = val.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		})
	}
	for tag, opts := range map[string][]domain.Option{
		"doctype":      domain.DocumentTypes,
		"staffdoctype": domain.StaffDocumentTypes,
		"plan":         domain.Plans,
		"transport":    domain.Transports,
		"size":         domain.Sizes,
		"staffrole":    domain.StaffRoles,
	} {
		_ = val.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return domain.HasOption(opts, fl.Field().String())
		})
	}
	return val
}

// messages resolves "field.tag" first, then "field".
type messages map[string]string

func (m messages) lookup(field, tag string) string {
	if msg, ok := m[field+"."+tag]; ok {
		return msg
	}
	return m[field]
}

func check(form any, msgs messages) Errors {
	err := v.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{"_": err.Error()}
	}
	out := Errors{}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = msgs.lookup(fe.Field(), fe.Tag())
	}
	return out
}

// LoginForm is the login view.
type LoginForm struct {
	Document string `form:"documento" validate:"required,notblank"`
	Password string `form:"password,secret" validate:"required"`
	Captcha  string `form:"g-recaptcha-response"`
}

var loginMessages = messages{
	"documento": "Por favor, completa documento y contraseña",
	"password":  "Por favor, completa documento y contraseña",
}

// Validate checks the login form. The captcha is checked by the auth service.
func (f LoginForm) Validate() Errors { return check(f, loginMessages) }

// RegisterForm is the customer registration view.
type RegisterForm struct {
	FirstName       string `form:"nombres" validate:"personname"`
	LastName        string `form:"apellidos" validate:"personname"`
	DocumentType    string `form:"tipoDoc" validate:"doctype"`
	DocumentNumber  string `form:"nroDoc" validate:"document"`
	Phone           string `form:"celular" validate:"phone"`
	Email           string `form:"correo" validate:"emailshape"`
	Address         string `form:"direccion"`
	Password        string `form:"pass,secret" validate:"strongpass"`
	PasswordConfirm string `form:"pass2,secret" validate:"eqfield=Password"`
}

var registerMessages = messages{
	"nombres":   "Ingresa un nombre válido.",
	"apellidos": "Ingresa apellidos válidos.",
	"tipoDoc":   "Selecciona un tipo de documento.",
	"nroDoc":    "Solo dígitos (6–12).",
	"celular":   "Solo dígitos (10).",
	"correo":    "Correo no válido.",
	"pass":      "Mín. 8, con mayúscula, número y símbolo.",
	"pass2":     "Las contraseñas no coinciden.",
}

// Validate checks every registration field.
func (f RegisterForm) Validate() Errors { return check(f, registerMessages) }

// RegisterMessage returns the message shown under a registration field.
func RegisterMessage(field string) string { return registerMessages[field] }

// Payload converts a validated form into the backend payload.
func (f RegisterForm) Payload() domain.RegistrationPayload {
	return domain.RegistrationPayload{
		FirstName:      strings.TrimSpace(f.FirstName),
		LastName:       strings.TrimSpace(f.LastName),
		DocumentType:   domain.DocumentType(f.DocumentType),
		DocumentNumber: f.DocumentNumber,
		Phone:          f.Phone,
		Email:          strings.TrimSpace(f.Email),
		Address:        strings.TrimSpace(f.Address),
		Password:       f.Password,
	}
}

// ResetRequestForm asks for the e-mail that receives the reset code.
type ResetRequestForm struct {
	Email string `form:"email" validate:"required,emailshape"`
}

var resetRequestMessages = messages{
	"email.required": "El correo es obligatorio.",
	"email":          "Escribe un correo válido (ej. usuario@dominio.com).",
}

// Validate checks the reset request form.
func (f ResetRequestForm) Validate() Errors { return check(f, resetRequestMessages) }

// CodeForm carries the verification code sent by e-mail.
type CodeForm struct {
	Code string `form:"code" validate:"required,digits,min=6"`
}

var codeMessages = messages{
	"code.required": "El código es obligatorio.",
	"code.digits":   "El código solo debe contener números.",
	"code.min":      "El código debe tener al menos 6 dígitos.",
}

// Validate checks the verification code.
func (f CodeForm) Validate() Errors { return check(f, codeMessages) }

// PasswordChangeForm is the last step of the reset flow.
type PasswordChangeForm struct {
	Password        string `form:"pass,secret" validate:"strongpass"`
	PasswordConfirm string `form:"pass2,secret" validate:"eqfield=Password"`
}

var passwordChangeMessages = messages{
	"pass":  "Mín. 8, con mayúscula, número y símbolo.",
	"pass2": "Las contraseñas no coinciden.",
}

// Validate checks the new password and its confirmation.
func (f PasswordChangeForm) Validate() Errors { return check(f, passwordChangeMessages) }

// EnrollmentForm is the pet enrollment view, without the PDF.
type EnrollmentForm struct {
	Plan      string `form:"plan" validate:"required,plan"`
	Transport string `form:"transporte" validate:"required,transport"`
	PetName   string `form:"nombre" validate:"required,notblank"`
	Breed     string `form:"raza" validate:"required,notblank"`
	BirthDate string `form:"nacimiento" validate:"required,datetime=2006-01-02"`
	Size      string `form:"talla" validate:"required,size"`
}

var enrollmentMessages = messages{
	"plan":       "Selecciona un plan.",
	"transporte": "Selecciona el tipo de transporte.",
	"nombre":     "Campo obligatorio.",
	"raza":       "Campo obligatorio.",
	"nacimiento": "Campo obligatorio.",
	"talla":      "Campo obligatorio.",
}

// Validate checks the enrollment fields.
func (f EnrollmentForm) Validate() Errors { return check(f, enrollmentMessages) }

// Enrollment converts a validated form into the domain record.
func (f EnrollmentForm) Enrollment(pdf *domain.Attachment) domain.Enrollment {
	return domain.Enrollment{
		Plan:             f.Plan,
		Transport:        f.Transport,
		PetName:          strings.TrimSpace(f.PetName),
		Breed:            strings.TrimSpace(f.Breed),
		BirthDate:        f.BirthDate,
		Size:             f.Size,
		VaccinationProof: pdf,
	}
}

// InternalUserForm is the staff account creation view.
type InternalUserForm struct {
	Role           string `form:"role" validate:"required,staffrole"`
	FirstName      string `form:"name" validate:"required,notblank"`
	LastName       string `form:"lastname" validate:"required,notblank"`
	BirthDate      string `form:"nacimiento" validate:"required,datetime=2006-01-02"`
	DocumentType   string `form:"tipoDoc" validate:"required,staffdoctype"`
	DocumentNumber string `form:"doc" validate:"required,document"`
	LinkedSince    string `form:"vinculacion" validate:"required,datetime=2006-01-02"`
	Email          string `form:"email" validate:"required,emailshape"`
	Password       string `form:"password,secret" validate:"required,strongpass"`
}

var internalUserMessages = messages{
	"role":         "Selecciona un rol.",
	"name":         "Campo obligatorio.",
	"lastname":     "Campo obligatorio.",
	"nacimiento":   "Campo obligatorio.",
	"tipoDoc":      "Campo obligatorio.",
	"doc.required": "Campo obligatorio.",
	"doc":          "Solo dígitos (6–12).",
	"vinculacion":  "Campo obligatorio.",
	"email":        "Ingrese un correo válido (ejemplo@dominio.com).",
	"password":     "Debe tener al menos 8 caracteres, una mayúscula, una minúscula, un número y un símbolo.",
}

// Validate checks the staff form.
func (f InternalUserForm) Validate() Errors { return check(f, internalUserMessages) }

// InternalUser converts a validated form into the domain record.
func (f InternalUserForm) InternalUser() domain.InternalUser {
	return domain.InternalUser{
		Role:           f.Role,
		FirstName:      strings.TrimSpace(f.FirstName),
		LastName:       strings.TrimSpace(f.LastName),
		BirthDate:      f.BirthDate,
		DocumentType:   domain.DocumentType(f.DocumentType),
		DocumentNumber: f.DocumentNumber,
		LinkedSince:    f.LinkedSince,
		Email:          strings.TrimSpace(f.Email),
		Password:       f.Password,
	}
}

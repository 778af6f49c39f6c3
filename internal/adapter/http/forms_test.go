package adapthttp

import (
	"net/url"
	"testing"

	"perritofeliz/internal/validate"
)

func TestDecodeForm_SecretsAreNotEchoed(t *testing.T) {
	src := url.Values{"documento": {"123"}, "password": {"perrito"}}
	var f validate.LoginForm
	state := decodeForm(src, &f)

	if f.Document != "123" || f.Password != "perrito" {
		t.Fatalf("decoded = %+v", f)
	}
	if state.Value("documento") != "123" {
		t.Errorf("documento = %q", state.Value("documento"))
	}
	if _, ok := state.Values["password"]; ok {
		t.Error("password must not be kept for re-rendering")
	}
	if !state.Touched["password"] || !state.Touched["g-recaptcha-response"] {
		t.Errorf("touched = %v", state.Touched)
	}
}

func TestFormState_ErrorsOnlyWhenTouched(t *testing.T) {
	state := FormState{
		Touched: map[string]bool{"correo": true},
		Errors:  validate.Errors{"correo": "Correo no válido.", "nombres": "Ingresa un nombre válido."},
	}
	if state.Error("nombres") != "" {
		t.Error("untouched field should hide its message")
	}
	if state.Error("correo") != "Correo no válido." {
		t.Errorf("correo = %q", state.Error("correo"))
	}
	if !state.HasErrors() {
		t.Error("expected errors")
	}

	state = FormState{}.withErrors(validate.Errors{"nombres": "x"})
	if state.Error("nombres") != "x" {
		t.Error("withErrors should mark the field touched")
	}
}

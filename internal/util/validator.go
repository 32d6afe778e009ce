package util

import (
	"net/mail"
	"strings"

	"github.com/gestaozabele/zeladoria/internal/apperr"
)

// ValidateEmail retorna erro para e-mails inválidos.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperr.Validation("email obrigatório")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperr.Validation("email inválido")
	}
	return nil
}

// ValidatePassword verifica requisitos mínimos de senha.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return apperr.Validation("senha deve ter pelo menos 8 caracteres")
	}
	if len(password) > 128 {
		return apperr.Validation("senha deve ter no máximo 128 caracteres")
	}
	return nil
}

// RequireString garante string não vazia.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return apperr.Validation("%s obrigatório", field)
	}
	return nil
}

// OptionalString devolve nil para textos vazios após aparar espaços.
func OptionalString(value string) *string {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	return &v
}

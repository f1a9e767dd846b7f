package util

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength é o tamanho mínimo aceito para senhas.
const MinPasswordLength = 8

var (
	// ErrEmailRequired indica e-mail ausente.
	ErrEmailRequired = errors.New("email obrigatório")
	// ErrEmailInvalid indica e-mail malformado.
	ErrEmailInvalid = errors.New("email inválido")
	// ErrWeakPassword indica senha abaixo do tamanho mínimo.
	ErrWeakPassword = errors.New("a senha deve ter pelo menos 8 caracteres")
)

// ValidateEmail retorna erro para e-mails inválidos.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrEmailInvalid
	}
	return nil
}

// ValidatePassword verifica requisitos mínimos de senha.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// OnlyDigits remove todos os caracteres que não são dígitos ASCII.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

package repo

import "errors"

var (
	// ErrNotFound é retornado quando nenhum registro é encontrado.
	ErrNotFound = errors.New("registro não encontrado")
	// ErrDuplicateEmail indica e-mail já cadastrado.
	ErrDuplicateEmail = errors.New("email já cadastrado")
	// ErrDuplicateCNPJ indica CNPJ já cadastrado.
	ErrDuplicateCNPJ = errors.New("cnpj já cadastrado")
	// ErrDuplicateUsername indica nome de usuário já cadastrado.
	ErrDuplicateUsername = errors.New("usuário já cadastrado")
)

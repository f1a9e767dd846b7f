package auth

import (
	"errors"

	"github.com/alexedwards/argon2id"
)

// ErrEmptyPassword é retornado ao tentar gerar hash de senha vazia.
var ErrEmptyPassword = errors.New("senha vazia")

var params = &argon2id.Params{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// HashPassword gera um hash Argon2id com salt aleatório; os parâmetros ficam embutidos no hash.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	return argon2id.CreateHash(password, params)
}

// CheckPassword compara a senha com o hash armazenado. Hash malformado conta como divergência.
func CheckPassword(password, encodedHash string) bool {
	if password == "" || encodedHash == "" {
		return false
	}
	ok, err := argon2id.ComparePasswordAndHash(password, encodedHash)
	return err == nil && ok
}

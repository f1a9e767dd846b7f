package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// KeyLength é o tamanho, em caracteres hexadecimais, das chaves de acesso.
const KeyLength = 40

// GenerateKey cria uma chave opaca aleatória para autenticação por token.
func GenerateKey() (string, error) {
	buf := make([]byte, KeyLength/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("gerar chave: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashKey produz o SHA-256 hexadecimal da chave, usado como identificador em cache.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// TokenCacheKey monta a chave Redis que aponta a chave de acesso para o usuário.
func TokenCacheKey(key string) string {
	return "authtoken:" + HashKey(key)
}

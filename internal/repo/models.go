package repo

import (
	"time"

	"github.com/google/uuid"
)

// User representa a conta de acesso ao back office.
type User struct {
	ID           uuid.UUID
	Username     string
	Name         string
	Email        string
	CNPJ         string
	PasswordHash string
	IsActive     bool
	IsStaff      bool
	LastLogin    *time.Time
	DateJoined   time.Time
}

// AuthToken liga a chave opaca ao seu dono; no máximo uma por usuário.
type AuthToken struct {
	Key       string
	UserID    uuid.UUID
	CreatedAt time.Time
}

// CreateUserParams agrupa os campos de inserção de usuário.
type CreateUserParams struct {
	ID           uuid.UUID
	Username     string
	Name         string
	Email        string
	CNPJ         string
	PasswordHash string
	IsStaff      bool
}

package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetOrCreateToken devolve a chave existente do usuário ou grava a candidata, numa única instrução.
func (q *Queries) GetOrCreateToken(ctx context.Context, userID uuid.UUID, candidate string) (AuthToken, error) {
	var t AuthToken
	err := q.db.QueryRow(ctx, `
        INSERT INTO auth_tokens (key, user_id)
        VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
        RETURNING key, user_id, created_at
    `, candidate, userID).Scan(&t.Key, &t.UserID, &t.CreatedAt)
	if err != nil {
		return AuthToken{}, err
	}
	return t, nil
}

// GetUserByToken resolve a chave para o usuário dono.
func (q *Queries) GetUserByToken(ctx context.Context, key string) (User, error) {
	row := q.db.QueryRow(ctx, `
        SELECT u.id, u.username, u.name, u.email, u.cnpj, u.password_hash, u.is_active, u.is_staff, u.last_login, u.date_joined
        FROM auth_tokens t
        JOIN users u ON u.id = t.user_id
        WHERE t.key = $1
    `, key)
	return scanUser(row)
}

// DeleteTokenByUser remove a sessão do usuário e devolve a chave removida.
func (q *Queries) DeleteTokenByUser(ctx context.Context, userID uuid.UUID) (string, error) {
	var key string
	err := q.db.QueryRow(ctx, `DELETE FROM auth_tokens WHERE user_id = $1 RETURNING key`, userID).Scan(&key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return key, nil
}

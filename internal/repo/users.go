package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Flaviohmm/mei-backend/internal/db"
)

const userColumns = `id, username, name, email, cnpj, password_hash, is_active, is_staff, last_login, date_joined`

// CreateUser insere um usuário; violações de unicidade viram erros de domínio.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, `
        INSERT INTO users (id, username, name, email, cnpj, password_hash, is_staff)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING `+userColumns,
		arg.ID, arg.Username, arg.Name, arg.Email, arg.CNPJ, arg.PasswordHash, arg.IsStaff,
	)
	user, err := scanUser(row)
	if err != nil {
		if constraint, ok := db.UniqueViolation(err); ok {
			switch constraint {
			case "users_email_key":
				return User{}, ErrDuplicateEmail
			case "users_cnpj_key":
				return User{}, ErrDuplicateCNPJ
			default:
				return User{}, ErrDuplicateUsername
			}
		}
		return User{}, err
	}
	return user, nil
}

// GetUserByEmail busca usuário pelo e-mail (já normalizado em minúsculas).
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetUserByID busca usuário pelo id.
func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// EmailExists informa se o e-mail já está em uso.
func (q *Queries) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

// CNPJExists informa se o CNPJ já está em uso.
func (q *Queries) CNPJExists(ctx context.Context, cnpj string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE cnpj = $1)`, cnpj).Scan(&exists)
	return exists, err
}

// UpdatePassword grava novo hash de senha.
func (q *Queries) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	cmd, err := q.db.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastLogin registra o horário do último login.
func (q *Queries) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `UPDATE users SET last_login = now() WHERE id = $1`, id)
	return err
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.CNPJ, &u.PasswordHash,
		&u.IsActive, &u.IsStaff, &u.LastLogin, &u.DateJoined)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

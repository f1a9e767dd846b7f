package repo

import (
	"github.com/Flaviohmm/mei-backend/internal/db"
)

// Queries concentra o acesso às tabelas de contas.
type Queries struct {
	db db.DBTX
}

// New cria Queries sobre um pool ou transação.
func New(conn db.DBTX) *Queries {
	return &Queries{db: conn}
}

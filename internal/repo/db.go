package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX é satisfeita tanto por *pgxpool.Pool quanto por pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries agrupa todas as consultas do domínio.
type Queries struct {
	db DBTX
}

// New cria Queries sobre um pool ou transação.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Lock define o bloqueio de linha aplicado em leituras dentro de transações.
type Lock int

const (
	LockNone Lock = iota
	// LockShare impede desativação concorrente da linha referenciada.
	LockShare
	// LockUpdate serializa desativações e alterações da linha.
	LockUpdate
)

func (l Lock) clause() string {
	return l.of("")
}

// of restringe o bloqueio à tabela do alias quando a consulta tem JOIN.
func (l Lock) of(alias string) string {
	suffix := ""
	if alias != "" {
		suffix = " OF " + alias
	}
	switch l {
	case LockShare:
		return " FOR SHARE" + suffix
	case LockUpdate:
		return " FOR UPDATE" + suffix
	}
	return ""
}

func expectOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

package repo

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound é retornado quando nenhum registro é encontrado.
	ErrNotFound = errors.New("registro não encontrado")
	// ErrStale indica que o UPDATE condicional não encontrou o estado esperado.
	ErrStale = errors.New("estado divergente do esperado")
	// ErrUniqueViolation envolve violações de índice único (23505).
	ErrUniqueViolation = errors.New("violação de unicidade")
)

// UniqueError preserva o nome da constraint violada.
type UniqueError struct {
	Constraint string
}

func (e *UniqueError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUniqueViolation, e.Constraint)
}

func (e *UniqueError) Unwrap() error {
	return ErrUniqueViolation
}

// UniqueConstraint devolve a constraint violada, se houver.
func UniqueConstraint(err error) (string, bool) {
	var ue *UniqueError
	if errors.As(err, &ue) {
		return ue.Constraint, true
	}
	return "", false
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return &UniqueError{Constraint: pgErr.ConstraintName}
	}
	return err
}

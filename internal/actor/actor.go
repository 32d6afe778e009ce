package actor

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/gestaozabele/zeladoria/internal/apperr"
)

// Kind identifica o cadastro ao qual o ator pertence.
type Kind string

const (
	KindLeader  Kind = "leader"
	KindCitizen Kind = "citizen"
	KindStaff   Kind = "staff"
)

// Actor é a identidade explícita exigida por toda operação que altera estado.
type Actor struct {
	ID   uuid.UUID
	Kind Kind
}

// ParseKind converte a audience do token em Kind.
func ParseKind(raw string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindLeader:
		return KindLeader, true
	case KindCitizen:
		return KindCitizen, true
	case KindStaff:
		return KindStaff, true
	}
	return "", false
}

// Validate falha quando a identidade está incompleta; nunca há ator padrão.
func (a Actor) Validate() error {
	if a.ID == uuid.Nil {
		return apperr.Validation("ator obrigatório")
	}
	if _, ok := ParseKind(string(a.Kind)); !ok {
		return apperr.Validation("tipo de ator inválido")
	}
	return nil
}

func (a Actor) String() string {
	return string(a.Kind) + ":" + a.ID.String()
}

type contextKey struct{}

// WithActor injeta o ator no contexto da requisição.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// FromContext recupera o ator autenticado.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gestaozabele/zeladoria/internal/actor"
)

// ErrInvalidToken cobre assinatura, expiração e claims inconsistentes.
var ErrInvalidToken = errors.New("token inválido")

// Claims representa as informações presentes em um JWT de acesso.
// Subject é o id do cadastro; a audience indica qual cadastro.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTManager encapsula geração e validação de tokens.
type JWTManager struct {
	secret    []byte
	accessTTL time.Duration
}

// NewJWTManager cria o gerenciador com segredo e TTL configurados.
func NewJWTManager(secret string, accessTTL time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), accessTTL: accessTTL}
}

// GenerateAccessToken cria um JWT HS256 para o ator.
// A emissão em produção fica com o provedor de identidade; aqui serve a testes e ao CLI.
func (m *JWTManager) GenerateAccessToken(a actor.Actor) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	now := time.Now().UTC()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID.String(),
			Audience:  jwt.ClaimStrings{string(a.Kind)},
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseAndValidate verifica assinatura e expiração.
func (m *JWTManager) ParseAndValidate(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Actor converte o token em identidade explícita; nunca há ator padrão.
func (c *Claims) Actor() (actor.Actor, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil || id == uuid.Nil {
		return actor.Actor{}, ErrInvalidToken
	}
	if len(c.Audience) != 1 {
		return actor.Actor{}, ErrInvalidToken
	}
	kind, ok := actor.ParseKind(c.Audience[0])
	if !ok {
		return actor.Actor{}, ErrInvalidToken
	}
	return actor.Actor{ID: id, Kind: kind}, nil
}

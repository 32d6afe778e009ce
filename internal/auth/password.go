package auth

import (
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"

	"github.com/gestaozabele/zeladoria/internal/util"
)

// PasswordParams são os custos do argon2id aplicados às senhas de líderes,
// cidadãos e servidores.
type PasswordParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
}

// DefaultPasswordParams é usado quando a configuração não define custos.
var DefaultPasswordParams = PasswordParams{MemoryKiB: 64 * 1024, Iterations: 3, Parallelism: 1}

const (
	saltLength = 16
	keyLength  = 32
)

// PasswordHasher aplica a política de senha e gera hashes argon2id.
type PasswordHasher struct {
	params *argon2id.Params
}

// NewPasswordHasher valida os custos antes de aceitar o hasher.
func NewPasswordHasher(p PasswordParams) (*PasswordHasher, error) {
	switch {
	case p.Parallelism == 0:
		return nil, errors.New("argon2id: paralelismo deve ser positivo")
	case p.Iterations == 0:
		return nil, errors.New("argon2id: iterações devem ser positivas")
	case p.MemoryKiB < 8*uint32(p.Parallelism):
		return nil, fmt.Errorf("argon2id: memória mínima é %d KiB", 8*uint32(p.Parallelism))
	}
	return &PasswordHasher{params: &argon2id.Params{
		Memory:      p.MemoryKiB,
		Iterations:  p.Iterations,
		Parallelism: p.Parallelism,
		SaltLength:  saltLength,
		KeyLength:   keyLength,
	}}, nil
}

// Hash recusa senhas fora da política e devolve o hash codificado com seus parâmetros.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if err := util.ValidatePassword(password); err != nil {
		return "", err
	}
	return argon2id.CreateHash(password, h.params)
}

// Verify compara a senha com um hash, usando os parâmetros gravados nele.
func (h *PasswordHasher) Verify(password, encoded string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, encoded)
}

// NeedsRehash indica que o hash foi gerado com custos diferentes dos atuais.
func (h *PasswordHasher) NeedsRehash(encoded string) (bool, error) {
	p, _, _, err := argon2id.DecodeHash(encoded)
	if err != nil {
		return false, err
	}
	return p.Memory != h.params.Memory ||
		p.Iterations != h.params.Iterations ||
		p.Parallelism != h.params.Parallelism ||
		p.KeyLength != h.params.KeyLength, nil
}

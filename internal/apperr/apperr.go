package apperr

import (
	"errors"
	"fmt"
)

// Kind classifica falhas de regra de negócio.
type Kind string

const (
	KindValidation         Kind = "VALIDATION"
	KindNotFound           Kind = "NOT_FOUND"
	KindForbidden          Kind = "FORBIDDEN"
	KindInvalidTransition  Kind = "INVALID_TRANSITION"
	KindDepartmentMismatch Kind = "DEPARTMENT_MISMATCH"
	KindStaleState         Kind = "STALE_STATE"
	KindBlocked            Kind = "BLOCKED"
	KindConflict           Kind = "CONFLICT"
)

// Sentinelas usadas com errors.Is para comparar apenas a categoria.
var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrInvalidTransition  = &Error{Kind: KindInvalidTransition}
	ErrDepartmentMismatch = &Error{Kind: KindDepartmentMismatch}
	ErrStaleState         = &Error{Kind: KindStaleState}
	ErrBlocked            = &Error{Kind: KindBlocked}
	ErrConflict           = &Error{Kind: KindConflict}
)

// Códigos específicos dentro de uma categoria.
const (
	CodeMissingMotive    = "MISSING_MOTIVE"
	CodeInvalidPriority  = "INVALID_PRIORITY"
	CodeStaffNotFound    = "STAFF_NOT_FOUND"
	CodePrincipalViaZone = "PRINCIPAL_VIA_ZONE"
)

// Error carrega categoria, código e contexto suficiente para o chamador agir.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is compara pela categoria e, quando o alvo define código, também pelo código.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// ErrorCode devolve o código exposto ao cliente.
func (e *Error) ErrorCode() string {
	if e.Code != "" {
		return e.Code
	}
	return string(e.Kind)
}

// Validation indica entrada malformada ou ausente.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationCode cria erro de validação com código específico.
func ValidationCode(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// NotFound indica entidade ausente ou inativa.
func NotFound(entity string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: entity + " não encontrado(a)",
		Details: map[string]any{"entity": entity},
	}
}

// StaffNotFound indica técnico inexistente, inativo ou que não é técnico.
func StaffNotFound() *Error {
	return &Error{Kind: KindNotFound, Code: CodeStaffNotFound, Message: "técnico não encontrado"}
}

// Forbidden indica ator sem permissão para a operação.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// InvalidTransition informa o estado atual e o solicitado.
func InvalidTransition(current, requested, reason string) *Error {
	msg := fmt.Sprintf("transição inválida de %s para %s", current, requested)
	if reason != "" {
		msg += ": " + reason
	}
	return &Error{
		Kind:    KindInvalidTransition,
		Message: msg,
		Details: map[string]any{"current": current, "requested": requested, "reason": reason},
	}
}

// DepartmentMismatch nomeia ambos os departamentos envolvidos.
func DepartmentMismatch(staffDepartment, requiredDepartment string) *Error {
	return &Error{
		Kind:    KindDepartmentMismatch,
		Message: fmt.Sprintf("departamento do técnico (%s) difere do departamento responsável (%s)", staffDepartment, requiredDepartment),
		Details: map[string]any{"staff_department": staffDepartment, "required_department": requiredDepartment},
	}
}

// StaleState indica que outro ator já alterou o estado do relato.
func StaleState(expected string) *Error {
	return &Error{
		Kind:    KindStaleState,
		Message: "o relato foi alterado por outra operação; recarregue e tente novamente",
		Details: map[string]any{"expected": expected},
	}
}

// Blocked indica que relatos ativos impedem a desativação.
func Blocked(entity string, count int, details map[string]any) *Error {
	if details == nil {
		details = map[string]any{}
	}
	details["entity"] = entity
	details["count"] = count
	return &Error{
		Kind:    KindBlocked,
		Message: fmt.Sprintf("%s possui %d vínculo(s) ativo(s) e não pode ser desativado(a)", entity, count),
		Details: details,
	}
}

// Conflict indica violação de unicidade.
func Conflict(field, value string) *Error {
	return &Error{
		Kind:    KindConflict,
		Message: fmt.Sprintf("%s já cadastrado: %s", field, value),
		Details: map[string]any{"field": field, "value": value},
	}
}

// As extrai *Error da cadeia.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// BlockedCount devolve a contagem embutida em um erro Blocked.
func BlockedCount(err error) (int, bool) {
	e, ok := As(err)
	if !ok || e.Kind != KindBlocked {
		return 0, false
	}
	n, ok := e.Details["count"].(int)
	return n, ok
}

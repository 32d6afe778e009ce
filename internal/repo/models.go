package repo

import (
	"time"

	"github.com/google/uuid"

	"github.com/gestaozabele/zeladoria/internal/lifecycle"
)

// Valores aceitos pelas colunas kind.
const (
	LeaderPrincipal    = "principal"
	LeaderSub          = "sub"
	StaffAdministrator = "administrator"
	StaffTechnician    = "technician"
	CreatorLeader      = "leader"
	CreatorCitizen     = "citizen"
)

// Zone representa uma zona do município.
type Zone struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Number        int        `json:"number"`
	Population    int        `json:"population"`
	AreaKm2       float64    `json:"area_km2"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeactivatedBy *uuid.UUID `json:"deactivated_by,omitempty"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

// Council representa junta comunitária principal ou subjunta.
type Council struct {
	ID          uuid.UUID  `json:"id"`
	ZoneID      uuid.UUID  `json:"zone_id"`
	IsPrincipal bool       `json:"is_principal"`
	PrincipalID *uuid.UUID `json:"principal_id,omitempty"`
	Name        string     `json:"name"`
	Sector      *string    `json:"sector,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Address     *string    `json:"address,omitempty"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Leader é o líder eleito de uma junta principal ou subjunta.
type Leader struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	PasswordHash       string     `json:"-"`
	Kind               string     `json:"kind"`
	PrincipalCouncilID *uuid.UUID `json:"principal_council_id,omitempty"`
	SubCouncilID       *uuid.UUID `json:"sub_council_id,omitempty"`
	ZoneID             uuid.UUID  `json:"zone_id"`
	Active             bool       `json:"active"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Citizen representa usuário do app cidadão.
type Citizen struct {
	ID                  uuid.UUID  `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	ZoneID              *uuid.UUID `json:"zone_id,omitempty"`
	NearestSubCouncilID *uuid.UUID `json:"nearest_sub_council_id,omitempty"`
	Active              bool       `json:"active"`
	CreatedAt           time.Time  `json:"created_at"`
}

// Staff representa servidor municipal (administrador ou técnico).
type Staff struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Kind         string    `json:"kind"`
	Department   *string   `json:"department,omitempty"`
	CanAssign    bool      `json:"can_assign"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// DepartmentName devolve o departamento ou vazio.
func (s Staff) DepartmentName() string {
	if s.Department == nil {
		return ""
	}
	return *s.Department
}

// ProblemType associa o tipo de problema ao departamento responsável.
type ProblemType struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// Report é o relato de problema de infraestrutura.
type Report struct {
	ID                  uuid.UUID          `json:"id"`
	Number              string             `json:"number"`
	Title               string             `json:"title"`
	Description         string             `json:"description"`
	Address             string             `json:"address"`
	Priority            lifecycle.Priority `json:"priority"`
	ZoneID              uuid.UUID          `json:"zone_id"`
	ProblemTypeID       uuid.UUID          `json:"problem_type_id"`
	CreatorKind         string             `json:"creator_kind"`
	CreatorLeaderID     *uuid.UUID         `json:"creator_leader_id,omitempty"`
	CreatorCitizenID    *uuid.UUID         `json:"creator_citizen_id,omitempty"`
	CoordinatorLeaderID *uuid.UUID         `json:"coordinator_leader_id,omitempty"`
	State               lifecycle.State    `json:"state"`
	AssignedStaffID     *uuid.UUID         `json:"assigned_staff_id,omitempty"`
	AssignedAt          *time.Time         `json:"assigned_at,omitempty"`
	AssignedBy          *uuid.UUID         `json:"assigned_by,omitempty"`
	Active              bool               `json:"active"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
	UpdatedBy           uuid.UUID          `json:"updated_by"`
	UpdatedByKind       string             `json:"updated_by_kind"`
}

// CreatorID devolve o identificador do criador, seja líder ou cidadão.
func (r Report) CreatorID() uuid.UUID {
	if r.CreatorLeaderID != nil {
		return *r.CreatorLeaderID
	}
	if r.CreatorCitizenID != nil {
		return *r.CreatorCitizenID
	}
	return uuid.Nil
}

// ReportEvent registra cada mudança de estado ou prioridade.
type ReportEvent struct {
	ID        uuid.UUID        `json:"id"`
	ReportID  uuid.UUID        `json:"report_id"`
	Action    lifecycle.Action `json:"action"`
	FromState *lifecycle.State `json:"from_state,omitempty"`
	ToState   lifecycle.State  `json:"to_state"`
	ActorID   uuid.UUID        `json:"actor_id"`
	ActorKind string           `json:"actor_kind"`
	Comment   *string          `json:"comment,omitempty"`
	Motive    *string          `json:"motive,omitempty"`
	StaffID   *uuid.UUID       `json:"staff_id,omitempty"`
	Priority  *string          `json:"priority,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

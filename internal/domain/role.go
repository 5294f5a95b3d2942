package domain

// Role define el nivel de acceso de una cuenta.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// RoleAssignment asocia una cuenta con su rol. Una fila por cuenta.
type RoleAssignment struct {
	AccountID string `json:"account_id"`
	Role      Role   `json:"role"`
}

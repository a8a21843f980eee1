package model

type Role string

const (
	RoleBuyer       Role = "BUYER"
	RoleDistributor Role = "DISTRIBUTOR"
	RoleAdmin       Role = "ADMIN"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Role   Role
}

package user

type Role string

const (
	RoleOwner   Role = "owner"   // Business owner - full access
	RoleManager Role = "manager" // Runs payroll and settles subcontractors
	RoleWorker  Role = "worker"  // Roster member, read only
)

func (r Role) IsValid() bool {
	_, ok := RolePermissions[r]
	return ok
}

// Principal is the authenticated caller extracted from access token claims.
type Principal struct {
	UserID     string
	BusinessID string
	Role       Role
}

// IsManager checks if the principal is manager or owner
func (p Principal) IsManager() bool {
	return p.Role == RoleManager || p.Role == RoleOwner
}

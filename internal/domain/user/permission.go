package user

type Permission string

const (
	// Payroll
	PermissionPayrollView Permission = "payroll.view"
	PermissionPayrollRun  Permission = "payroll.run"

	// Business settings
	PermissionSettingsView   Permission = "settings.view"
	PermissionSettingsManage Permission = "settings.manage"

	// Subcontractor settlement
	PermissionSettlementView   Permission = "settlement.view"
	PermissionSettlementManage Permission = "settlement.manage"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		// Owner has all permissions
		PermissionPayrollView,
		PermissionPayrollRun,
		PermissionSettingsView,
		PermissionSettingsManage,
		PermissionSettlementView,
		PermissionSettlementManage,
	},
	RoleManager: {
		PermissionPayrollView,
		PermissionPayrollRun,
		PermissionSettingsView,
		PermissionSettingsManage,
		PermissionSettlementView,
		PermissionSettlementManage,
	},
	RoleWorker: {
		PermissionSettingsView,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}

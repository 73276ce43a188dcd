package auth

import "context"

const (
	RoleAdmin      = "admin"
	RoleHR         = "hr"
	RoleSupervisor = "supervisor"
	RoleEmployee   = "employee"
)

var Roles = []string{RoleAdmin, RoleHR, RoleSupervisor, RoleEmployee}

const (
	PermOrgRead          = "org.read"
	PermOrgWrite         = "org.write"
	PermPeriodsRead      = "periods.read"
	PermPeriodsWrite     = "periods.write"
	PermCatalogRead      = "catalog.read"
	PermCatalogWrite     = "catalog.write"
	PermEvaluationsRead  = "evaluations.read"
	PermEvaluationsWrite = "evaluations.write"
	PermEvaluationsAdmin = "evaluations.admin"
	PermResultsRead      = "results.read"
	PermResultsCompute   = "results.compute"
	PermAnalyticsRead    = "analytics.read"
	PermPlansRead        = "plans.read"
	PermPlansWrite       = "plans.write"
	PermPlansApprove     = "plans.approve"
	PermAuditRead        = "audit.read"
)

var DefaultPermissions = []string{
	PermOrgRead,
	PermOrgWrite,
	PermPeriodsRead,
	PermPeriodsWrite,
	PermCatalogRead,
	PermCatalogWrite,
	PermEvaluationsRead,
	PermEvaluationsWrite,
	PermEvaluationsAdmin,
	PermResultsRead,
	PermResultsCompute,
	PermAnalyticsRead,
	PermPlansRead,
	PermPlansWrite,
	PermPlansApprove,
	PermAuditRead,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermOrgRead,
		PermPeriodsRead,
		PermCatalogRead,
		PermEvaluationsRead,
		PermEvaluationsWrite,
		PermResultsRead,
		PermPlansRead,
	},
	RoleSupervisor: {
		PermOrgRead,
		PermPeriodsRead,
		PermCatalogRead,
		PermEvaluationsRead,
		PermEvaluationsWrite,
		PermResultsRead,
		PermAnalyticsRead,
		PermPlansRead,
		PermPlansWrite,
		PermPlansApprove,
	},
	RoleHR: {
		PermOrgRead,
		PermOrgWrite,
		PermPeriodsRead,
		PermPeriodsWrite,
		PermCatalogRead,
		PermCatalogWrite,
		PermEvaluationsRead,
		PermEvaluationsWrite,
		PermEvaluationsAdmin,
		PermResultsRead,
		PermResultsCompute,
		PermAnalyticsRead,
		PermPlansRead,
		PermPlansWrite,
		PermPlansApprove,
		PermAuditRead,
	},
	RoleAdmin: DefaultPermissions,
}

func IsRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

// IsPrivileged reports whether the role sees every user's records.
func IsPrivileged(role string) bool {
	return role == RoleAdmin || role == RoleHR
}

// StaticPermissions answers permission checks from RolePermissions.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(ctx context.Context, role, permission string) (bool, error) {
	for _, candidate := range RolePermissions[role] {
		if candidate == permission {
			return true, nil
		}
	}
	return false, nil
}

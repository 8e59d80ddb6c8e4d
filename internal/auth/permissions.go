package auth

const (
	RoleEmployee = "employee"
	RoleHR       = "hr"
	RoleAdmin    = "admin"
)

const (
	PermAppraisalWrite    = "appraisal.write"
	PermAppraisalReview   = "appraisal.review"
	PermAppraisalReadAll  = "appraisal.read_all"
	PermAppraisalFinalize = "appraisal.finalize"
	PermOrgRead           = "org.read"
	PermPolicyRead        = "policy.read"
	PermPolicyWrite       = "policy.write"
	PermDiagnosticsRead   = "diagnostics.read"
	PermAuditRead         = "audit.read"
)

var DefaultPermissions = []string{
	PermAppraisalWrite,
	PermAppraisalReview,
	PermAppraisalReadAll,
	PermAppraisalFinalize,
	PermOrgRead,
	PermPolicyRead,
	PermPolicyWrite,
	PermDiagnosticsRead,
	PermAuditRead,
}

// RolePermissions grants every employee the ability to own and review
// appraisals; whether they may review a given level is decided by the
// frozen chain, not the role.
var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermAppraisalWrite,
		PermAppraisalReview,
	},
	RoleHR: {
		PermAppraisalWrite,
		PermAppraisalReview,
		PermAppraisalReadAll,
		PermAppraisalFinalize,
		PermOrgRead,
		PermPolicyRead,
		PermPolicyWrite,
		PermDiagnosticsRead,
		PermAuditRead,
	},
	RoleAdmin: DefaultPermissions,
}

func KnownRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

func Allowed(role, permission string) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

package approval

type GapReason string

const (
	GapNoSuperior        GapReason = "noSuperior"
	GapInactiveSuperior  GapReason = "inactiveSuperior"
	GapNoApproverEmail   GapReason = "noApproverEmail"
	GapUnsetApprover     GapReason = "unsetApprover"
	GapInactiveApprover  GapReason = "inactiveApprover"
	GapSelfApprover      GapReason = "selfApprover"
	GapSkippedByOverride GapReason = "skippedByOverride"
	GapAdditionalDropped GapReason = "additionalApproverDropped"
)

// Gap is a configuration or data defect that degraded a chain.
type Gap struct {
	EmployeeID string    `json:"employeeId"`
	Level      int       `json:"level,omitempty"`
	ApproverID string    `json:"approverId,omitempty"`
	Reason     GapReason `json:"reason"`
}

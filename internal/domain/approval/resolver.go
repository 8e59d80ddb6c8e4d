package approval

import (
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/org"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/policy"
)

// Resolution is the output of Resolve: the chain plus every gap met on the
// way. Duplicate approvers are dropped without a gap.
type Resolution struct {
	EmployeeID string `json:"employeeId"`
	Chain      Chain  `json:"chain"`
	Gaps       []Gap  `json:"gaps,omitempty"`
	Ceiling    int    `json:"ceiling"`
	OverrideID string `json:"overrideId,omitempty"`
}

// Resolve computes the approval chain of emp from the directory view and
// the department policy snapshot. It reads nothing else, so equal inputs
// give equal output.
func Resolve(emp org.Employee, view org.View, pol policy.Policy) Resolution {
	res := Resolution{EmployeeID: emp.ID, Chain: Chain{}, Ceiling: pol.Ceiling(emp)}
	override, hasOverride := pol.MatchOverride(emp)
	if hasOverride {
		res.OverrideID = override.ID
		if override.SetLevels > 0 {
			res.Ceiling = policy.Clamp(override.SetLevels)
		}
	}

	b := builder{emp: emp, view: view, res: &res}

	switch superior, ok := view.Lookup(emp.ReportsTo); {
	case !emp.HasSuperior():
		b.gap(1, "", GapNoSuperior)
	case emp.ReportsTo == emp.ID:
		b.gap(1, emp.ID, GapSelfApprover)
	case !ok || !superior.Active:
		b.gap(1, emp.ReportsTo, GapInactiveSuperior)
	default:
		b.add(1, superior.ID, RoleDirectSuperior)
	}

	for level := policy.FirstPolicyLevel; level <= res.Ceiling; level++ {
		if hasOverride && override.Skips(level) {
			b.gap(level, "", GapSkippedByOverride)
			continue
		}
		la, ok := pol.Approver(level)
		if !ok {
			b.gap(level, "", GapUnsetApprover)
			continue
		}
		b.consider(level, la.ApproverID, pol.RoleLabel(level), GapInactiveApprover)
	}

	if hasOverride && override.AdditionalApproverID != "" {
		level := policy.FirstPolicyLevel
		if n := len(res.Chain); n > 0 {
			level = max(level, res.Chain[n-1].Level+1)
		}
		if level > policy.MaxLevels {
			b.gap(level, override.AdditionalApproverID, GapAdditionalDropped)
		} else {
			b.consider(level, override.AdditionalApproverID, RoleAdditionalApprover, GapAdditionalDropped)
		}
	}

	if n := len(res.Chain); n > 0 {
		res.Chain[n-1].Final = true
	}
	return res
}

type builder struct {
	emp  org.Employee
	view org.View
	res  *Resolution
	seen map[string]struct{}
}

// consider emits approverID at level unless it is the employee, already in
// the chain, or not an active directory member.
func (b *builder) consider(level int, approverID, role string, inactive GapReason) {
	if approverID == b.emp.ID {
		b.gap(level, approverID, GapSelfApprover)
		return
	}
	if _, dup := b.seen[approverID]; dup {
		return
	}
	approver, ok := b.view.Lookup(approverID)
	if !ok || !approver.Active {
		b.gap(level, approverID, inactive)
		return
	}
	b.add(level, approverID, role)
}

func (b *builder) add(level int, approverID, role string) {
	if b.seen == nil {
		b.seen = make(map[string]struct{}, policy.MaxLevels)
	}
	b.seen[approverID] = struct{}{}
	b.res.Chain = append(b.res.Chain, Link{Level: level, ApproverID: approverID, Role: role})
}

func (b *builder) gap(level int, approverID string, reason GapReason) {
	b.res.Gaps = append(b.res.Gaps, Gap{
		EmployeeID: b.emp.ID,
		Level:      level,
		ApproverID: approverID,
		Reason:     reason,
	})
}

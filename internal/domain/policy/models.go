package policy

import (
	"fmt"
	"sort"
	"time"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/org"
)

type LevelApprover struct {
	Level      int    `json:"level"`
	ApproverID string `json:"approverId,omitempty"`
	RoleLabel  string `json:"roleLabel,omitempty"`
}

// Policy is one department's approval configuration at a point in time.
type Policy struct {
	DepartmentID string                   `json:"departmentId"`
	Levels       []LevelApprover          `json:"levels,omitempty"`
	TypeCaps     map[org.EmployeeType]int `json:"typeCaps,omitempty"`
	ProbationCap int                      `json:"probationCap,omitempty"`
	Overrides    []Override               `json:"overrides,omitempty"`
	UpdatedAt    time.Time                `json:"updatedAt"`
}

// Override adjusts chain resolution for the employees it matches. Empty
// match fields match everything.
type Override struct {
	ID                   string           `json:"id"`
	Priority             int              `json:"priority"`
	Active               bool             `json:"active"`
	DepartmentID         string           `json:"departmentId,omitempty"`
	EmployeeType         org.EmployeeType `json:"employeeType,omitempty"`
	OnProbation          *bool            `json:"onProbation,omitempty"`
	EmployeeID           string           `json:"employeeId,omitempty"`
	SetLevels            int              `json:"setLevels,omitempty"`
	SkipLevels           []int            `json:"skipLevels,omitempty"`
	AdditionalApproverID string           `json:"additionalApproverId,omitempty"`
}

// Default is the policy of a department with nothing configured.
func Default(departmentID string) Policy {
	return Policy{DepartmentID: departmentID}
}

func (p Policy) Approver(level int) (LevelApprover, bool) {
	for _, la := range p.Levels {
		if la.Level == level && la.ApproverID != "" {
			return la, true
		}
	}
	return LevelApprover{Level: level}, false
}

// RoleLabel is the configured label for level, or level_<n>_approver.
func (p Policy) RoleLabel(level int) string {
	for _, la := range p.Levels {
		if la.Level == level && la.RoleLabel != "" {
			return la.RoleLabel
		}
	}
	return fmt.Sprintf("level_%d_approver", level)
}

func (p Policy) TypeCap(t org.EmployeeType) int {
	if v, ok := p.TypeCaps[t]; ok && v > 0 {
		return Clamp(v)
	}
	if v, ok := DefaultTypeCaps[t]; ok {
		return v
	}
	return FallbackTypeCap
}

func (p Policy) ProbationLimit() int {
	if p.ProbationCap > 0 {
		return Clamp(p.ProbationCap)
	}
	return DefaultProbationCap
}

// Ceiling is the highest level number resolution may emit for e.
func (p Policy) Ceiling(e org.Employee) int {
	ceiling := p.TypeCap(e.Type)
	if e.OnProbation {
		ceiling = min(ceiling, p.ProbationLimit())
	}
	return Clamp(ceiling)
}

// MatchOverride returns the first active override matching e, lowest
// priority first. Ties keep configuration order.
func (p Policy) MatchOverride(e org.Employee) (Override, bool) {
	if len(p.Overrides) == 0 {
		return Override{}, false
	}
	ordered := make([]Override, len(p.Overrides))
	copy(ordered, p.Overrides)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })
	for _, o := range ordered {
		if o.Active && o.Matches(e) {
			return o, true
		}
	}
	return Override{}, false
}

func (p Policy) Validate() error {
	seen := make(map[int]struct{}, len(p.Levels))
	for _, la := range p.Levels {
		if la.Level < FirstPolicyLevel || la.Level > MaxLevels {
			return fmt.Errorf("%w: %d", ErrInvalidLevel, la.Level)
		}
		if _, dup := seen[la.Level]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateLevel, la.Level)
		}
		seen[la.Level] = struct{}{}
	}
	for t, v := range p.TypeCaps {
		if v < MinLevels || v > MaxLevels {
			return fmt.Errorf("%w: %s=%d", ErrInvalidCap, t, v)
		}
	}
	if p.ProbationCap != 0 && (p.ProbationCap < MinLevels || p.ProbationCap > MaxLevels) {
		return fmt.Errorf("%w: probation=%d", ErrInvalidCap, p.ProbationCap)
	}
	for _, o := range p.Overrides {
		if err := o.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (o Override) Matches(e org.Employee) bool {
	if o.DepartmentID != "" && o.DepartmentID != e.DepartmentID {
		return false
	}
	if o.EmployeeType != "" && o.EmployeeType != e.Type {
		return false
	}
	if o.OnProbation != nil && *o.OnProbation != e.OnProbation {
		return false
	}
	if o.EmployeeID != "" && o.EmployeeID != e.ID {
		return false
	}
	return true
}

func (o Override) Skips(level int) bool {
	for _, skip := range o.SkipLevels {
		if skip == level {
			return true
		}
	}
	return false
}

func (o Override) Validate() error {
	if o.SetLevels != 0 && (o.SetLevels < MinLevels || o.SetLevels > MaxLevels) {
		return fmt.Errorf("%w: setLevels=%d", ErrInvalidOverride, o.SetLevels)
	}
	for _, skip := range o.SkipLevels {
		if skip < FirstPolicyLevel || skip > MaxLevels {
			return fmt.Errorf("%w: skipLevels contains %d", ErrInvalidOverride, skip)
		}
	}
	return nil
}

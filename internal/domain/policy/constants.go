package policy

import "github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/org"

const (
	MinLevels = 1
	MaxLevels = 6

	// FirstPolicyLevel is the lowest level a department can configure;
	// level 1 is always the direct superior.
	FirstPolicyLevel = 2

	DefaultProbationCap = 2
	FallbackTypeCap     = 2
)

// DefaultTypeCaps is the single source of per-type approval depth when a
// department leaves a cap unset.
var DefaultTypeCaps = map[org.EmployeeType]int{
	org.TypeOfficeStaff:      2,
	org.TypeProductionWorker: 5,
	org.TypeSupervisor:       3,
	org.TypeManager:          3,
	org.TypeExecutive:        2,
}

// Clamp bounds n to [MinLevels, MaxLevels].
func Clamp(n int) int {
	if n < MinLevels {
		return MinLevels
	}
	if n > MaxLevels {
		return MaxLevels
	}
	return n
}

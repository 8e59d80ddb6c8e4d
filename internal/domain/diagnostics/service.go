package diagnostics

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/approval"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/org"
)

// Scope narrows a report to one department. The zero Scope covers every
// active employee.
type Scope struct {
	DepartmentID string
}

type Report struct {
	EmployeeID   string             `json:"employeeId"`
	EmployeeName string             `json:"employeeName,omitempty"`
	DepartmentID string             `json:"departmentId,omitempty"`
	SuperiorID   string             `json:"superiorId,omitempty"`
	Reason       approval.GapReason `json:"reason"`
}

type Service struct {
	directory org.Directory
	log       zerolog.Logger
}

func NewService(directory org.Directory, log zerolog.Logger) *Service {
	return &Service{directory: directory, log: log.With().Str("component", "diagnostics").Logger()}
}

// ListPolicyGaps reports active employees whose level-1 approval would
// degrade: no superior, an inactive or unknown superior, or a superior
// without an email address.
func (s *Service) ListPolicyGaps(ctx context.Context, scope Scope) ([]Report, error) {
	employees, err := s.directory.ListActive(ctx, scope.DepartmentID)
	if err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}
	superiors := make([]string, 0, len(employees))
	for _, e := range employees {
		superiors = append(superiors, e.ReportsTo)
	}
	view, err := org.LoadSnapshot(ctx, s.directory, superiors...)
	if err != nil {
		return nil, err
	}

	reports := Evaluate(employees, view)
	s.log.Info().
		Str("department_id", scope.DepartmentID).
		Int("employees", len(employees)).
		Int("gaps", len(reports)).
		Msg("policy gap report built")
	return reports, nil
}

// Evaluate is the pure part of ListPolicyGaps. Inactive employees are
// ignored.
func Evaluate(employees []org.Employee, view org.View) []Report {
	var out []Report
	for _, e := range employees {
		if !e.Active {
			continue
		}
		report := Report{EmployeeID: e.ID, EmployeeName: e.Name, DepartmentID: e.DepartmentID, SuperiorID: e.ReportsTo}
		if !e.HasSuperior() || e.ReportsTo == e.ID {
			report.Reason = approval.GapNoSuperior
			out = append(out, report)
			continue
		}
		superior, ok := view.Lookup(e.ReportsTo)
		switch {
		case !ok || !superior.Active:
			report.Reason = approval.GapInactiveSuperior
		case strings.TrimSpace(superior.Email) == "":
			report.Reason = approval.GapNoApproverEmail
		default:
			continue
		}
		out = append(out, report)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}

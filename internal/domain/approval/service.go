package approval

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/org"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/policy"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/metrics"
)

// Service loads consistent directory and policy snapshots for one
// employee and runs Resolve over them.
type Service struct {
	directory org.Directory
	policies  policy.Source
	log       zerolog.Logger
	metrics   *metrics.Collector
}

func NewService(directory org.Directory, policies policy.Source, log zerolog.Logger, m *metrics.Collector) *Service {
	return &Service{
		directory: directory,
		policies:  policies,
		log:       log.With().Str("component", "chain_resolver").Logger(),
		metrics:   m,
	}
}

// ResolveFor resolves the current chain of employeeID and reports its gaps.
func (s *Service) ResolveFor(ctx context.Context, employeeID string) (Resolution, error) {
	emp, err := s.directory.GetEmployee(ctx, employeeID)
	if err != nil {
		return Resolution{}, err
	}

	pol := policy.Default(emp.DepartmentID)
	if emp.DepartmentID != "" {
		pol, err = s.policies.GetPolicy(ctx, emp.DepartmentID)
		if err != nil {
			return Resolution{}, fmt.Errorf("load policy for %s: %w", employeeID, err)
		}
	}

	ids := make([]string, 0, policy.MaxLevels+1)
	ids = append(ids, emp.ReportsTo)
	for _, la := range pol.Levels {
		ids = append(ids, la.ApproverID)
	}
	for _, o := range pol.Overrides {
		ids = append(ids, o.AdditionalApproverID)
	}
	view, err := org.LoadSnapshot(ctx, s.directory, ids...)
	if err != nil {
		return Resolution{}, err
	}

	res := Resolve(emp, view, pol)
	s.report(res)
	return res, nil
}

func (s *Service) report(res Resolution) {
	for _, gap := range res.Gaps {
		s.log.Warn().
			Str("employee_id", gap.EmployeeID).
			Int("approval_level", gap.Level).
			Str("approver_id", gap.ApproverID).
			Str("reason", string(gap.Reason)).
			Msg("approval policy gap")
		s.metrics.PolicyGap(string(gap.Reason))
	}
	s.metrics.ChainResolved(res.Chain.Len())
	s.log.Debug().
		Str("employee_id", res.EmployeeID).
		Strs("approvers", res.Chain.Approvers()).
		Int("ceiling", res.Ceiling).
		Str("override_id", res.OverrideID).
		Msg("approval chain resolved")
}

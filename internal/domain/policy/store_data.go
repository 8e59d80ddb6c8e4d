package policy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/org"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// typeCapColumns pairs each employee type with its cap column.
var typeCapColumns = []struct {
	Type   org.EmployeeType
	Column string
}{
	{org.TypeOfficeStaff, "office_staff_levels"},
	{org.TypeProductionWorker, "production_worker_levels"},
	{org.TypeSupervisor, "supervisor_levels"},
	{org.TypeManager, "manager_levels"},
	{org.TypeExecutive, "executive_levels"},
}

func (s *Store) GetPolicy(ctx context.Context, departmentID string) (Policy, error) {
	var (
		approvers [MaxLevels + 1]*string
		roles     [MaxLevels + 1]string
		caps      [5]*int
		probation *int
		updatedAt time.Time
	)
	err := s.DB.QueryRow(ctx, `
    SELECT level2_approver_id, level2_role, level3_approver_id, level3_role,
           level4_approver_id, level4_role, level5_approver_id, level5_role,
           level6_approver_id, level6_role,
           office_staff_levels, production_worker_levels, supervisor_levels,
           manager_levels, executive_levels, probation_levels, updated_at
    FROM department_approval_policies
    WHERE department_id = $1
  `, departmentID).Scan(
		&approvers[2], &roles[2], &approvers[3], &roles[3],
		&approvers[4], &roles[4], &approvers[5], &roles[5],
		&approvers[6], &roles[6],
		&caps[0], &caps[1], &caps[2], &caps[3], &caps[4], &probation, &updatedAt,
	)
	p := Default(departmentID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return Policy{}, fmt.Errorf("load policy %s: %w", departmentID, err)
	default:
		p.UpdatedAt = updatedAt
		for level := FirstPolicyLevel; level <= MaxLevels; level++ {
			la := LevelApprover{Level: level, RoleLabel: roles[level]}
			if approvers[level] != nil {
				la.ApproverID = *approvers[level]
			}
			if la.ApproverID != "" || la.RoleLabel != "" {
				p.Levels = append(p.Levels, la)
			}
		}
		p.TypeCaps = make(map[org.EmployeeType]int)
		for i, col := range typeCapColumns {
			if caps[i] != nil {
				p.TypeCaps[col.Type] = *caps[i]
			}
		}
		if probation != nil {
			p.ProbationCap = *probation
		}
	}

	overrides, err := s.listOverrides(ctx, departmentID)
	if err != nil {
		return Policy{}, err
	}
	p.Overrides = overrides
	return p, nil
}

func (s *Store) listOverrides(ctx context.Context, departmentID string) ([]Override, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, priority, active, COALESCE(department_id, ''), COALESCE(employee_type, ''), on_probation,
           COALESCE(employee_id, ''), COALESCE(set_levels, 0), skip_levels, COALESCE(additional_approver_id, '')
    FROM approval_overrides
    WHERE active AND (department_id = $1 OR department_id IS NULL)
    ORDER BY priority, created_at
  `, departmentID)
	if err != nil {
		return nil, fmt.Errorf("load overrides %s: %w", departmentID, err)
	}
	defer rows.Close()

	var out []Override
	for rows.Next() {
		var (
			o       Override
			rawType string
			skips   []int32
		)
		if err := rows.Scan(&o.ID, &o.Priority, &o.Active, &o.DepartmentID, &rawType, &o.OnProbation,
			&o.EmployeeID, &o.SetLevels, &skips, &o.AdditionalApproverID); err != nil {
			return nil, err
		}
		o.EmployeeType = org.ParseEmployeeType(rawType)
		for _, skip := range skips {
			o.SkipLevels = append(o.SkipLevels, int(skip))
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) SavePolicy(ctx context.Context, p Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	var (
		approvers [MaxLevels + 1]*string
		roles     [MaxLevels + 1]string
	)
	for _, la := range p.Levels {
		if la.ApproverID != "" {
			id := la.ApproverID
			approvers[la.Level] = &id
		}
		roles[la.Level] = la.RoleLabel
	}
	caps := make([]*int, len(typeCapColumns))
	for i, col := range typeCapColumns {
		if v, ok := p.TypeCaps[col.Type]; ok {
			v := v
			caps[i] = &v
		}
	}
	var probation *int
	if p.ProbationCap > 0 {
		probation = &p.ProbationCap
	}

	_, err := s.DB.Exec(ctx, `
    INSERT INTO department_approval_policies (
      department_id, level2_approver_id, level2_role, level3_approver_id, level3_role,
      level4_approver_id, level4_role, level5_approver_id, level5_role, level6_approver_id, level6_role,
      office_staff_levels, production_worker_levels, supervisor_levels, manager_levels, executive_levels,
      probation_levels, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, now())
    ON CONFLICT (department_id) DO UPDATE SET
      level2_approver_id = EXCLUDED.level2_approver_id, level2_role = EXCLUDED.level2_role,
      level3_approver_id = EXCLUDED.level3_approver_id, level3_role = EXCLUDED.level3_role,
      level4_approver_id = EXCLUDED.level4_approver_id, level4_role = EXCLUDED.level4_role,
      level5_approver_id = EXCLUDED.level5_approver_id, level5_role = EXCLUDED.level5_role,
      level6_approver_id = EXCLUDED.level6_approver_id, level6_role = EXCLUDED.level6_role,
      office_staff_levels = EXCLUDED.office_staff_levels,
      production_worker_levels = EXCLUDED.production_worker_levels,
      supervisor_levels = EXCLUDED.supervisor_levels,
      manager_levels = EXCLUDED.manager_levels,
      executive_levels = EXCLUDED.executive_levels,
      probation_levels = EXCLUDED.probation_levels,
      updated_at = now()
  `, p.DepartmentID,
		approvers[2], roles[2], approvers[3], roles[3], approvers[4], roles[4],
		approvers[5], roles[5], approvers[6], roles[6],
		caps[0], caps[1], caps[2], caps[3], caps[4], probation)
	return err
}

func (s *Store) SaveOverride(ctx context.Context, o Override) (string, error) {
	if err := o.Validate(); err != nil {
		return "", err
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	skips := make([]int32, 0, len(o.SkipLevels))
	for _, level := range o.SkipLevels {
		skips = append(skips, int32(level))
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO approval_overrides (id, department_id, employee_type, on_probation, employee_id, priority,
      active, set_levels, skip_levels, additional_approver_id)
    VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, NULLIF($5, ''), $6, $7, NULLIF($8, 0), $9, NULLIF($10, ''))
    ON CONFLICT (id) DO UPDATE SET
      department_id = EXCLUDED.department_id, employee_type = EXCLUDED.employee_type,
      on_probation = EXCLUDED.on_probation, employee_id = EXCLUDED.employee_id, priority = EXCLUDED.priority,
      active = EXCLUDED.active, set_levels = EXCLUDED.set_levels, skip_levels = EXCLUDED.skip_levels,
      additional_approver_id = EXCLUDED.additional_approver_id
  `, o.ID, o.DepartmentID, string(o.EmployeeType), o.OnProbation, o.EmployeeID, o.Priority,
		o.Active, o.SetLevels, skips, o.AdditionalApproverID)
	if err != nil {
		return "", err
	}
	return o.ID, nil
}

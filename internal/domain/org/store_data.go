package org

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const employeeColumns = `id, name, email, job_title, active, employee_type, on_probation,
	COALESCE(department_id, ''), COALESCE(reports_to, '')`

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	var rawType string
	if err := row.Scan(&e.ID, &e.Name, &e.Email, &e.JobTitle, &e.Active, &rawType, &e.OnProbation, &e.DepartmentID, &e.ReportsTo); err != nil {
		return Employee{}, err
	}
	e.Type = ParseEmployeeType(rawType)
	return e, nil
}

func (s *Store) GetEmployee(ctx context.Context, id string) (Employee, error) {
	e, err := scanEmployee(s.DB.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, fmt.Errorf("%w: %s", ErrEmployeeNotFound, id)
	}
	if err != nil {
		return Employee{}, err
	}
	return e, nil
}

func (s *Store) GetEmployees(ctx context.Context, ids []string) ([]Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.DB.Query(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEmployees(rows)
}

func (s *Store) ListActive(ctx context.Context, departmentID string) ([]Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees WHERE active"
	args := []any{}
	if departmentID != "" {
		query += " AND department_id = $1"
		args = append(args, departmentID)
	}
	query += " ORDER BY id"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEmployees(rows)
}

// Upsert writes an employee record. The directory is owned by the
// surrounding application; this exists for seeding and tests.
func (s *Store) Upsert(ctx context.Context, e Employee) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO employees (id, name, email, job_title, active, employee_type, on_probation, department_id, reports_to)
    VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''))
    ON CONFLICT (id) DO UPDATE SET
      name = EXCLUDED.name, email = EXCLUDED.email, job_title = EXCLUDED.job_title,
      active = EXCLUDED.active, employee_type = EXCLUDED.employee_type, on_probation = EXCLUDED.on_probation,
      department_id = EXCLUDED.department_id, reports_to = EXCLUDED.reports_to, updated_at = now()
  `, e.ID, e.Name, e.Email, e.JobTitle, e.Active, string(e.Type), e.OnProbation, e.DepartmentID, e.ReportsTo)
	return err
}

func (s *Store) UpsertDepartment(ctx context.Context, id, name string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO departments (id, name) VALUES ($1, $2)
    ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
  `, id, name)
	return err
}

func collectEmployees(rows pgx.Rows) ([]Employee, error) {
	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/org"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/policy"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/platform/querier"
)

type seedDepartment struct {
	ID   string
	Name string
}

var seedDepartments = []seedDepartment{
	{ID: "ops", Name: "Operations"},
	{ID: "fin", Name: "Finance"},
	{ID: "hr", Name: "Human Resources"},
}

// Superiors come before their reports so the reports_to key resolves.
var seedEmployees = []org.Employee{
	{ID: "emp-ceo", Name: "Chief Executive", Email: "ceo@example.com", JobTitle: "CEO", Active: true, Type: org.TypeExecutive},
	{ID: "emp-gm", Name: "General Manager", Email: "gm@example.com", JobTitle: "General Manager", Active: true, Type: org.TypeManager, DepartmentID: "ops", ReportsTo: "emp-ceo"},
	{ID: "emp-hod-ops", Name: "Head of Operations", Email: "hod.ops@example.com", JobTitle: "Head of Department", Active: true, Type: org.TypeManager, DepartmentID: "ops", ReportsTo: "emp-gm"},
	{ID: "emp-sup", Name: "Line Supervisor", Email: "sup@example.com", JobTitle: "Supervisor", Active: true, Type: org.TypeSupervisor, DepartmentID: "ops", ReportsTo: "emp-hod-ops"},
	{ID: "emp-worker", Name: "Production Worker", JobTitle: "Operator", Active: true, Type: org.TypeProductionWorker, DepartmentID: "ops", ReportsTo: "emp-sup"},
	{ID: "emp-clerk", Name: "Operations Clerk", Email: "clerk@example.com", JobTitle: "Clerk", Active: true, Type: org.TypeOfficeStaff, OnProbation: true, DepartmentID: "ops", ReportsTo: "emp-hod-ops"},
	{ID: "emp-fin-head", Name: "Finance Head", JobTitle: "Head of Finance", Active: true, Type: org.TypeManager, DepartmentID: "fin", ReportsTo: "emp-ceo"},
	{ID: "emp-accountant", Name: "Accountant", Email: "acct@example.com", JobTitle: "Accountant", Active: true, Type: org.TypeOfficeStaff, DepartmentID: "fin", ReportsTo: "emp-fin-head"},
	{ID: "emp-hr", Name: "HR Partner", Email: "hr@example.com", JobTitle: "HR Business Partner", Active: true, Type: org.TypeOfficeStaff, DepartmentID: "hr", ReportsTo: "emp-ceo"},
}

var seedPolicies = []policy.Policy{
	{
		DepartmentID: "ops",
		Levels: []policy.LevelApprover{
			{Level: 2, ApproverID: "emp-hod-ops", RoleLabel: "head_of_department"},
			{Level: 3, ApproverID: "emp-gm", RoleLabel: "general_manager"},
			{Level: 4, ApproverID: "emp-ceo", RoleLabel: "chief_executive"},
		},
		ProbationCap: 1,
	},
	{
		DepartmentID: "fin",
		Levels: []policy.LevelApprover{
			{Level: 2, ApproverID: "emp-ceo", RoleLabel: "chief_executive"},
		},
	},
}

// Seed loads a small demo organization and its approval policies. Every
// write is an upsert, so running it again is harmless.
func Seed(ctx context.Context, q querier.Querier, log zerolog.Logger) error {
	employees := org.NewStore(q)
	for _, d := range seedDepartments {
		if err := employees.UpsertDepartment(ctx, d.ID, d.Name); err != nil {
			return fmt.Errorf("seed department %s: %w", d.ID, err)
		}
	}
	for _, e := range seedEmployees {
		if err := employees.Upsert(ctx, e); err != nil {
			return fmt.Errorf("seed employee %s: %w", e.ID, err)
		}
	}

	policies := policy.NewStore(q)
	for _, p := range seedPolicies {
		if err := policies.SavePolicy(ctx, p); err != nil {
			return fmt.Errorf("seed policy %s: %w", p.DepartmentID, err)
		}
	}
	log.Info().
		Int("departments", len(seedDepartments)).
		Int("employees", len(seedEmployees)).
		Int("policies", len(seedPolicies)).
		Msg("demo organization seeded")
	return nil
}

package approval

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/org"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/policy"
)

func active(id string) org.Employee {
	return org.Employee{ID: id, Name: id, Active: true, Email: id + "@example.com"}
}

func inactive(id string) org.Employee {
	e := active(id)
	e.Active = false
	return e
}

func levels(pairs ...any) []policy.LevelApprover {
	out := make([]policy.LevelApprover, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, policy.LevelApprover{Level: pairs[i].(int), ApproverID: pairs[i+1].(string)})
	}
	return out
}

func pairsOf(c Chain) [][2]any {
	out := make([][2]any, len(c))
	for i, l := range c {
		out[i] = [2]any{l.Level, l.ApproverID}
	}
	return out
}

func reasons(gaps []Gap) []GapReason {
	out := make([]GapReason, len(gaps))
	for i, g := range gaps {
		out[i] = g.Reason
	}
	return out
}

func TestResolveScenarios(t *testing.T) {
	staff := org.Employee{ID: "E", Active: true, Type: org.TypeOfficeStaff, ReportsTo: "M", DepartmentID: "d1"}
	worker := org.Employee{ID: "W", Active: true, Type: org.TypeProductionWorker, OnProbation: true, ReportsTo: "M", DepartmentID: "d1"}

	cases := []struct {
		name     string
		emp      org.Employee
		people   []org.Employee
		pol      policy.Policy
		want     [][2]any
		wantGaps []GapReason
	}{
		{
			name:   "superior and level two",
			emp:    staff,
			people: []org.Employee{active("M"), active("A")},
			pol:    policy.Policy{Levels: levels(2, "A"), TypeCaps: map[org.EmployeeType]int{org.TypeOfficeStaff: 2}},
			want:   [][2]any{{1, "M"}, {2, "A"}},
		},
		{
			name:     "inactive superior",
			emp:      staff,
			people:   []org.Employee{inactive("M"), active("A")},
			pol:      policy.Policy{Levels: levels(2, "A"), TypeCaps: map[org.EmployeeType]int{org.TypeOfficeStaff: 2}},
			want:     [][2]any{{2, "A"}},
			wantGaps: []GapReason{GapInactiveSuperior},
		},
		{
			name:   "probation caps worker at two",
			emp:    worker,
			people: []org.Employee{active("M"), active("A2"), active("A3"), active("A4"), active("A5")},
			pol: policy.Policy{
				Levels:       levels(2, "A2", 3, "A3", 4, "A4", 5, "A5"),
				TypeCaps:     map[org.EmployeeType]int{org.TypeProductionWorker: 5},
				ProbationCap: 2,
			},
			want: [][2]any{{1, "M"}, {2, "A2"}},
		},
		{
			name:   "duplicate approver kept once at lowest level",
			emp:    org.Employee{ID: "E", Active: true, Type: org.TypeManager, ReportsTo: "M"},
			people: []org.Employee{active("M"), active("P"), active("Q")},
			pol: policy.Policy{
				Levels:   levels(2, "P", 3, "Q", 4, "P"),
				TypeCaps: map[org.EmployeeType]int{org.TypeManager: 4},
			},
			want: [][2]any{{1, "M"}, {2, "P"}, {3, "Q"}},
		},
		{
			name:   "superior repeated at level two",
			emp:    staff,
			people: []org.Employee{active("M")},
			pol:    policy.Policy{Levels: levels(2, "M")},
			want:   [][2]any{{1, "M"}},
		},
		{
			name:     "no superior and no policy",
			emp:      org.Employee{ID: "E", Active: true, Type: org.TypeOfficeStaff},
			pol:      policy.Default("d1"),
			want:     [][2]any{},
			wantGaps: []GapReason{GapNoSuperior, GapUnsetApprover},
		},
		{
			name:     "missing superior record",
			emp:      staff,
			people:   []org.Employee{active("A")},
			pol:      policy.Policy{Levels: levels(2, "A")},
			want:     [][2]any{{2, "A"}},
			wantGaps: []GapReason{GapInactiveSuperior},
		},
		{
			name:     "inactive approver skipped, resolution continues",
			emp:      org.Employee{ID: "E", Active: true, Type: org.TypeSupervisor, ReportsTo: "M"},
			people:   []org.Employee{active("M"), inactive("A2"), active("A3")},
			pol:      policy.Policy{Levels: levels(2, "A2", 3, "A3")},
			want:     [][2]any{{1, "M"}, {3, "A3"}},
			wantGaps: []GapReason{GapInactiveApprover},
		},
		{
			name:     "unset level inside cap",
			emp:      org.Employee{ID: "E", Active: true, Type: org.TypeSupervisor, ReportsTo: "M"},
			people:   []org.Employee{active("M"), active("A3")},
			pol:      policy.Policy{Levels: levels(3, "A3")},
			want:     [][2]any{{1, "M"}, {3, "A3"}},
			wantGaps: []GapReason{GapUnsetApprover},
		},
		{
			name:   "levels above ceiling ignored",
			emp:    staff,
			people: []org.Employee{active("M"), active("A2"), active("A3")},
			pol:    policy.Policy{Levels: levels(2, "A2", 3, "A3")},
			want:   [][2]any{{1, "M"}, {2, "A2"}},
		},
		{
			name:     "self approver guarded",
			emp:      org.Employee{ID: "E", Active: true, Type: org.TypeSupervisor, ReportsTo: "M"},
			people:   []org.Employee{active("M"), active("E"), active("A3")},
			pol:      policy.Policy{Levels: levels(2, "E", 3, "A3")},
			want:     [][2]any{{1, "M"}, {3, "A3"}},
			wantGaps: []GapReason{GapSelfApprover},
		},
		{
			name:     "reports to self",
			emp:      org.Employee{ID: "E", Active: true, Type: org.TypeOfficeStaff, ReportsTo: "E"},
			people:   []org.Employee{active("E"), active("A")},
			pol:      policy.Policy{Levels: levels(2, "A")},
			want:     [][2]any{{2, "A"}},
			wantGaps: []GapReason{GapSelfApprover},
		},
		{
			name:   "unknown type falls back to two",
			emp:    org.Employee{ID: "E", Active: true, ReportsTo: "M"},
			people: []org.Employee{active("M"), active("A2"), active("A3")},
			pol:    policy.Policy{Levels: levels(2, "A2", 3, "A3")},
			want:   [][2]any{{1, "M"}, {2, "A2"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Resolve(tc.emp, org.NewSnapshot(tc.people...), tc.pol)
			require.Equal(t, tc.want, pairsOf(res.Chain))
			require.Equal(t, len(tc.wantGaps), len(res.Gaps), "gaps: %+v", res.Gaps)
			if len(tc.wantGaps) > 0 {
				require.Equal(t, tc.wantGaps, reasons(res.Gaps))
			}
			require.NoError(t, res.Chain.Validate())
		})
	}
}

func TestResolveRoleLabelsAndFinal(t *testing.T) {
	emp := org.Employee{ID: "E", Active: true, Type: org.TypeSupervisor, ReportsTo: "M"}
	pol := policy.Policy{Levels: []policy.LevelApprover{
		{Level: 2, ApproverID: "A2", RoleLabel: "team_lead"},
		{Level: 3, ApproverID: "A3"},
	}}

	res := Resolve(emp, org.NewSnapshot(active("M"), active("A2"), active("A3")), pol)
	require.Equal(t, Chain{
		{Level: 1, ApproverID: "M", Role: RoleDirectSuperior},
		{Level: 2, ApproverID: "A2", Role: "team_lead"},
		{Level: 3, ApproverID: "A3", Role: "level_3_approver", Final: true},
	}, res.Chain)
	require.Equal(t, 3, res.Ceiling)
}

func TestResolveOverrides(t *testing.T) {
	emp := org.Employee{ID: "E", Active: true, Type: org.TypeProductionWorker, ReportsTo: "M", DepartmentID: "d1"}
	people := org.NewSnapshot(active("M"), active("A2"), active("A3"), active("A4"), active("X"))
	base := policy.Policy{Levels: levels(2, "A2", 3, "A3", 4, "A4")}

	t.Run("set levels", func(t *testing.T) {
		pol := base
		pol.Overrides = []policy.Override{{ID: "o1", Active: true, SetLevels: 2}}
		res := Resolve(emp, people, pol)
		require.Equal(t, [][2]any{{1, "M"}, {2, "A2"}}, pairsOf(res.Chain))
		require.Equal(t, "o1", res.OverrideID)
	})

	t.Run("skip levels keep numbering", func(t *testing.T) {
		pol := base
		pol.Overrides = []policy.Override{{ID: "o2", Active: true, SkipLevels: []int{3}}}
		res := Resolve(emp, people, pol)
		require.Equal(t, [][2]any{{1, "M"}, {2, "A2"}, {4, "A4"}}, pairsOf(res.Chain))
		require.Contains(t, reasons(res.Gaps), GapSkippedByOverride)
	})

	t.Run("additional approver appended", func(t *testing.T) {
		pol := base
		pol.Overrides = []policy.Override{{ID: "o3", Active: true, SetLevels: 3, AdditionalApproverID: "X"}}
		res := Resolve(emp, people, pol)
		require.Equal(t, [][2]any{{1, "M"}, {2, "A2"}, {3, "A3"}, {4, "X"}}, pairsOf(res.Chain))
		require.Equal(t, RoleAdditionalApprover, res.Chain[3].Role)
		require.True(t, res.Chain[3].Final)
	})

	t.Run("additional approver already present", func(t *testing.T) {
		pol := base
		pol.Overrides = []policy.Override{{ID: "o4", Active: true, SetLevels: 2, AdditionalApproverID: "M"}}
		res := Resolve(emp, people, pol)
		require.Equal(t, [][2]any{{1, "M"}, {2, "A2"}}, pairsOf(res.Chain))
	})

	t.Run("additional approver past level six dropped", func(t *testing.T) {
		full := org.NewSnapshot(active("M"), active("B2"), active("B3"), active("B4"), active("B5"), active("B6"), active("X"))
		pol := policy.Policy{
			Levels:    levels(2, "B2", 3, "B3", 4, "B4", 5, "B5", 6, "B6"),
			Overrides: []policy.Override{{ID: "o5", Active: true, SetLevels: 6, AdditionalApproverID: "X"}},
		}
		res := Resolve(emp, full, pol)
		require.Len(t, res.Chain, 6)
		require.False(t, res.Chain.Contains("X"))
		require.Contains(t, reasons(res.Gaps), GapAdditionalDropped)
	})

	t.Run("non matching override ignored", func(t *testing.T) {
		pol := base
		pol.Overrides = []policy.Override{{ID: "o6", Active: true, DepartmentID: "other", SetLevels: 1}}
		res := Resolve(emp, people, pol)
		require.Equal(t, [][2]any{{1, "M"}, {2, "A2"}, {3, "A3"}, {4, "A4"}}, pairsOf(res.Chain))
		require.Empty(t, res.OverrideID)
	})
}

func TestResolveIsDeterministic(t *testing.T) {
	emp := org.Employee{ID: "E", Active: true, Type: org.TypeManager, ReportsTo: "M"}
	view := org.NewSnapshot(active("M"), active("A2"), inactive("A3"))
	pol := policy.Policy{Levels: levels(2, "A2", 3, "A3")}

	first := Resolve(emp, view, pol)
	second := Resolve(emp, view, pol)
	require.Equal(t, first, second)
}

func TestResolveDiffersAcrossPolicySnapshots(t *testing.T) {
	emp := org.Employee{ID: "E", Active: true, Type: org.TypeOfficeStaff, ReportsTo: "M"}
	view := org.NewSnapshot(active("M"), active("A"), active("B"))

	before := Resolve(emp, view, policy.Policy{Levels: levels(2, "A")})
	after := Resolve(emp, view, policy.Policy{Levels: levels(2, "B")})
	require.NotEqual(t, before.Chain, after.Chain)
}

// TestResolveProperties checks the chain guarantees over random
// directories and policies without overrides.
func TestResolveProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	types := append([]org.EmployeeType{org.TypeUnknown}, org.KnownTypes...)

	for i := 0; i < 2000; i++ {
		people := org.NewSnapshot()
		ids := make([]string, 8)
		for j := range ids {
			ids[j] = fmt.Sprintf("p%d", j)
			people.Put(org.Employee{ID: ids[j], Active: rng.Intn(4) != 0})
		}
		emp := org.Employee{
			ID:          "E",
			Active:      true,
			Type:        types[rng.Intn(len(types))],
			OnProbation: rng.Intn(2) == 0,
		}
		if rng.Intn(5) != 0 {
			emp.ReportsTo = ids[rng.Intn(len(ids))]
		}

		pol := policy.Policy{TypeCaps: map[org.EmployeeType]int{}}
		for level := 2; level <= 6; level++ {
			if rng.Intn(4) != 0 {
				pol.Levels = append(pol.Levels, policy.LevelApprover{Level: level, ApproverID: ids[rng.Intn(len(ids))]})
			}
		}
		for _, typ := range org.KnownTypes {
			if rng.Intn(2) == 0 {
				pol.TypeCaps[typ] = 1 + rng.Intn(6)
			}
		}
		if rng.Intn(2) == 0 {
			pol.ProbationCap = 1 + rng.Intn(6)
		}

		res := Resolve(emp, people, pol)
		require.NoError(t, res.Chain.Validate())

		limit := pol.TypeCap(emp.Type)
		if emp.OnProbation {
			limit = min(limit, pol.ProbationLimit())
		}
		require.LessOrEqual(t, res.Chain.Len(), limit)
		for _, link := range res.Chain {
			require.LessOrEqual(t, link.Level, limit)
			e, ok := people.Lookup(link.ApproverID)
			require.True(t, ok)
			require.True(t, e.Active)
		}
		if superior, ok := people.Lookup(emp.ReportsTo); ok && superior.Active {
			require.Equal(t, 1, res.Chain[0].Level)
			require.Equal(t, emp.ReportsTo, res.Chain[0].ApproverID)
		} else if res.Chain.Len() > 0 {
			require.Greater(t, res.Chain[0].Level, 1)
		}
	}
}

func TestResolveWithoutPolicyReturnsOnlySuperior(t *testing.T) {
	for _, typ := range append([]org.EmployeeType{org.TypeUnknown}, org.KnownTypes...) {
		for _, probation := range []bool{false, true} {
			emp := org.Employee{ID: "E", Active: true, Type: typ, OnProbation: probation, ReportsTo: "M"}
			res := Resolve(emp, org.NewSnapshot(active("M")), policy.Default("d1"))
			require.Equal(t, [][2]any{{1, "M"}}, pairsOf(res.Chain))
		}
	}
}

package shared

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/org"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/policy"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/api"
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validator collects field issues so a request reports all of them at
// once as a single validation_error.
type Validator struct {
	issues []ValidationIssue
}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Add(field, reason string) {
	if v == nil || strings.TrimSpace(reason) == "" {
		return
	}
	v.issues = append(v.issues, ValidationIssue{Field: strings.TrimSpace(field), Reason: reason})
}

// Period parses an appraisal period. Both ends are inclusive dates and the
// end may equal the start.
func (v *Validator) Period(startField, startRaw, endField, endRaw string) (time.Time, time.Time) {
	start := v.date(startField, startRaw)
	end := v.date(endField, endRaw)
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		v.Add(startField, "must be on or before "+endField)
		v.Add(endField, "must be on or after "+startField)
	}
	return start, end
}

func (v *Validator) date(field, raw string) time.Time {
	parsed, err := ParseDate(strings.TrimSpace(raw))
	if err != nil || parsed.IsZero() {
		v.Add(field, "must be a valid date in YYYY-MM-DD format")
		return time.Time{}
	}
	return parsed
}

// Level parses an approval level from a path segment.
func (v *Validator) Level(field, raw string) int {
	level, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		v.Add(field, "must be a number")
		return 0
	}
	v.levelRange(field, level)
	return level
}

func (v *Validator) levelRange(field string, n int) {
	if n < policy.MinLevels || n > policy.MaxLevels {
		v.Add(field, "must be between "+strconv.Itoa(policy.MinLevels)+" and "+strconv.Itoa(policy.MaxLevels))
	}
}

// TypeCaps flags unknown employee types and caps outside the level range.
func (v *Validator) TypeCaps(field string, caps map[org.EmployeeType]int) {
	for t, n := range caps {
		if !t.Known() {
			v.Add(field, "unknown employee type "+string(t))
			continue
		}
		v.levelRange(field+"."+string(t), n)
	}
}

func (v *Validator) HasIssues() bool {
	return v != nil && len(v.issues) > 0
}

// Issues returns the collected issues ordered by field, then reason.
func (v *Validator) Issues() []ValidationIssue {
	if !v.HasIssues() {
		return nil
	}
	out := append([]ValidationIssue(nil), v.issues...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Field == out[j].Field {
			return out[i].Reason < out[j].Reason
		}
		return out[i].Field < out[j].Field
	})
	return out
}

// Reject writes the validation error and reports whether it did.
func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed",
		map[string]any{"fields": v.Issues()}, requestID)
	return true
}

package shared

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/org"
	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/transport/http/api"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-06-30")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDate("2026-06-30T15:04:05Z")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDate("30/06/2026")
	require.Error(t, err)
}

func TestValidatorCollectsSortedIssues(t *testing.T) {
	v := NewValidator()
	start, end := v.Period("periodStart", "2026-07-01", "periodEnd", "2026-01-01")
	require.False(t, start.IsZero())
	require.False(t, end.IsZero())
	require.Equal(t, 7, v.Level("level", "7"))

	issues := v.Issues()
	require.Len(t, issues, 3)
	require.Equal(t, "level", issues[0].Field)
	require.Equal(t, "periodEnd", issues[1].Field)

	rec := httptest.NewRecorder()
	require.True(t, v.Reject(rec, "req-1"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var env api.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, "validation_error", env.Error.Code)
}

func TestValidatorDomainRules(t *testing.T) {
	v := NewValidator()
	start, end := v.Period("periodStart", "2026-01-01", "periodEnd", "2026-01-01")
	require.Equal(t, start, end)
	require.Equal(t, 3, v.Level("level", " 3 "))
	require.False(t, v.HasIssues())

	start, _ = v.Period("periodStart", "01/01/2026", "periodEnd", "2026-06-30")
	require.True(t, start.IsZero())
	v.Level("level", "two")
	v.TypeCaps("typeCaps", map[org.EmployeeType]int{
		org.TypeManager:   2,
		org.TypeExecutive: 9,
		"astronaut":       1,
	})

	fields := map[string]bool{}
	for _, issue := range v.Issues() {
		fields[issue.Field] = true
	}
	require.Equal(t, map[string]bool{
		"periodStart":        true,
		"level":              true,
		"typeCaps":           true,
		"typeCaps.executive": true,
	}, fields)
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ok"}`))
	require.True(t, DecodeJSON(rec, req, &dst, ""))
	require.Equal(t, "ok", dst.Name)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"other":1}`))
	require.False(t, DecodeJSON(rec, req, &dst, ""))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("x", 2048)+`"}`))
	req.Body = http.MaxBytesReader(rec, req.Body, 64)
	require.False(t, DecodeJSON(rec, req, &dst, ""))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&offset=20", nil)
	page := ParsePagination(req, 20, 100)
	require.Equal(t, Pagination{Limit: 100, Offset: 20}, page)
}

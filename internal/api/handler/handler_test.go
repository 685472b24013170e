package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/catalog"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/dto"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/planner"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/service"
	pkgerrors "github.com/nathan-omana/SFU-INSIGHT-sub000/pkg/errors"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock CatalogService ──

type mockCatalogService struct {
	depts       []catalog.Department
	sections    *dto.CourseSectionsResponse
	err         error
	gotDept     string
	gotNumber   string
	gotTermYear string
}

func (m *mockCatalogService) ListDepartments(_ context.Context, q *dto.TermQuery) ([]catalog.Department, error) {
	m.gotTermYear = q.Year
	return m.depts, m.err
}
func (m *mockCatalogService) ListCourses(_ context.Context, _ *dto.TermQuery, dept string) ([]catalog.Course, error) {
	m.gotDept = dept
	return []catalog.Course{}, m.err
}
func (m *mockCatalogService) ListSections(_ context.Context, _ *dto.TermQuery, dept, number string) (*dto.CourseSectionsResponse, error) {
	m.gotDept, m.gotNumber = dept, number
	return m.sections, m.err
}

// ── Mock PlannerService ──

type mockPlannerService struct {
	session   *dto.SessionResponse
	selection *dto.SelectionResponse
	action    *dto.ActionResponse
	assoc     *dto.AssociatedResponse
	pairs     []dto.ConflictPairResponse
	err       error

	gotLabel   string
	gotCourse  string
	gotConfirm bool
}

func (m *mockPlannerService) CreateSession(context.Context) (*dto.SessionResponse, error) {
	return m.session, m.err
}
func (m *mockPlannerService) GetSession(context.Context, string) (*dto.SessionResponse, error) {
	return m.session, m.err
}
func (m *mockPlannerService) SelectCourse(context.Context, string, *dto.SelectCourseRequest) (*dto.SelectionResponse, error) {
	return m.selection, m.err
}
func (m *mockPlannerService) AssociatedSections(context.Context, string) (*dto.AssociatedResponse, error) {
	return m.assoc, m.err
}
func (m *mockPlannerService) AddSection(_ context.Context, _ string, label string) (*dto.ActionResponse, error) {
	m.gotLabel = label
	return m.action, m.err
}
func (m *mockPlannerService) RemoveSection(_ context.Context, _ string, course, label string) (*dto.ActionResponse, error) {
	m.gotCourse, m.gotLabel = course, label
	return m.action, m.err
}
func (m *mockPlannerService) ClearSchedule(_ context.Context, _ string, confirm bool) (*dto.ActionResponse, error) {
	m.gotConfirm = confirm
	return m.action, m.err
}
func (m *mockPlannerService) ValidateSchedule(context.Context, string) ([]dto.ConflictPairResponse, error) {
	return m.pairs, m.err
}

// ── Mock SavedScheduleService ──

type mockSavedScheduleService struct {
	saveResult *dto.SaveScheduleResponse
	loadResult *dto.LoadScheduleResponse
	err        error
	gotUserID  string
}

func (m *mockSavedScheduleService) Save(_ context.Context, userID, _ string, _ *dto.SaveScheduleRequest) (*dto.SaveScheduleResponse, error) {
	m.gotUserID = userID
	return m.saveResult, m.err
}
func (m *mockSavedScheduleService) Load(_ context.Context, userID, _ string, _ *dto.LoadScheduleRequest) (*dto.LoadScheduleResponse, error) {
	m.gotUserID = userID
	return m.loadResult, m.err
}
func (m *mockSavedScheduleService) List(_ context.Context, userID string) ([]dto.SavedScheduleSummary, error) {
	m.gotUserID = userID
	return []dto.SavedScheduleSummary{}, m.err
}
func (m *mockSavedScheduleService) Delete(_ context.Context, userID string, _ *dto.TermQuery) error {
	m.gotUserID = userID
	return m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	file  *service.ExportFile
	share *dto.ShareResponse
	err   error
}

func (m *mockExportService) ExportICS(context.Context, string) (*service.ExportFile, error) {
	return m.file, m.err
}
func (m *mockExportService) ExportExcel(context.Context, string) (*service.ExportFile, error) {
	return m.file, m.err
}
func (m *mockExportService) Share(context.Context, string, string) (*dto.ShareResponse, error) {
	return m.share, m.err
}

// ═══════════════════════════════════════════════════════════
// 测试辅助
// ═══════════════════════════════════════════════════════════

type testMocks struct {
	catalog *mockCatalogService
	planner *mockPlannerService
	saved   *mockSavedScheduleService
	export  *mockExportService
}

// setupRouter 组装路由；withUser 非空时模拟 JWT 中间件注入 user_id
func setupRouter(withUser string) (*gin.Engine, *testMocks) {
	m := &testMocks{
		catalog: &mockCatalogService{},
		planner: &mockPlannerService{},
		saved:   &mockSavedScheduleService{},
		export:  &mockExportService{},
	}
	h := NewHandler(&service.Service{
		Catalog:       m.catalog,
		Planner:       m.planner,
		SavedSchedule: m.saved,
		Export:        m.export,
	})

	r := gin.New()
	r.GET("/catalog/departments", h.Catalog.ListDepartments)
	r.GET("/catalog/departments/:dept/courses", h.Catalog.ListCourses)
	r.GET("/catalog/departments/:dept/courses/:number/sections", h.Catalog.ListSections)

	r.POST("/sessions", h.Planner.CreateSession)
	r.GET("/sessions/:id", h.Planner.GetSession)
	r.PUT("/sessions/:id/selection", h.Planner.SelectCourse)
	r.POST("/sessions/:id/entries", h.Planner.AddEntry)
	r.DELETE("/sessions/:id/entries", h.Planner.RemoveEntry)
	r.POST("/sessions/:id/clear", h.Planner.ClearSchedule)
	r.GET("/sessions/:id/export", h.Export.Export)
	r.POST("/sessions/:id/share", h.Export.Share)

	authed := r.Group("")
	authed.Use(func(c *gin.Context) {
		if withUser != "" {
			c.Set("user_id", withUser)
		}
		c.Next()
	})
	authed.POST("/sessions/:id/save", h.SavedSchedule.Save)
	authed.POST("/sessions/:id/load", h.SavedSchedule.Load)
	authed.DELETE("/saved-schedules", h.SavedSchedule.Delete)
	return r, m
}

func doRequest(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应不是合法 JSON: %v (%s)", err, w.Body.String())
	}
	return resp
}

// ═══════════════════════════════════════════════════════════
// CatalogHandler
// ═══════════════════════════════════════════════════════════

func TestCatalogHandler_ListDepartments(t *testing.T) {
	r, m := setupRouter("")
	m.catalog.depts = []catalog.Department{{Code: "CMPT", Name: "Computing Science"}}

	w := doRequest(r, http.MethodGet, "/catalog/departments?year=2025&term=fall", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if m.catalog.gotTermYear != "2025" {
		t.Errorf("期望 year=2025，实际 %s", m.catalog.gotTermYear)
	}
}

func TestCatalogHandler_Validation(t *testing.T) {
	r, _ := setupRouter("")

	tests := []struct {
		name string
		path string
	}{
		{"缺少学期", "/catalog/departments?year=2025"},
		{"学期非法", "/catalog/departments?year=2025&term=winter"},
		{"年份非法", "/catalog/departments?year=25&term=fall"},
		{"院系代码非法", "/catalog/departments/CM-PT/courses?year=2025&term=fall"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodGet, tt.path, nil)
			if w.Code != http.StatusBadRequest {
				t.Errorf("期望 400，实际 %d", w.Code)
			}
		})
	}
}

func TestCatalogHandler_FetchFailure(t *testing.T) {
	r, m := setupRouter("")
	m.catalog.err = fmt.Errorf("%w: status 503", catalog.ErrCatalogFetch)

	w := doRequest(r, http.MethodGet, "/catalog/departments/CMPT/courses/120/sections?year=2025&term=fall", nil)
	if w.Code != http.StatusBadGateway {
		t.Errorf("期望 502，实际 %d", w.Code)
	}
	if m.catalog.gotDept != "CMPT" || m.catalog.gotNumber != "120" {
		t.Errorf("路径参数未传递: %s %s", m.catalog.gotDept, m.catalog.gotNumber)
	}
	if resp := decode(t, w); resp.Code != 20102 {
		t.Errorf("期望业务码 20102，实际 %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// PlannerHandler
// ═══════════════════════════════════════════════════════════

func TestPlannerHandler_CreateSession(t *testing.T) {
	r, m := setupRouter("")
	m.planner.session = &dto.SessionResponse{ID: "sess-1"}

	w := doRequest(r, http.MethodPost, "/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Errorf("期望 201，实际 %d", w.Code)
	}
}

func TestPlannerHandler_SessionNotFound(t *testing.T) {
	r, m := setupRouter("")
	m.planner.err = service.ErrSessionNotFound

	w := doRequest(r, http.MethodGet, "/sessions/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际 %d", w.Code)
	}
}

func TestPlannerHandler_AddEntry_Added(t *testing.T) {
	r, m := setupRouter("")
	m.planner.action = &dto.ActionResponse{Outcome: planner.OutcomeAdded, Credits: 3}

	w := doRequest(r, http.MethodPost, "/sessions/sess-1/entries", dto.AddEntryRequest{Label: "D100"})
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if m.planner.gotLabel != "D100" {
		t.Errorf("期望 label=D100，实际 %s", m.planner.gotLabel)
	}
}

func TestPlannerHandler_AddEntry_ConflictReturns409WithDetails(t *testing.T) {
	r, m := setupRouter("")
	m.planner.action = &dto.ActionResponse{
		Outcome: planner.OutcomeRejected,
		Reason:  "与 CMPT 120 D100 时间冲突",
		Conflict: &dto.ConflictResponse{
			CourseCode: "CMPT 120", SectionLabel: "D100", Component: planner.ComponentLecture,
		},
	}
	m.planner.err = &planner.ConflictError{CourseCode: "CMPT 120", SectionLabel: "D100"}

	w := doRequest(r, http.MethodPost, "/sessions/sess-1/entries", dto.AddEntryRequest{Label: "D100"})
	if w.Code != http.StatusConflict {
		t.Fatalf("期望 409，实际 %d", w.Code)
	}
	resp := decode(t, w)
	if resp.Code != 20206 || resp.Message != "与 CMPT 120 D100 时间冲突" {
		t.Errorf("期望业务码 20206 与冲突原因，实际 %d %s", resp.Code, resp.Message)
	}
	if !strings.Contains(w.Body.String(), `"course_code":"CMPT 120"`) {
		t.Errorf("响应应携带冲突对象: %s", w.Body.String())
	}
}

func TestPlannerHandler_AddEntry_Duplicate(t *testing.T) {
	r, m := setupRouter("")
	m.planner.action = &dto.ActionResponse{Outcome: planner.OutcomeRejected, Reason: "CMPT 120 D100 已在课表中"}
	m.planner.err = &planner.DuplicateError{CourseCode: "CMPT 120", SectionLabel: "D100"}

	w := doRequest(r, http.MethodPost, "/sessions/sess-1/entries", dto.AddEntryRequest{Label: "D100"})
	if resp := decode(t, w); w.Code != http.StatusConflict || resp.Code != 20207 {
		t.Errorf("期望 409/20207，实际 %d/%d", w.Code, resp.Code)
	}
}

func TestPlannerHandler_AddEntry_InvalidLabel(t *testing.T) {
	r, _ := setupRouter("")

	w := doRequest(r, http.MethodPost, "/sessions/sess-1/entries", map[string]string{"label": "D1 00"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
}

func TestPlannerHandler_SelectCourse_Stale(t *testing.T) {
	r, m := setupRouter("")
	m.planner.err = service.ErrStaleSelection

	w := doRequest(r, http.MethodPut, "/sessions/sess-1/selection", dto.SelectCourseRequest{
		TermQuery: dto.TermQuery{Year: "2025", Term: "fall"}, Dept: "CMPT", Number: "120",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("期望 409，实际 %d", w.Code)
	}
}

func TestPlannerHandler_RemoveEntry(t *testing.T) {
	r, m := setupRouter("")
	m.planner.action = &dto.ActionResponse{Outcome: planner.OutcomeNotFound}

	w := doRequest(r, http.MethodDelete, "/sessions/sess-1/entries?course=CMPT%20120&label=D999", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("删除不存在条目应 200，实际 %d", w.Code)
	}
	if m.planner.gotCourse != "CMPT 120" || m.planner.gotLabel != "D999" {
		t.Errorf("查询参数未传递: %s %s", m.planner.gotCourse, m.planner.gotLabel)
	}
}

func TestPlannerHandler_ClearRequiresConfirm(t *testing.T) {
	r, m := setupRouter("")
	m.planner.err = service.ErrClearNotConfirmed

	w := doRequest(r, http.MethodPost, "/sessions/sess-1/clear", dto.ClearScheduleRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
	if m.planner.gotConfirm {
		t.Error("未确认时 confirm 应为 false")
	}
}

// ═══════════════════════════════════════════════════════════
// SavedScheduleHandler
// ═══════════════════════════════════════════════════════════

func TestSavedScheduleHandler_RequiresUser(t *testing.T) {
	r, _ := setupRouter("")

	w := doRequest(r, http.MethodPost, "/sessions/sess-1/save", dto.SaveScheduleRequest{
		TermQuery: dto.TermQuery{Year: "2025", Term: "fall"},
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际 %d", w.Code)
	}
}

func TestSavedScheduleHandler_Save(t *testing.T) {
	r, m := setupRouter("user-1")
	m.saved.saveResult = &dto.SaveScheduleResponse{ID: "s-1", Version: 1}

	w := doRequest(r, http.MethodPost, "/sessions/sess-1/save", dto.SaveScheduleRequest{
		TermQuery: dto.TermQuery{Year: "2025", Term: "fall"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if m.saved.gotUserID != "user-1" {
		t.Errorf("期望 user-1，实际 %s", m.saved.gotUserID)
	}
}

func TestSavedScheduleHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"版本冲突", pkgerrors.ErrOptimisticLock, http.StatusConflict},
		{"存档不存在", service.ErrSavedScheduleNotFound, http.StatusNotFound},
		{"会话不存在", service.ErrSessionNotFound, http.StatusNotFound},
		{"未知错误", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, m := setupRouter("user-1")
			m.saved.err = tt.err
			w := doRequest(r, http.MethodPost, "/sessions/sess-1/load", dto.LoadScheduleRequest{
				TermQuery: dto.TermQuery{Year: "2025", Term: "fall"},
			})
			if w.Code != tt.status {
				t.Errorf("期望 %d，实际 %d", tt.status, w.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler
// ═══════════════════════════════════════════════════════════

func TestExportHandler_Export(t *testing.T) {
	r, m := setupRouter("")
	m.export.file = &service.ExportFile{
		Data:        bytes.NewBufferString("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"),
		FileName:    "schedule_20250901.ics",
		ContentType: "text/calendar; charset=utf-8",
	}

	w := doRequest(r, http.MethodGet, "/sessions/sess-1/export?format=ics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("期望 text/calendar，实际 %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "schedule_20250901.ics") {
		t.Errorf("Content-Disposition 错误: %s", cd)
	}
}

func TestExportHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		method string
		err    error
		status int
	}{
		{"格式非法", "/sessions/sess-1/export?format=pdf", http.MethodGet, nil, http.StatusBadRequest},
		{"课表为空", "/sessions/sess-1/export?format=xlsx", http.MethodGet, service.ErrExportEmpty, http.StatusBadRequest},
		{"存储未启用", "/sessions/sess-1/share?format=ics", http.MethodPost, service.ErrStorageDisabled, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, m := setupRouter("")
			m.export.err = tt.err
			w := doRequest(r, tt.method, tt.path, nil)
			if w.Code != tt.status {
				t.Errorf("期望 %d，实际 %d", tt.status, w.Code)
			}
		})
	}
}

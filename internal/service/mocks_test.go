package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/catalog"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/dto"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/model"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/planner"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/repository"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/storage"
	pkgerrors "github.com/nathan-omana/SFU-INSIGHT-sub000/pkg/errors"
)

// ── 测试数据 ──

func block(days string, start, end string) planner.MeetingBlock {
	return planner.MeetingBlock{Days: planner.ParseDays(days), StartTime: start, EndTime: end, Building: "AQ", Room: "3150"}
}

func section(code, label string, comp planner.ComponentType, blocks ...planner.MeetingBlock) planner.SectionRecord {
	return planner.SectionRecord{
		CourseCode:   code,
		Title:        code + " title",
		SectionLabel: label,
		Component:    comp,
		CreditUnits:  3,
		Blocks:       blocks,
	}
}

// cmpt120 讲座 D100（周一三 10:30-12:20），两个实验 D101/D102
func cmpt120() *catalog.CourseSections {
	return &catalog.CourseSections{
		Dept: "CMPT", Number: "120", CourseCode: "CMPT 120",
		Sections: []planner.SectionRecord{
			section("CMPT 120", "D100", planner.ComponentLecture, block("Mo,We", "10:30", "12:20")),
			section("CMPT 120", "D101", planner.ComponentLab, block("Fr", "09:30", "10:20")),
			section("CMPT 120", "D102", planner.ComponentLab, block("Fr", "10:30", "11:20")),
		},
	}
}

// math151 讲座 D100 与 CMPT 120 D100 重叠（周一 11:30）
func math151() *catalog.CourseSections {
	return &catalog.CourseSections{
		Dept: "MATH", Number: "151", CourseCode: "MATH 151",
		Sections: []planner.SectionRecord{
			section("MATH 151", "D100", planner.ComponentLecture, block("Mo", "11:30", "12:20")),
			section("MATH 151", "D200", planner.ComponentLecture, block("Tu,Th", "14:30", "16:20")),
		},
	}
}

// ── Mock CourseLoader ──

type mockLoader struct {
	mu      sync.Mutex
	courses map[string]*catalog.CourseSections
	fail    error
	// gates 非 nil 时 LoadCourse 先通知 started 再等待放行
	gates   map[string]chan struct{}
	started chan string
	calls   int
}

func newMockLoader(courses ...*catalog.CourseSections) *mockLoader {
	m := &mockLoader{courses: make(map[string]*catalog.CourseSections)}
	for _, c := range courses {
		m.courses[c.Dept+" "+c.Number] = c
	}
	return m
}

func (m *mockLoader) LoadCourse(_ context.Context, term catalog.Term, dept, number string) (*catalog.CourseSections, error) {
	key := strings.ToUpper(dept) + " " + number

	m.mu.Lock()
	m.calls++
	gate := m.gates[key]
	fail := m.fail
	c, ok := m.courses[key]
	m.mu.Unlock()

	if gate != nil {
		m.started <- key
		<-gate
	}
	if fail != nil {
		return nil, fail
	}
	if !ok {
		return nil, catalog.ErrCatalogFetch
	}
	out := *c
	out.Term = term
	return &out, nil
}

// ── Mock catalog.Client ──

type mockCatalogClient struct {
	depts []catalog.Department
	err   error
}

func (m *mockCatalogClient) ListDepartments(context.Context, catalog.Term) ([]catalog.Department, error) {
	return m.depts, m.err
}

func (m *mockCatalogClient) ListCourses(context.Context, catalog.Term, string) ([]catalog.Course, error) {
	return nil, m.err
}

func (m *mockCatalogClient) ListSections(context.Context, catalog.Term, string, string) ([]catalog.SectionSummary, error) {
	return nil, m.err
}

func (m *mockCatalogClient) GetSectionDetails(context.Context, catalog.Term, string, string, string) (*catalog.SectionDetails, error) {
	return nil, m.err
}

// ── Mock SavedScheduleRepository ──

type mockSavedScheduleRepo struct {
	mu      sync.Mutex
	records map[string]*model.SavedSchedule
}

func newMockSavedScheduleRepo() *mockSavedScheduleRepo {
	return &mockSavedScheduleRepo{records: make(map[string]*model.SavedSchedule)}
}

func savedKey(userID, termKey string) string { return userID + "|" + termKey }

func (m *mockSavedScheduleRepo) GetByUserAndTerm(_ context.Context, userID, termKey string) (*model.SavedSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[savedKey(userID, termKey)]
	if !ok {
		return nil, pkgerrors.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockSavedScheduleRepo) ListByUser(_ context.Context, userID string) ([]model.SavedSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.SavedSchedule
	for _, r := range m.records {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockSavedScheduleRepo) Create(_ context.Context, s *model.SavedSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = "saved-" + s.TermKey
	s.Version = 1
	s.UpdatedAt = time.Now()
	cp := *s
	m.records[savedKey(s.UserID, s.TermKey)] = &cp
	return nil
}

func (m *mockSavedScheduleRepo) Update(_ context.Context, s *model.SavedSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.records[savedKey(s.UserID, s.TermKey)]
	if !ok || cur.Version != s.Version {
		return pkgerrors.ErrOptimisticLock
	}
	s.Version++
	cp := *s
	m.records[savedKey(s.UserID, s.TermKey)] = &cp
	return nil
}

func (m *mockSavedScheduleRepo) DeleteByUserAndTerm(_ context.Context, userID, termKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[savedKey(userID, termKey)]; !ok {
		return pkgerrors.ErrRecordNotFound
	}
	delete(m.records, savedKey(userID, termKey))
	return nil
}

// ── Mock ObjectStore ──

type mockObjectStore struct {
	keys  []string
	types []string
}

func (m *mockObjectStore) Share(_ context.Context, key string, data []byte, contentType string) (*storage.SharedObject, error) {
	m.keys = append(m.keys, key)
	m.types = append(m.types, contentType)
	return &storage.SharedObject{
		Key:       key,
		URL:       "https://minio.local/planner/" + key + "?sig=x",
		FileName:  key[strings.LastIndex(key, "/")+1:],
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

// ── 组装 ──

type testEnv struct {
	store   *SessionStore
	loader  *mockLoader
	repo    *mockSavedScheduleRepo
	objects *mockObjectStore
	svc     *Service
}

func setupTestEnv(courses ...*catalog.CourseSections) *testEnv {
	logger := zap.NewNop()
	env := &testEnv{
		store:   NewSessionStore(planner.DefaultPalette, logger),
		loader:  newMockLoader(courses...),
		repo:    newMockSavedScheduleRepo(),
		objects: &mockObjectStore{},
	}
	env.svc = NewService(Deps{
		Repo:    &repository.Repository{SavedSchedule: env.repo},
		Catalog: &mockCatalogClient{},
		Loader:  env.loader,
		Store:   env.store,
		Objects: env.objects,
		Planner: PlannerOptions{Geometry: planner.DefaultGridGeometry(), NoticeTTL: 5 * time.Second},
	}, logger)
	return env
}

func fallTerm() dto.TermQuery { return dto.TermQuery{Year: "2025", Term: "fall"} }

// newSessionWith 创建会话并选中课程
func (e *testEnv) newSessionWith(t testing.TB, dept, number string) string {
	t.Helper()
	sess, err := e.svc.Planner.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("创建会话失败: %v", err)
	}
	_, err = e.svc.Planner.SelectCourse(context.Background(), sess.ID, &dto.SelectCourseRequest{
		TermQuery: fallTerm(), Dept: dept, Number: number,
	})
	if err != nil {
		t.Fatalf("选择课程失败: %v", err)
	}
	return sess.ID
}

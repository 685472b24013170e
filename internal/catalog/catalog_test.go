package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/planner"
)

// ── 测试辅助 ──

var fall2025 = Term{Year: 2025, Season: SeasonFall}

// newCatalogServer 模拟 course-outlines API，按查询串返回固定响应
func newCatalogServer(t *testing.T, routes map[string]string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		body, ok := routes[r.URL.RawQuery]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

const cmpt225Sections = `[
	{"text":"D100","value":"d100","title":"Data Structures","classType":"e","sectionCode":"LEC","associatedClass":"1"},
	{"text":"D101","value":"d101","title":"Data Structures","classType":"n","sectionCode":"LAB","associatedClass":"1"},
	{"text":"D102","value":"d102","title":"Data Structures","classType":"n","sectionCode":"LAB","associatedClass":"1"}
]`

const cmpt225D100 = `{
	"info":{"title":"Data  Structures and Programming","units":"3"},
	"instructor":[{"name":"JANE DOE","roleCode":"PI"}],
	"courseSchedule":[
		{"days":"Mo, We","startTime":"10:30","endTime":"11:20","campus":"Burnaby","buildingCode":"AQ","roomNumber":"3150","sectionCode":"LEC","isExam":false},
		{"days":"Fr","startTime":"10:30","endTime":"11:20","campus":"Burnaby","buildingCode":"AQ","roomNumber":3150,"sectionCode":"LEC"},
		{"startDate":"Dec 10, 2025","startTime":"12:00","endTime":"15:00","isExam":true,"days":"We"},
		{"days":"","startTime":"","endTime":""}
	]
}`

const cmpt225D101 = `{
	"info":{"title":"Data Structures and Programming","units":null},
	"instructor":[],
	"courseSchedule":[{"days":"Tu","startTime":"2:30pm","endTime":"3:20pm","buildingCode":"SECB","roomNumber":"1010"}]
}`

func newTestHTTPClient(srv *httptest.Server) *HTTPClient {
	return NewHTTPClient(HTTPClientOptions{BaseURL: srv.URL + "/", Timeout: 2 * time.Second}, zap.NewNop())
}

// ── HTTPClient ──

func TestHTTPClient_ListDepartments(t *testing.T) {
	srv, _ := newCatalogServer(t, map[string]string{
		"2025/fall": `[{"text":"MATH","value":"math","name":"Mathematics"},{"text":"cmpt","value":"cmpt","name":"COMPUTING SCIENCE"},{"value":"math"}]`,
	})
	depts, err := newTestHTTPClient(srv).ListDepartments(context.Background(), fall2025)
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	if len(depts) != 2 {
		t.Fatalf("期望去重后 2 个院系，实际 %d", len(depts))
	}
	if depts[0].Code != "CMPT" || depts[0].Name != "Computing Science" {
		t.Errorf("期望 CMPT / Computing Science，实际 %+v", depts[0])
	}
}

func TestHTTPClient_GetSectionDetailsNormalizes(t *testing.T) {
	srv, _ := newCatalogServer(t, map[string]string{
		"2025/fall/cmpt/225/d100": cmpt225D100,
		"2025/fall/cmpt/225/d101": cmpt225D101,
	})
	c := newTestHTTPClient(srv)

	d, err := c.GetSectionDetails(context.Background(), fall2025, "CMPT", "225", "D100")
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	if d.Title != "Data Structures and Programming" {
		t.Errorf("标题空白未合并：%q", d.Title)
	}
	if d.Instructor != "Jane Doe" || d.CreditUnits != 3 {
		t.Errorf("讲师或学分错误：%q / %d", d.Instructor, d.CreditUnits)
	}
	if len(d.Blocks) != 2 {
		t.Fatalf("考试与空时间块应丢弃，期望 2 个，实际 %d", len(d.Blocks))
	}
	if d.Blocks[1].Room != "3150" {
		t.Errorf("数字教室号应转为字符串，实际 %q", d.Blocks[1].Room)
	}
	if got := d.Blocks[0].Days; len(got) != 2 || got[0] != planner.Monday || got[1] != planner.Wednesday {
		t.Errorf("星期解析错误：%v", got)
	}

	d, err = c.GetSectionDetails(context.Background(), fall2025, "cmpt", "225", "d101")
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	if d.CreditUnits != 0 {
		t.Errorf("学分缺失应为 0，实际 %d", d.CreditUnits)
	}
}

func TestHTTPClient_FetchError(t *testing.T) {
	srv, _ := newCatalogServer(t, map[string]string{
		"2025/fall/bad": `{not json`,
	})
	c := newTestHTTPClient(srv)

	if _, err := c.ListCourses(context.Background(), fall2025, "nope"); !errors.Is(err, ErrCatalogFetch) {
		t.Errorf("404 期望 ErrCatalogFetch，实际 %v", err)
	}
	if _, err := c.ListCourses(context.Background(), fall2025, "bad"); !errors.Is(err, ErrCatalogFetch) {
		t.Errorf("非法 JSON 期望 ErrCatalogFetch，实际 %v", err)
	}
}

// ── Loader ──

func TestLoader_ConcurrentDetailsWithPartialFallback(t *testing.T) {
	srv, _ := newCatalogServer(t, map[string]string{
		"2025/fall/cmpt/225":      cmpt225Sections,
		"2025/fall/cmpt/225/d100": cmpt225D100,
		"2025/fall/cmpt/225/d101": cmpt225D101,
		// d102 详情缺失 → 404
	})
	loader := NewLoader(newTestHTTPClient(srv), planner.NewClassifier(planner.DefaultClassifierOptions(), nil), 2, zap.NewNop())

	course, err := loader.LoadCourse(context.Background(), fall2025, "cmpt", "225")
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if course.CourseCode != "CMPT 225" || len(course.Sections) != 3 {
		t.Fatalf("期望 CMPT 225 共 3 个教学班，实际 %s / %d", course.CourseCode, len(course.Sections))
	}
	// 顺序与列表一致
	for i, want := range []string{"D100", "D101", "D102"} {
		if course.Sections[i].SectionLabel != want {
			t.Errorf("第 %d 项期望 %s，实际 %s", i, want, course.Sections[i].SectionLabel)
		}
	}
	if course.Sections[0].Component != planner.ComponentLecture || course.Sections[1].Component != planner.ComponentLab {
		t.Errorf("分类错误：%s / %s", course.Sections[0].Component, course.Sections[1].Component)
	}
	if course.PartialCount != 1 || !course.Sections[2].Partial {
		t.Errorf("D102 应为 Partial，实际 count=%d", course.PartialCount)
	}
	if len(course.Sections[2].Blocks) != 0 {
		t.Errorf("Partial 教学班不应有时间块")
	}
	if len(course.Lectures()) != 1 || len(course.Others()) != 2 {
		t.Errorf("讲座/非讲座划分错误")
	}
	if _, ok := course.Find("d101"); !ok {
		t.Errorf("Find 应大小写不敏感")
	}
}

func TestLoader_ListFailure(t *testing.T) {
	srv, _ := newCatalogServer(t, map[string]string{})
	loader := NewLoader(newTestHTTPClient(srv), planner.NewClassifier(planner.DefaultClassifierOptions(), nil), 0, zap.NewNop())

	if _, err := loader.LoadCourse(context.Background(), fall2025, "cmpt", "999"); !errors.Is(err, ErrCatalogFetch) {
		t.Errorf("期望 ErrCatalogFetch，实际 %v", err)
	}
}

// ── CachedClient ──

type memRemote struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
}

func (m *memRemote) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memRemote) SetBytes(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func TestCachedClient(t *testing.T) {
	srv, hits := newCatalogServer(t, map[string]string{
		"2025/fall/cmpt": `[{"text":"225","title":"Data Structures"},{"text":"120","title":"Intro"}]`,
	})
	remote := &memRemote{data: map[string][]byte{}}
	c := NewCachedClient(newTestHTTPClient(srv), remote, time.Minute, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		courses, err := c.ListCourses(ctx, fall2025, "CMPT")
		if err != nil || len(courses) != 2 {
			t.Fatalf("第 %d 次请求失败: %v / %d", i, err, len(courses))
		}
	}
	if *hits != 1 {
		t.Errorf("本地缓存命中后不应回源，实际请求 %d 次", *hits)
	}
	if len(remote.data) != 1 {
		t.Errorf("应回填远端缓存，实际 %d 项", len(remote.data))
	}

	// 本地清空后由远端命中
	c.Flush()
	if _, err := c.ListCourses(ctx, fall2025, "cmpt"); err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	if *hits != 1 {
		t.Errorf("远端命中不应回源，实际请求 %d 次", *hits)
	}

	// 失败结果不缓存
	if _, err := c.ListCourses(ctx, fall2025, "none"); err == nil {
		t.Fatal("期望错误")
	}
	if _, err := c.ListCourses(ctx, fall2025, "none"); err == nil {
		t.Fatal("期望错误")
	}
	if *hits != 3 {
		t.Errorf("失败请求应每次回源，实际请求 %d 次", *hits)
	}
}

func TestParseTerm(t *testing.T) {
	term, err := ParseTerm("2025", "Fall")
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if term.Path() != "2025/fall" || term.Key() != "2025-fall" {
		t.Errorf("期望 2025/fall 与 2025-fall，实际 %s / %s", term.Path(), term.Key())
	}
	for _, bad := range [][2]string{{"abc", "fall"}, {"2025", "winter"}, {"", ""}} {
		if _, err := ParseTerm(bad[0], bad[1]); !errors.Is(err, ErrInvalidTerm) {
			t.Errorf("ParseTerm(%q, %q) 期望 ErrInvalidTerm，实际 %v", bad[0], bad[1], err)
		}
	}
}

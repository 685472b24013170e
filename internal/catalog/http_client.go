package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// HTTPClientOptions HTTP 目录客户端参数
type HTTPClientOptions struct {
	BaseURL   string // 如 https://www.sfu.ca/bin/wcm/course-outlines
	Timeout   time.Duration
	UserAgent string
}

// HTTPClient 通过 course-outlines 风格的 JSON API 访问课程目录。
// 路径以查询串形式拼接：{base}?{year}/{term}/{dept}/{number}/{section}
type HTTPClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logger    *zap.Logger
}

// NewHTTPClient 创建目录客户端
func NewHTTPClient(opts HTTPClientOptions, logger *zap.Logger) *HTTPClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL:   strings.TrimRight(opts.BaseURL, "/?"),
		userAgent: opts.UserAgent,
		http:      &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// ── 响应结构（字段均可能缺失或类型不一） ──

type rawDepartment struct {
	Text  flexString `json:"text"`
	Value flexString `json:"value"`
	Name  flexString `json:"name"`
}

type rawCourse struct {
	Text  flexString `json:"text"`
	Value flexString `json:"value"`
	Title flexString `json:"title"`
}

type rawSection struct {
	Text            flexString `json:"text"`
	Value           flexString `json:"value"`
	Title           flexString `json:"title"`
	ClassType       flexString `json:"classType"`
	SectionCode     flexString `json:"sectionCode"`
	AssociatedClass flexString `json:"associatedClass"`
}

type rawDetails struct {
	Info struct {
		Title       flexString `json:"title"`
		Units       flexString `json:"units"`
		Campus      flexString `json:"campus"`
		Type        flexString `json:"type"`
		ClassNumber flexString `json:"classNumber"`
	} `json:"info"`
	Instructor []struct {
		Name      flexString `json:"name"`
		FirstName flexString `json:"firstName"`
		LastName  flexString `json:"lastName"`
		RoleCode  flexString `json:"roleCode"`
	} `json:"instructor"`
	CourseSchedule []rawScheduleBlock `json:"courseSchedule"`
}

type rawScheduleBlock struct {
	Days         flexString `json:"days"`
	StartTime    flexString `json:"startTime"`
	EndTime      flexString `json:"endTime"`
	Campus       flexString `json:"campus"`
	BuildingCode flexString `json:"buildingCode"`
	RoomNumber   flexString `json:"roomNumber"`
	SectionCode  flexString `json:"sectionCode"`
	IsExam       flexBool   `json:"isExam"`
}

// ListDepartments 列出学期内的院系
func (c *HTTPClient) ListDepartments(ctx context.Context, term Term) ([]Department, error) {
	var raw []rawDepartment
	if err := c.get(ctx, &raw, term.Path()); err != nil {
		return nil, err
	}
	return normalizeDepartments(raw), nil
}

// ListCourses 列出院系课程
func (c *HTTPClient) ListCourses(ctx context.Context, term Term, dept string) ([]Course, error) {
	var raw []rawCourse
	if err := c.get(ctx, &raw, term.Path(), dept); err != nil {
		return nil, err
	}
	return normalizeCourses(raw), nil
}

// ListSections 列出课程的教学班
func (c *HTTPClient) ListSections(ctx context.Context, term Term, dept, number string) ([]SectionSummary, error) {
	var raw []rawSection
	if err := c.get(ctx, &raw, term.Path(), dept, number); err != nil {
		return nil, err
	}
	return normalizeSections(raw), nil
}

// GetSectionDetails 获取教学班详情
func (c *HTTPClient) GetSectionDetails(ctx context.Context, term Term, dept, number, label string) (*SectionDetails, error) {
	var raw rawDetails
	if err := c.get(ctx, &raw, term.Path(), dept, number, label); err != nil {
		return nil, err
	}
	return normalizeDetails(&raw), nil
}

func (c *HTTPClient) endpoint(parts ...string) string {
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		// Path 已含 "/"，逐段转义
		for _, s := range strings.Split(p, "/") {
			segs = append(segs, url.PathEscape(s))
		}
	}
	return c.baseURL + "?" + strings.Join(segs, "/")
}

func (c *HTTPClient) get(ctx context.Context, out interface{}, parts ...string) error {
	target := c.endpoint(parts...)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCatalogFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("目录请求失败", zap.String("url", target), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrCatalogFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: 读取响应失败: %v", ErrCatalogFetch, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("目录返回非 200",
			zap.String("url", target),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("%w: status %d", ErrCatalogFetch, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: 解析响应失败: %v", ErrCatalogFetch, err)
	}

	c.logger.Debug("目录请求完成",
		zap.String("url", target),
		zap.Duration("latency", time.Since(start)),
	)
	return nil
}

// ── 宽松类型 ──

// flexString 接受字符串、数字、布尔与 null
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	if data[0] == '{' || data[0] == '[' {
		*s = ""
		return nil
	}
	*s = flexString(data)
	return nil
}

func (s flexString) String() string { return strings.TrimSpace(string(s)) }

// flexBool 接受布尔、"true"/"false" 字符串与 null
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	v := strings.ToLower(strings.Trim(strings.TrimSpace(string(data)), `"`))
	*b = flexBool(v == "true" || v == "1" || v == "y")
	return nil
}

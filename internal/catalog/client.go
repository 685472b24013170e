// Package catalog 对接外部课程目录 API，并将松散的响应规范化为排课引擎使用的严格结构。
package catalog

import (
	"context"
	"errors"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/planner"
)

// ErrCatalogFetch 目录请求失败（网络、状态码或响应格式）
var ErrCatalogFetch = errors.New("课程目录获取失败")

// Department 院系
type Department struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Course 课程
type Course struct {
	Number string `json:"number"`
	Title  string `json:"title"`
}

// SectionSummary 教学班列表项（未含时间信息）
type SectionSummary struct {
	Label     string `json:"label"`
	Title     string `json:"title,omitempty"`
	RawType   string `json:"raw_type"`   // 声明类型，如 LEC / LAB / TUT
	ClassType string `json:"class_type"` // 选课标记，如 e / n
}

// SectionDetails 教学班详情（已规范化）
type SectionDetails struct {
	Title       string                 `json:"title"`
	Instructor  string                 `json:"instructor"`
	CreditUnits int                    `json:"credit_units"`
	Campus      string                 `json:"campus,omitempty"`
	Blocks      []planner.MeetingBlock `json:"blocks"`
}

// Client 课程目录客户端
type Client interface {
	ListDepartments(ctx context.Context, term Term) ([]Department, error)
	ListCourses(ctx context.Context, term Term, dept string) ([]Course, error)
	ListSections(ctx context.Context, term Term, dept, number string) ([]SectionSummary, error)
	GetSectionDetails(ctx context.Context, term Term, dept, number, label string) (*SectionDetails, error)
}

package dto

import "github.com/nathan-omana/SFU-INSIGHT-sub000/internal/planner"

// ── 课程目录 ──

// TermQuery 学期查询参数
type TermQuery struct {
	Year string `form:"year" json:"year" binding:"required,numeric,len=4"`
	Term string `form:"term" json:"term" binding:"required,oneof=spring summer fall Spring Summer Fall"`
}

// SectionResponse 教学班（含分类结果与时间块）
type SectionResponse struct {
	CourseCode   string                 `json:"course_code"`
	SectionLabel string                 `json:"section_label"`
	Component    planner.ComponentType  `json:"component"`
	Title        string                 `json:"title,omitempty"`
	Instructor   string                 `json:"instructor,omitempty"`
	CreditUnits  int                    `json:"credit_units"`
	Campus       string                 `json:"campus,omitempty"`
	Blocks       []planner.MeetingBlock `json:"blocks"`
	Partial      bool                   `json:"partial,omitempty"`
}

// NewSectionResponse SectionRecord → SectionResponse
func NewSectionResponse(r planner.SectionRecord) SectionResponse {
	blocks := r.Blocks
	if blocks == nil {
		blocks = []planner.MeetingBlock{}
	}
	return SectionResponse{
		CourseCode:   r.CourseCode,
		SectionLabel: r.SectionLabel,
		Component:    r.Component,
		Title:        r.Title,
		Instructor:   r.Instructor,
		CreditUnits:  r.Credits(),
		Campus:       r.Campus,
		Blocks:       blocks,
		Partial:      r.Partial,
	}
}

// NewSectionResponses 批量转换
func NewSectionResponses(records []planner.SectionRecord) []SectionResponse {
	out := make([]SectionResponse, 0, len(records))
	for _, r := range records {
		out = append(out, NewSectionResponse(r))
	}
	return out
}

// CourseSectionsResponse 一门课程的全部教学班（按讲座 / 其他分组）
type CourseSectionsResponse struct {
	Term         string            `json:"term"`
	CourseCode   string            `json:"course_code"`
	PartialCount int               `json:"partial_count"`
	Lectures     []SectionResponse `json:"lectures"`
	Others       []SectionResponse `json:"others"`
}

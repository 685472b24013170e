package dto

import (
	"time"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/planner"
)

// ── 排课会话请求 ──

// SelectCourseRequest 选择课程（加载其全部教学班）
type SelectCourseRequest struct {
	TermQuery
	Dept   string `json:"dept" binding:"required,alphanum,max=8"`
	Number string `json:"number" binding:"required,alphanum,max=8"`
}

// AddEntryRequest 将当前所选课程的某个教学班加入课表
type AddEntryRequest struct {
	Label string `json:"label" binding:"required,alphanum,max=8"`
}

// RemoveEntryQuery 删除条目
type RemoveEntryQuery struct {
	Course string `form:"course" binding:"required,max=16"`
	Label  string `form:"label" binding:"required,max=8"`
}

// ClearScheduleRequest 清空课表，必须显式确认
type ClearScheduleRequest struct {
	Confirm bool `json:"confirm"`
}

// ExportQuery 导出 / 分享格式
type ExportQuery struct {
	Format string `form:"format" binding:"required,oneof=ics xlsx"`
}

// ── 排课会话响应 ──

// EntryResponse 课表条目
type EntryResponse struct {
	SectionResponse
	Color string `json:"color"`
}

// NewEntryResponse ScheduleEntry → EntryResponse
func NewEntryResponse(e planner.ScheduleEntry) EntryResponse {
	return EntryResponse{SectionResponse: NewSectionResponse(e.Section), Color: e.Color}
}

// NoticeResponse 提示信息，过期后不再返回
type NoticeResponse struct {
	Kind      string    `json:"kind"` // conflict / duplicate / association / catalog
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SelectionResponse 当前课程选择
type SelectionResponse struct {
	Term         string            `json:"term"`
	CourseCode   string            `json:"course_code"`
	Generation   uint64            `json:"generation"`
	PartialCount int               `json:"partial_count"`
	Lectures     []SectionResponse `json:"lectures"`
	Others       []SectionResponse `json:"others"`
}

// SessionResponse 会话全貌：课表、学分、网格、提示
type SessionResponse struct {
	ID         string             `json:"id"`
	CreatedAt  time.Time          `json:"created_at"`
	Selection  *SelectionResponse `json:"selection,omitempty"`
	Entries    []EntryResponse    `json:"entries"`
	Credits    int                `json:"credits"`
	Grid       []planner.GridCell `json:"grid"`
	Notices    []NoticeResponse   `json:"notices"`
	LastActive time.Time          `json:"last_active"`
}

// ConflictResponse 冲突详情
type ConflictResponse struct {
	CourseCode     string                `json:"course_code"`
	SectionLabel   string                `json:"section_label"`
	Component      planner.ComponentType `json:"component"`
	ExistingBlock  planner.MeetingBlock  `json:"existing_block"`
	CandidateBlock planner.MeetingBlock  `json:"candidate_block"`
}

// ActionResponse 单次增删操作的结果
type ActionResponse struct {
	Outcome  planner.Outcome   `json:"outcome"`
	Entry    *EntryResponse    `json:"entry,omitempty"`
	Replaced *EntryResponse    `json:"replaced,omitempty"`
	Reason   string            `json:"reason,omitempty"`
	Conflict *ConflictResponse `json:"conflict,omitempty"`
	Credits  int               `json:"credits"`
	Notice   *NoticeResponse   `json:"notice,omitempty"`
}

// AssociatedResponse 关联教学班（实验/辅导）
type AssociatedResponse struct {
	Status   planner.AssociationStatus `json:"status"`
	Prefix   string                    `json:"prefix,omitempty"`
	Message  string                    `json:"message,omitempty"`
	Sections []SectionResponse         `json:"sections"`
}

// ConflictPairResponse 课表内的一处冲突
type ConflictPairResponse struct {
	First       EntryResponse        `json:"first"`
	Second      EntryResponse        `json:"second"`
	FirstBlock  planner.MeetingBlock `json:"first_block"`
	SecondBlock planner.MeetingBlock `json:"second_block"`
}

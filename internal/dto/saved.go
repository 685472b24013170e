package dto

import "time"

// ── 保存课表 ──

// SaveScheduleRequest 保存当前会话课表
type SaveScheduleRequest struct {
	TermQuery
	// Version 期望覆盖的版本；为空时覆盖最新版本
	Version *int `json:"version" binding:"omitempty,min=1"`
}

// LoadScheduleRequest 载入已保存课表到会话
type LoadScheduleRequest struct {
	TermQuery
}

// SaveScheduleResponse 保存结果
type SaveScheduleResponse struct {
	ID      string    `json:"id"`
	TermKey string    `json:"term_key"`
	Version int       `json:"version"`
	Entries int       `json:"entries"`
	Credits int       `json:"credits"`
	SavedAt time.Time `json:"saved_at"`
}

// DroppedEntryResponse 载入时因冲突或重复被丢弃的条目
type DroppedEntryResponse struct {
	CourseCode   string `json:"course_code"`
	SectionLabel string `json:"section_label"`
	Reason       string `json:"reason"`
}

// LoadScheduleResponse 载入结果
type LoadScheduleResponse struct {
	TermKey string                 `json:"term_key"`
	Version int                    `json:"version"`
	Loaded  int                    `json:"loaded"`
	Dropped []DroppedEntryResponse `json:"dropped"`
	Session *SessionResponse       `json:"session"`
}

// ── 导出 ──

// ShareResponse 导出分享链接
type ShareResponse struct {
	URL       string    `json:"url"`
	FileName  string    `json:"file_name"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SavedScheduleSummary 已保存课表列表项
type SavedScheduleSummary struct {
	ID        string    `json:"id"`
	TermKey   string    `json:"term_key"`
	Version   int       `json:"version"`
	Entries   int       `json:"entries"`
	Credits   int       `json:"credits"`
	UpdatedAt time.Time `json:"updated_at"`
}

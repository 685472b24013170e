package planner

import (
	"strings"
)

// ── 课程组件类型 ──

// ComponentType 教学组件类型：同一门课的同类组件在课表中互斥
type ComponentType string

const (
	ComponentLecture  ComponentType = "LECTURE"
	ComponentLab      ComponentType = "LAB"
	ComponentTutorial ComponentType = "TUTORIAL"
	ComponentSeminar  ComponentType = "SEMINAR"
)

// Valid 判断是否为已知组件类型
func (c ComponentType) Valid() bool {
	switch c {
	case ComponentLecture, ComponentLab, ComponentTutorial, ComponentSeminar:
		return true
	}
	return false
}

// DefaultCreditUnits 目录未给出学分时的默认值
const DefaultCreditUnits = 3

// MeetingBlock 一个每周重复的上课时间块（多天共享同一起止时间）
type MeetingBlock struct {
	Days      []Weekday `json:"days"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Room      string    `json:"room,omitempty"`
	Building  string    `json:"building,omitempty"`
	Campus    string    `json:"campus,omitempty"`
}

// StartMinutes 起始时间（自午夜起的分钟数，0 表示未知）
func (b MeetingBlock) StartMinutes() int { return TimeToMinutes(b.StartTime) }

// EndMinutes 结束时间（自午夜起的分钟数，0 表示未知）
func (b MeetingBlock) EndMinutes() int { return TimeToMinutes(b.EndTime) }

// HasTimes 起止时间均已知且 start < end
func (b MeetingBlock) HasTimes() bool {
	start, end := b.StartMinutes(), b.EndMinutes()
	return start > 0 && end > start
}

// Schedulable 可参与冲突比较与渲染：至少一天且起止时间有效
func (b MeetingBlock) Schedulable() bool {
	return len(b.Days) > 0 && b.HasTimes()
}

// Location 楼宇 + 教室
func (b MeetingBlock) Location() string {
	return strings.TrimSpace(strings.TrimSpace(b.Building) + " " + strings.TrimSpace(b.Room))
}

// SectionRecord 目录中的一个教学班（规范化后的严格结构，获取后不可变）
type SectionRecord struct {
	CourseCode   string         `json:"course_code"` // 如 "CMPT 225"
	Title        string         `json:"title,omitempty"`
	SectionLabel string         `json:"section_label"` // 如 "D100"
	Component    ComponentType  `json:"component"`
	RawType      string         `json:"raw_type,omitempty"`
	Instructor   string         `json:"instructor,omitempty"`
	CreditUnits  int            `json:"credit_units"`
	Campus       string         `json:"campus,omitempty"`
	Blocks       []MeetingBlock `json:"blocks"`
	// Partial 详情获取失败，仅含基础字段
	Partial bool `json:"partial,omitempty"`
}

// Credits 学分（缺省按 3 计）
func (r SectionRecord) Credits() int {
	if r.CreditUnits <= 0 {
		return DefaultCreditUnits
	}
	return r.CreditUnits
}

// Slot 该教学班在课表中占据的槽位
func (r SectionRecord) Slot() Slot {
	return Slot{CourseCode: r.CourseCode, Component: r.Component}
}

// Identity 课程代码 + 班号，用于提示展示
func (r SectionRecord) Identity() string {
	return r.CourseCode + " " + r.SectionLabel
}

// Slot 课表中的互斥位置：(courseCode, componentType)
type Slot struct {
	CourseCode string        `json:"course_code"`
	Component  ComponentType `json:"component"`
}

// ScheduleEntry 已加入课表的教学班，附带按课程代码确定的展示颜色
type ScheduleEntry struct {
	Section SectionRecord `json:"section"`
	Color   string        `json:"color"`
}

// Slot 条目所占槽位
func (e ScheduleEntry) Slot() Slot { return e.Section.Slot() }

// Identity 条目标识
func (e ScheduleEntry) Identity() string { return e.Section.Identity() }

// sameLabel 课程代码与班号是否一致（班号大小写不敏感）
func sameLabel(r SectionRecord, courseCode, label string) bool {
	return r.CourseCode == courseCode && strings.EqualFold(r.SectionLabel, label)
}

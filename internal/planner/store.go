package planner

import (
	"hash/fnv"
)

// DefaultPalette 默认课程配色
var DefaultPalette = []string{
	"#4E79A7", "#F28E2B", "#E15759", "#76B7B2", "#59A14F",
	"#EDC948", "#B07AA1", "#FF9DA7", "#9C755F", "#BAB0AC",
}

// ColorFor 按课程代码的稳定哈希从调色板取色；同一课程在会话内颜色恒定
func ColorFor(courseCode string, palette []string) string {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(courseCode))
	return palette[h.Sum32()%uint32(len(palette))]
}

// ── 课表存储 ────────────────────────────────────────────────
//
// 不变量：
//   1. 每个 (courseCode, componentType) 槽位至多一个条目，同槽位新增即原子替换
//   2. 完全相同的 (courseCode, sectionLabel) 重复加入被拒绝
//
// 冲突检测（不变量 3）由 Controller 在写入前完成。
// Schedule 只被单个 Controller 同步修改，不加锁。
// ─────────────────────────────────────────────────────────────

// Schedule 当前会话的课表
type Schedule struct {
	entries map[Slot]ScheduleEntry
	order   []Slot
	palette []string
}

// NewSchedule 创建空课表
func NewSchedule(palette []string) *Schedule {
	p := make([]string, len(palette))
	copy(p, palette)
	return &Schedule{
		entries: make(map[Slot]ScheduleEntry),
		palette: p,
	}
}

// Len 条目数
func (s *Schedule) Len() int { return len(s.order) }

// Get 按槽位取条目
func (s *Schedule) Get(slot Slot) (ScheduleEntry, bool) {
	e, ok := s.entries[slot]
	return e, ok
}

// FindByLabel 按 (courseCode, sectionLabel) 查找条目
func (s *Schedule) FindByLabel(courseCode, label string) (ScheduleEntry, bool) {
	for _, slot := range s.order {
		e := s.entries[slot]
		if sameLabel(e.Section, courseCode, label) {
			return e, true
		}
	}
	return ScheduleEntry{}, false
}

// Entries 按加入顺序返回全部条目的副本
func (s *Schedule) Entries() []ScheduleEntry {
	out := make([]ScheduleEntry, 0, len(s.order))
	for _, slot := range s.order {
		out = append(out, s.entries[slot])
	}
	return out
}

// Put 写入教学班。同槽位已有不同班号时替换并返回旧条目；
// 完全相同的班号已存在时返回 *DuplicateError，课表不变。
func (s *Schedule) Put(section SectionRecord) (ScheduleEntry, *ScheduleEntry, error) {
	if _, exists := s.FindByLabel(section.CourseCode, section.SectionLabel); exists {
		return ScheduleEntry{}, nil, &DuplicateError{CourseCode: section.CourseCode, SectionLabel: section.SectionLabel}
	}

	entry := ScheduleEntry{Section: section, Color: ColorFor(section.CourseCode, s.palette)}
	slot := section.Slot()

	var replaced *ScheduleEntry
	if old, ok := s.entries[slot]; ok {
		replaced = &old
	} else {
		s.order = append(s.order, slot)
	}
	s.entries[slot] = entry
	return entry, replaced, nil
}

// Remove 删除 (courseCode, sectionLabel)；不存在时为空操作，返回 false
func (s *Schedule) Remove(courseCode, label string) (ScheduleEntry, bool) {
	for i, slot := range s.order {
		e := s.entries[slot]
		if !sameLabel(e.Section, courseCode, label) {
			continue
		}
		delete(s.entries, slot)
		s.order = append(s.order[:i], s.order[i+1:]...)
		return e, true
	}
	return ScheduleEntry{}, false
}

// Clear 清空课表
func (s *Schedule) Clear() {
	s.entries = make(map[Slot]ScheduleEntry)
	s.order = nil
}

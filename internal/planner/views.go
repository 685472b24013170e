package planner

import (
	"sort"
)

// CreditTotal 课表学分合计（缺省学分按 3 计）
func CreditTotal(s *Schedule) int {
	total := 0
	for _, e := range s.Entries() {
		total += e.Section.Credits()
	}
	return total
}

// DefaultDayStartMinutes 网格起点 8:00
const DefaultDayStartMinutes = 8 * 60

// GridGeometry 时间 → 像素的线性映射
type GridGeometry struct {
	DayStartMinutes int
	PixelsPerMinute float64
}

// DefaultGridGeometry 8:00 起，1 分钟 1 像素
func DefaultGridGeometry() GridGeometry {
	return GridGeometry{DayStartMinutes: DefaultDayStartMinutes, PixelsPerMinute: 1}
}

// Placement 网格单元的纵向位置
type Placement struct {
	Offset float64 `json:"offset"`
	Height float64 `json:"height"`
}

// Place 计算 [start, end) 在网格中的偏移与高度
func (g GridGeometry) Place(start, end int) Placement {
	scale := g.PixelsPerMinute
	if scale <= 0 {
		scale = 1
	}
	return Placement{
		Offset: float64(start-g.DayStartMinutes) * scale,
		Height: float64(end-start) * scale,
	}
}

// GridCell 网格中的一个渲染单元（一个条目的一个时间块在某一天）
type GridCell struct {
	CourseCode   string        `json:"course_code"`
	SectionLabel string        `json:"section_label"`
	Component    ComponentType `json:"component"`
	Title        string        `json:"title,omitempty"`
	Color        string        `json:"color"`
	Day          Weekday       `json:"day"`
	StartTime    string        `json:"start_time"`
	EndTime      string        `json:"end_time"`
	Location     string        `json:"location,omitempty"`
	Placement
}

// BuildGrid 展开课表为网格单元，按星期、开始时间排序；无效时间块跳过
func (g GridGeometry) BuildGrid(s *Schedule) []GridCell {
	var cells []GridCell
	for _, e := range s.Entries() {
		for _, b := range e.Section.Blocks {
			if !b.Schedulable() {
				continue
			}
			start, end := b.StartMinutes(), b.EndMinutes()
			for _, d := range b.Days {
				cells = append(cells, GridCell{
					CourseCode:   e.Section.CourseCode,
					SectionLabel: e.Section.SectionLabel,
					Component:    e.Section.Component,
					Title:        e.Section.Title,
					Color:        e.Color,
					Day:          d,
					StartTime:    MinutesToClock(start),
					EndTime:      MinutesToClock(end),
					Location:     b.Location(),
					Placement:    g.Place(start, end),
				})
			}
		}
	}
	sort.SliceStable(cells, func(i, j int) bool {
		if cells[i].Day != cells[j].Day {
			return cells[i].Day < cells[j].Day
		}
		return cells[i].StartTime < cells[j].StartTime
	})
	return cells
}

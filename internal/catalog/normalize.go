package catalog

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/planner"
)

// ── 目录边界的规范化 ──
//
// 缺失或形状异常的字段在此处理完毕，不会流入冲突检测：
//   - 学分缺失或非正整数 → 0（由 SectionRecord.Credits 按默认 3 计）
//   - 缺少星期或有效起止时间的时间块 → 丢弃
//   - 考试时间块 → 丢弃（非每周重复）

// Caser 有内部状态，不能跨 goroutine 共享，每次调用新建
func toUpper(s string) string { return cases.Upper(language.Und).String(s) }

func toTitle(s string) string { return cases.Title(language.English).String(s) }

// CourseCode "cmpt" + "225" → "CMPT 225"
func CourseCode(dept, number string) string {
	return toUpper(strings.TrimSpace(dept)) + " " + toUpper(strings.TrimSpace(number))
}

// collapse 合并连续空白
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// displayName 全大写的名称转为标题格式，其余保持原样
func displayName(s string) string {
	s = collapse(s)
	if s != "" && s == toUpper(s) {
		return toTitle(s)
	}
	return s
}

func normalizeDepartments(raw []rawDepartment) []Department {
	out := make([]Department, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		code := r.Text.String()
		if code == "" {
			code = r.Value.String()
		}
		code = toUpper(code)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, Department{Code: code, Name: displayName(r.Name.String())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func normalizeCourses(raw []rawCourse) []Course {
	out := make([]Course, 0, len(raw))
	for _, r := range raw {
		number := r.Text.String()
		if number == "" {
			number = r.Value.String()
		}
		if number == "" {
			continue
		}
		out = append(out, Course{Number: toUpper(number), Title: collapse(r.Title.String())})
	}
	return out
}

func normalizeSections(raw []rawSection) []SectionSummary {
	out := make([]SectionSummary, 0, len(raw))
	for _, r := range raw {
		label := r.Text.String()
		if label == "" {
			label = r.Value.String()
		}
		if label == "" {
			continue
		}
		out = append(out, SectionSummary{
			Label:     toUpper(label),
			Title:     collapse(r.Title.String()),
			RawType:   r.SectionCode.String(),
			ClassType: strings.ToLower(r.ClassType.String()),
		})
	}
	return out
}

func normalizeDetails(raw *rawDetails) *SectionDetails {
	d := &SectionDetails{
		Title:       collapse(raw.Info.Title.String()),
		CreditUnits: parseUnits(raw.Info.Units.String()),
		Campus:      collapse(raw.Info.Campus.String()),
	}

	names := make([]string, 0, len(raw.Instructor))
	for _, in := range raw.Instructor {
		name := collapse(in.Name.String())
		if name == "" {
			name = collapse(in.FirstName.String() + " " + in.LastName.String())
		}
		if name != "" {
			names = append(names, displayName(name))
		}
	}
	d.Instructor = strings.Join(names, ", ")

	d.Blocks = make([]planner.MeetingBlock, 0, len(raw.CourseSchedule))
	for _, rb := range raw.CourseSchedule {
		if bool(rb.IsExam) {
			continue
		}
		b := planner.MeetingBlock{
			Days:      planner.ParseDays(rb.Days.String()),
			StartTime: rb.StartTime.String(),
			EndTime:   rb.EndTime.String(),
			Room:      rb.RoomNumber.String(),
			Building:  rb.BuildingCode.String(),
			Campus:    collapse(rb.Campus.String()),
		}
		if !b.Schedulable() {
			continue
		}
		d.Blocks = append(d.Blocks, b)
		if d.Campus == "" {
			d.Campus = b.Campus
		}
	}
	return d
}

// parseUnits "3" / "3.0" / "0-3" → 正整数；无法解析返回 0
func parseUnits(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	// 区间学分取上限
	if _, hi, ok := strings.Cut(s, "-"); ok {
		s = strings.TrimSpace(hi)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0
	}
	return int(f)
}

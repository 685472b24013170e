package planner

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Weekday ISO 8601 星期（1=Monday … 7=Sunday）
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayCodes = map[Weekday]string{
	Monday:    "Mo",
	Tuesday:   "Tu",
	Wednesday: "We",
	Thursday:  "Th",
	Friday:    "Fr",
	Saturday:  "Sa",
	Sunday:    "Su",
}

// 目录里常见的星期写法（小写）
var weekdayAliases = map[string]Weekday{
	"mo": Monday, "mon": Monday, "monday": Monday, "m": Monday,
	"tu": Tuesday, "tue": Tuesday, "tues": Tuesday, "tuesday": Tuesday, "t": Tuesday,
	"we": Wednesday, "wed": Wednesday, "wednesday": Wednesday, "w": Wednesday,
	"th": Thursday, "thu": Thursday, "thur": Thursday, "thurs": Thursday, "thursday": Thursday, "r": Thursday,
	"fr": Friday, "fri": Friday, "friday": Friday, "f": Friday,
	"sa": Saturday, "sat": Saturday, "saturday": Saturday,
	"su": Sunday, "sun": Sunday, "sunday": Sunday,
}

// Valid 是否在 1..7 范围
func (d Weekday) Valid() bool { return d >= Monday && d <= Sunday }

// String 内部两字母代码（Mo, Tu …）
func (d Weekday) String() string {
	if code, ok := weekdayCodes[d]; ok {
		return code
	}
	return fmt.Sprintf("Weekday(%d)", int(d))
}

// ICSCode RFC 5545 BYDAY 代码（MO, TU …）
func (d Weekday) ICSCode() string {
	return strings.ToUpper(d.String())
}

// MarshalJSON 以两字母代码序列化
func (d Weekday) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON 兼容代码字符串与 ISO 数字
func (d *Weekday) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if !Weekday(n).Valid() {
			return fmt.Errorf("invalid weekday %d", n)
		}
		*d = Weekday(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	wd, ok := ParseWeekday(s)
	if !ok {
		return fmt.Errorf("invalid weekday %q", s)
	}
	*d = wd
	return nil
}

// ParseWeekday 解析单个星期写法
func ParseWeekday(s string) (Weekday, bool) {
	wd, ok := weekdayAliases[strings.ToLower(strings.TrimSpace(s))]
	return wd, ok
}

// ParseDays 解析 "Mo, We" / "Mon Wed" / "Tu;Th" 形式的星期列表，去重并保持顺序。
// 无法识别的片段被忽略。
func ParseDays(s string) []Weekday {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';' || r == '/'
	})
	seen := make(map[Weekday]bool, len(fields))
	days := make([]Weekday, 0, len(fields))
	for _, f := range fields {
		wd, ok := ParseWeekday(f)
		if !ok || seen[wd] {
			continue
		}
		seen[wd] = true
		days = append(days, wd)
	}
	return days
}

// shareDay 两组星期是否有交集
func shareDay(a, b []Weekday) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

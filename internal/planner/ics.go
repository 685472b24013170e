package planner

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
)

// DefaultTermWeeks 未配置学期窗口时的默认周数
const DefaultTermWeeks = 13

const icsLocalLayout = "20060102T150405"

// ICSOptions 日历导出参数
type ICSOptions struct {
	ProdID    string
	UIDDomain string
	// TermStart/TermEnd 学期窗口（按日期），TermStart 为零值时取 Now 所在周的周一
	TermStart time.Time
	TermEnd   time.Time
	// Location 上课时间所在时区（IANA 名称），默认 UTC
	Location *time.Location
	Now      time.Time
}

func (o ICSOptions) withDefaults() ICSOptions {
	if o.ProdID == "" {
		o.ProdID = "-//course-planner//timetable//EN"
	}
	if o.UIDDomain == "" {
		o.UIDDomain = "course-planner"
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.TermStart.IsZero() {
		o.TermStart = mondayOf(o.Now.In(o.Location))
	}
	o.TermStart = dateOnly(o.TermStart, o.Location)
	if o.TermEnd.IsZero() || !o.TermEnd.After(o.TermStart) {
		o.TermEnd = o.TermStart.AddDate(0, 0, DefaultTermWeeks*7)
	}
	o.TermEnd = dateOnly(o.TermEnd, o.Location)
	return o
}

// ExportICS 将课表序列化为 iCalendar 文本。
//
// 每个时间块生成一个 VEVENT：DTSTART 为学期内第一个上课日，
// RRULE 为 FREQ=WEEKLY;BYDAY=..;UNTIL=..。缺少星期或起止时间的块跳过。
func ExportICS(s *Schedule, opts ICSOptions) ([]byte, error) {
	opts = opts.withDefaults()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(opts.ProdID)
	if opts.Location != time.UTC {
		cal.SetXWRTimezone(opts.Location.String())
		addTimezone(cal, opts.Location, opts.TermStart.AddDate(-1, 0, 0), opts.TermEnd)
	}

	for _, entry := range s.Entries() {
		for i, block := range entry.Section.Blocks {
			if !block.Schedulable() {
				continue
			}
			if err := addBlockEvent(cal, entry, i, block, opts); err != nil {
				return nil, err
			}
		}
	}
	return []byte(cal.Serialize()), nil
}

func addBlockEvent(cal *ics.Calendar, entry ScheduleEntry, idx int, block MeetingBlock, opts ICSOptions) error {
	start, end := block.StartMinutes(), block.EndMinutes()
	loc := opts.Location

	byDay := make([]rrule.Weekday, 0, len(block.Days))
	for _, d := range block.Days {
		if wd, ok := rruleWeekday(d); ok {
			byDay = append(byDay, wd)
		}
	}
	if len(byDay) == 0 {
		return nil
	}

	dtStart := opts.TermStart.Add(time.Duration(start) * time.Minute)
	until := opts.TermEnd.Add(24*time.Hour - time.Second)
	ropt := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: byDay,
		Dtstart:   dtStart,
		Until:     until,
	}
	rule, err := rrule.NewRRule(ropt)
	if err != nil {
		return fmt.Errorf("build rrule for %s: %w", entry.Identity(), err)
	}
	first := rule.After(dtStart, true)
	if first.IsZero() {
		// 学期窗口内没有任何上课日
		return nil
	}
	first = first.In(loc)
	firstEnd := first.Add(time.Duration(end-start) * time.Minute)

	uid := fmt.Sprintf("%s-%s-%d@%s",
		strings.ReplaceAll(entry.Section.CourseCode, " ", ""),
		entry.Section.SectionLabel, idx, opts.UIDDomain)

	event := cal.AddEvent(uid)
	event.SetDtStampTime(opts.Now.UTC())
	if loc == time.UTC {
		event.SetStartAt(first)
		event.SetEndAt(firstEnd)
	} else {
		event.SetProperty(ics.ComponentPropertyDtStart, first.Format(icsLocalLayout), ics.WithTZID(loc.String()))
		event.SetProperty(ics.ComponentPropertyDtEnd, firstEnd.Format(icsLocalLayout), ics.WithTZID(loc.String()))
	}
	event.SetSummary(eventSummary(entry.Section))
	if location := block.Location(); location != "" {
		event.SetLocation(location)
	}
	if entry.Section.Instructor != "" {
		event.SetDescription(entry.Section.Instructor)
	}
	event.AddRrule(ropt.RRuleString())
	return nil
}

// ── VTIMEZONE ──

// zoneTransition 时区偏移变化点
type zoneTransition struct {
	at       time.Time
	name     string
	from, to int // UTC 偏移（秒）
	dst      bool
}

// addTimezone 为 TZID 引用生成 VTIMEZONE，观测规则取 [from, to] 内的实际偏移变化。
// from 往前取一年，保证学期开始时生效的那条规则也被包含。
func addTimezone(cal *ics.Calendar, loc *time.Location, from, to time.Time) {
	tz := cal.AddTimezone(loc.String())

	transitions := zoneTransitions(loc, from, to)
	if len(transitions) == 0 {
		name, offset := from.In(loc).Zone()
		std := tz.AddStandard()
		setObservance(&std.ComponentBase, time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), name, offset, offset)
		return
	}
	for _, tr := range transitions {
		// DTSTART 为变化前偏移下的本地时刻
		onset := tr.at.In(time.FixedZone("", tr.from))
		if tr.dst {
			daylight := &ics.Daylight{}
			tz.Components = append(tz.Components, daylight)
			setObservance(&daylight.ComponentBase, onset, tr.name, tr.from, tr.to)
			continue
		}
		std := tz.AddStandard()
		setObservance(&std.ComponentBase, onset, tr.name, tr.from, tr.to)
	}
}

func setObservance(c *ics.ComponentBase, onset time.Time, name string, from, to int) {
	c.SetProperty(ics.ComponentPropertyDtStart, onset.Format(icsLocalLayout))
	c.SetProperty(ics.ComponentProperty(ics.PropertyTzoffsetfrom), formatUTCOffset(from))
	c.SetProperty(ics.ComponentProperty(ics.PropertyTzoffsetto), formatUTCOffset(to))
	if name != "" {
		c.SetProperty(ics.ComponentProperty(ics.PropertyTzname), name)
	}
}

// zoneTransitions 按天扫描偏移变化，再二分到秒
func zoneTransitions(loc *time.Location, from, to time.Time) []zoneTransition {
	var out []zoneTransition
	prev := from.In(loc)
	_, prevOff := prev.Zone()
	end := to.Add(24 * time.Hour)
	for t := prev.Add(24 * time.Hour); !t.After(end); t = t.Add(24 * time.Hour) {
		_, off := t.In(loc).Zone()
		if off == prevOff {
			prev = t
			continue
		}
		lo, hi := prev, t
		for hi.Sub(lo) > time.Second {
			mid := lo.Add(hi.Sub(lo) / 2)
			if _, o := mid.In(loc).Zone(); o == prevOff {
				lo = mid
			} else {
				hi = mid
			}
		}
		at := hi.Truncate(time.Second).In(loc)
		name, _ := at.Zone()
		out = append(out, zoneTransition{at: at, name: name, from: prevOff, to: off, dst: at.IsDST()})
		prev, prevOff = t, off
	}
	return out
}

// formatUTCOffset -25200 → "-0700"
func formatUTCOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	return fmt.Sprintf("%c%02d%02d", sign, seconds/3600, seconds%3600/60)
}

// eventSummary "CMPT 225 D100 Data Structures"
func eventSummary(r SectionRecord) string {
	parts := []string{r.CourseCode, r.SectionLabel}
	if t := strings.TrimSpace(r.Title); t != "" {
		parts = append(parts, t)
	}
	return strings.Join(parts, " ")
}

func rruleWeekday(d Weekday) (rrule.Weekday, bool) {
	switch d {
	case Monday:
		return rrule.MO, true
	case Tuesday:
		return rrule.TU, true
	case Wednesday:
		return rrule.WE, true
	case Thursday:
		return rrule.TH, true
	case Friday:
		return rrule.FR, true
	case Saturday:
		return rrule.SA, true
	case Sunday:
		return rrule.SU, true
	}
	return rrule.Weekday{}, false
}

func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

func dateOnly(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

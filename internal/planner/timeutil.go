package planner

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeToMinutes 将墙钟时间转为自午夜起的分钟数。
//
// 支持 12 小时制（"2:30pm"、"2:30 PM"、"2pm"）与 24 小时制（"14:30"）。
// 12am → 0 点，1-11pm → h+12。格式错误或空串返回 0，调用方应把 0 视为"未知"而非午夜。
func TimeToMinutes(text string) int {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return 0
	}

	marker := ""
	if strings.HasSuffix(s, "am") || strings.HasSuffix(s, "pm") {
		marker = s[len(s)-2:]
		s = strings.TrimSpace(s[:len(s)-2])
	}

	hourPart, minutePart, hasMinutes := strings.Cut(s, ":")
	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0
	}
	minute := 0
	if hasMinutes {
		minute, err = strconv.Atoi(minutePart)
		if err != nil || len(minutePart) != 2 {
			return 0
		}
	} else if marker == "" {
		// 24 小时制必须带分钟
		return 0
	}
	if minute < 0 || minute > 59 {
		return 0
	}

	switch marker {
	case "":
		if hour < 0 || hour > 23 {
			return 0
		}
	default:
		if hour < 1 || hour > 12 {
			return 0
		}
		if marker == "am" && hour == 12 {
			hour = 0
		} else if marker == "pm" && hour < 12 {
			hour += 12
		}
	}

	return hour*60 + minute
}

// MinutesToClock 分钟数转 "HH:MM"
func MinutesToClock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", (minutes/60)%24, minutes%60)
}

// IntervalsOverlap 判断两个时间块是否冲突。
// 无共同星期直接返回 false；否则按半开区间判断，首尾相接不算冲突。
// 起止时间未知的块不参与比较。
func IntervalsOverlap(a, b MeetingBlock) bool {
	if !shareDay(a.Days, b.Days) {
		return false
	}
	if !a.HasTimes() || !b.HasTimes() {
		return false
	}
	return a.StartMinutes() < b.EndMinutes() && b.StartMinutes() < a.EndMinutes()
}

package planner

import (
	"strings"
	"unicode"
)

// AssociationStatus 讲座-实验/辅导关联结果的类型标签
type AssociationStatus string

const (
	// AssociationNoLectures 目录中该课程没有讲座，全部非讲座班可选
	AssociationNoLectures AssociationStatus = "no_lectures"
	// AssociationNoLectureSelected 有讲座但尚未选择
	AssociationNoLectureSelected AssociationStatus = "no_lecture_selected"
	// AssociationMatched 按班号前缀匹配成功
	AssociationMatched AssociationStatus = "matched"
	// AssociationFallbackAll 前缀过滤为空，退回展示全部
	AssociationFallbackAll AssociationStatus = "fallback_all"
)

// AssociationResult 关联解析结果
type AssociationResult struct {
	Status   AssociationStatus
	Prefix   string
	Sections []SectionRecord
}

// Err 仅"尚未选择讲座"时返回 ErrAssociationUnresolved
func (r AssociationResult) Err() error {
	if r.Status == AssociationNoLectureSelected {
		return ErrAssociationUnresolved
	}
	return nil
}

// LabelPrefix 提取班号开头的字母部分："D100" → "D"
func LabelPrefix(label string) string {
	label = strings.TrimSpace(label)
	end := 0
	for i, r := range label {
		if !unicode.IsLetter(r) {
			break
		}
		end = i + len(string(r))
	}
	return strings.ToUpper(label[:end])
}

// ResolveAssociation 根据已选讲座筛选同课程的实验/辅导/研讨班。
//
// chosen 为课表中该课程的讲座条目（可为 nil）；lectures 为目录中该课程的全部讲座班；
// others 为全部非讲座班。D100 只与 D1xx 配对，不与 E1xx 配对。
func ResolveAssociation(chosen *ScheduleEntry, lectures, others []SectionRecord) AssociationResult {
	if len(lectures) == 0 {
		return AssociationResult{Status: AssociationNoLectures, Sections: cloneSections(others)}
	}
	if chosen == nil {
		return AssociationResult{Status: AssociationNoLectureSelected, Sections: []SectionRecord{}}
	}

	prefix := LabelPrefix(chosen.Section.SectionLabel)
	matched := make([]SectionRecord, 0, len(others))
	for _, s := range others {
		if LabelPrefix(s.SectionLabel) == prefix {
			matched = append(matched, s)
		}
	}
	if len(matched) == 0 {
		return AssociationResult{Status: AssociationFallbackAll, Prefix: prefix, Sections: cloneSections(others)}
	}
	return AssociationResult{Status: AssociationMatched, Prefix: prefix, Sections: matched}
}

// SplitByComponent 将一门课的教学班分为讲座与非讲座两组
func SplitByComponent(sections []SectionRecord) (lectures, others []SectionRecord) {
	for _, s := range sections {
		if s.Component == ComponentLecture {
			lectures = append(lectures, s)
		} else {
			others = append(others, s)
		}
	}
	return lectures, others
}

func cloneSections(in []SectionRecord) []SectionRecord {
	out := make([]SectionRecord, len(in))
	copy(out, in)
	return out
}

package planner

// DetectConflict 检查候选教学班加入课表后是否产生时间冲突。
//
// 比较集合为课表中除同 (courseCode, componentType) 槽位以外的全部条目，
// 该槽位条目将被替换而非比较。遇到第一个重叠即返回，无冲突返回 nil。
func DetectConflict(candidate SectionRecord, component ComponentType, s *Schedule) *ConflictError {
	target := Slot{CourseCode: candidate.CourseCode, Component: component}
	for _, entry := range s.Entries() {
		if entry.Slot() == target {
			continue
		}
		for _, cb := range candidate.Blocks {
			for _, eb := range entry.Section.Blocks {
				if IntervalsOverlap(cb, eb) {
					return &ConflictError{
						CourseCode:     entry.Section.CourseCode,
						SectionLabel:   entry.Section.SectionLabel,
						Component:      entry.Section.Component,
						ExistingBlock:  eb,
						CandidateBlock: cb,
					}
				}
			}
		}
	}
	return nil
}

// ConflictPair 课表内两条目之间的一处冲突
type ConflictPair struct {
	First       ScheduleEntry
	Second      ScheduleEntry
	FirstBlock  MeetingBlock
	SecondBlock MeetingBlock
}

// FindAllConflicts 列出课表内所有不同槽位条目之间的冲突（每对条目只报告首个重叠）。
// 经 Controller 维护的课表应始终为空结果；用于校验外部载入的数据。
func FindAllConflicts(s *Schedule) []ConflictPair {
	entries := s.Entries()
	var pairs []ConflictPair
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			if entries[i].Slot() == entries[j].Slot() {
				continue
			}
			if fb, sb, ok := firstOverlap(entries[i].Section.Blocks, entries[j].Section.Blocks); ok {
				pairs = append(pairs, ConflictPair{
					First:       entries[i],
					Second:      entries[j],
					FirstBlock:  fb,
					SecondBlock: sb,
				})
			}
		}
	}
	return pairs
}

func firstOverlap(a, b []MeetingBlock) (MeetingBlock, MeetingBlock, bool) {
	for _, x := range a {
		for _, y := range b {
			if IntervalsOverlap(x, y) {
				return x, y, true
			}
		}
	}
	return MeetingBlock{}, MeetingBlock{}, false
}

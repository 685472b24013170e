package planner

import (
	"errors"
	"fmt"
)

// ── 排课引擎错误 ──
//
// 引擎层错误均作为结果值返回（Result.Err / AssociationResult.Err），
// 不会以 panic 形式穿过 Controller 边界。

var (
	ErrConflict              = errors.New("时间冲突")
	ErrDuplicate             = errors.New("该教学班已在课表中")
	ErrAssociationUnresolved = errors.New("请先选择讲座（Lecture）教学班")
)

// ConflictError 候选教学班与课表中其他槽位的条目时间重叠
type ConflictError struct {
	// 冲突的已有条目
	CourseCode   string
	SectionLabel string
	Component    ComponentType

	ExistingBlock  MeetingBlock
	CandidateBlock MeetingBlock
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("与 %s %s 时间冲突", e.CourseCode, e.SectionLabel)
}

// Is 支持 errors.Is(err, ErrConflict)
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// DuplicateError 完全相同的 (courseCode, sectionLabel) 已在课表中
type DuplicateError struct {
	CourseCode   string
	SectionLabel string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %s 已在课表中", e.CourseCode, e.SectionLabel)
}

// Is 支持 errors.Is(err, ErrDuplicate)
func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

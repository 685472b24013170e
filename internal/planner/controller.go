package planner

import (
	"go.uber.org/zap"
)

// Outcome 单次用户操作的结果类型
type Outcome string

const (
	OutcomeAdded    Outcome = "added"
	OutcomeReplaced Outcome = "replaced"
	OutcomeRemoved  Outcome = "removed"
	OutcomeNotFound Outcome = "not_found" // 删除不存在的条目：空操作
	OutcomeCleared  Outcome = "cleared"
	OutcomeRejected Outcome = "rejected"
)

// Result 操作结果；被拒绝时 Err 为 *ConflictError 或 *DuplicateError
type Result struct {
	Outcome  Outcome
	Entry    *ScheduleEntry
	Replaced *ScheduleEntry
	Err      error
}

// Accepted 操作是否被接受（含空操作）
func (r Result) Accepted() bool { return r.Outcome != OutcomeRejected }

// Controller 编排冲突检测与课表写入。
//
// 槽位状态：EMPTY → OCCUPIED。
//   - Add：完全相同班号 → DuplicateError；冲突 → ConflictError；否则插入或替换
//   - Remove：存在则删除，不存在为空操作
//   - Clear：清空整张课表（确认由调用方负责）
type Controller struct {
	schedule *Schedule
	logger   *zap.Logger
}

// NewController 创建 Controller
func NewController(s *Schedule, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{schedule: s, logger: logger}
}

// Schedule 返回受管课表
func (c *Controller) Schedule() *Schedule { return c.schedule }

// Add 加入教学班
func (c *Controller) Add(section SectionRecord) Result {
	if existing, ok := c.schedule.FindByLabel(section.CourseCode, section.SectionLabel); ok {
		return Result{
			Outcome: OutcomeRejected,
			Entry:   &existing,
			Err:     &DuplicateError{CourseCode: section.CourseCode, SectionLabel: section.SectionLabel},
		}
	}

	if conflict := DetectConflict(section, section.Component, c.schedule); conflict != nil {
		c.logger.Debug("加入教学班被拒绝：时间冲突",
			zap.String("candidate", section.Identity()),
			zap.String("conflicts_with", conflict.CourseCode+" "+conflict.SectionLabel),
		)
		return Result{Outcome: OutcomeRejected, Err: conflict}
	}

	entry, replaced, err := c.schedule.Put(section)
	if err != nil {
		return Result{Outcome: OutcomeRejected, Err: err}
	}

	outcome := OutcomeAdded
	if replaced != nil {
		outcome = OutcomeReplaced
	}
	return Result{Outcome: outcome, Entry: &entry, Replaced: replaced}
}

// Remove 删除 (courseCode, sectionLabel)
func (c *Controller) Remove(courseCode, label string) Result {
	removed, ok := c.schedule.Remove(courseCode, label)
	if !ok {
		return Result{Outcome: OutcomeNotFound}
	}
	return Result{Outcome: OutcomeRemoved, Entry: &removed}
}

// Clear 清空课表
func (c *Controller) Clear() Result {
	c.schedule.Clear()
	return Result{Outcome: OutcomeCleared}
}

package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/catalog"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/dto"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/planner"
)

// ── 排课模块业务错误 ──

var (
	ErrNoSelection       = errors.New("请先选择课程")
	ErrSectionNotFound   = errors.New("所选课程中不存在该教学班")
	ErrStaleSelection    = errors.New("课程选择已被更新的请求取代")
	ErrClearNotConfirmed = errors.New("清空课表需要确认")
)

// 提示类型
const (
	noticeConflict    = "conflict"
	noticeDuplicate   = "duplicate"
	noticeAssociation = "association"
	noticeCatalog     = "catalog"
)

// CourseLoader 加载一门课程的全部教学班（catalog.Loader 实现）
type CourseLoader interface {
	LoadCourse(ctx context.Context, term catalog.Term, dept, number string) (*catalog.CourseSections, error)
}

// PlannerOptions 排课会话参数
type PlannerOptions struct {
	Geometry  planner.GridGeometry
	NoticeTTL time.Duration
}

// ── PlannerService 接口 ────────────────────────────────────
//
// 设计说明：
//   - 会话状态只在进程内，重启即失效；需要持久化时走 SavedScheduleService
//   - SelectCourse 在会话锁外请求目录，提交前比对 generation，
//     被后续选择取代的结果直接丢弃（ErrStaleSelection）
//   - 冲突与重复不是错误路径：返回 ActionResponse，同时返回
//     planner.ErrConflict / planner.ErrDuplicate 供 Handler 选择状态码
// ─────────────────────────────────────────────────────────────

// PlannerService 排课会话业务接口
type PlannerService interface {
	// CreateSession 创建空白会话
	CreateSession(ctx context.Context) (*dto.SessionResponse, error)
	// GetSession 会话全貌
	GetSession(ctx context.Context, sessionID string) (*dto.SessionResponse, error)
	// SelectCourse 选择课程并加载其教学班
	SelectCourse(ctx context.Context, sessionID string, req *dto.SelectCourseRequest) (*dto.SelectionResponse, error)
	// AssociatedSections 按已选讲座筛选实验/辅导
	AssociatedSections(ctx context.Context, sessionID string) (*dto.AssociatedResponse, error)
	// AddSection 将所选课程的教学班加入课表
	AddSection(ctx context.Context, sessionID, label string) (*dto.ActionResponse, error)
	// RemoveSection 删除条目，不存在时为空操作
	RemoveSection(ctx context.Context, sessionID, courseCode, label string) (*dto.ActionResponse, error)
	// ClearSchedule 清空课表，需 confirm=true
	ClearSchedule(ctx context.Context, sessionID string, confirm bool) (*dto.ActionResponse, error)
	// ValidateSchedule 列出课表内所有冲突
	ValidateSchedule(ctx context.Context, sessionID string) ([]dto.ConflictPairResponse, error)
}

type plannerService struct {
	store  *SessionStore
	loader CourseLoader
	opts   PlannerOptions
	logger *zap.Logger
}

// NewPlannerService 创建 PlannerService 实例
func NewPlannerService(store *SessionStore, loader CourseLoader, opts PlannerOptions, logger *zap.Logger) PlannerService {
	if opts.NoticeTTL <= 0 {
		opts.NoticeTTL = 5 * time.Second
	}
	if opts.Geometry.PixelsPerMinute <= 0 {
		opts.Geometry = planner.DefaultGridGeometry()
	}
	return &plannerService{store: store, loader: loader, opts: opts, logger: logger}
}

func (s *plannerService) CreateSession(_ context.Context) (*dto.SessionResponse, error) {
	sess := s.store.create()
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.buildSessionResponse(sess), nil
}

func (s *plannerService) GetSession(_ context.Context, sessionID string) (*dto.SessionResponse, error) {
	var resp *dto.SessionResponse
	err := s.store.withSession(sessionID, func(sess *plannerSession) error {
		resp = s.buildSessionResponse(sess)
		return nil
	})
	return resp, err
}

// ═══════════════════════════════════════════════════════════
// SelectCourse 选择课程
// ═══════════════════════════════════════════════════════════
//
// 1. 锁内递增 generation
// 2. 锁外加载课程（并发获取详情，单个失败降级为基础信息）
// 3. 锁内比对 generation，已被取代则丢弃结果
//
// 目录列表请求失败时提交空选择并附带提示，不影响已有课表。

func (s *plannerService) SelectCourse(ctx context.Context, sessionID string, req *dto.SelectCourseRequest) (*dto.SelectionResponse, error) {
	term, err := catalog.ParseTerm(req.Year, req.Term)
	if err != nil {
		return nil, err
	}

	var gen uint64
	if err := s.store.withSession(sessionID, func(sess *plannerSession) error {
		sess.generation++
		gen = sess.generation
		return nil
	}); err != nil {
		return nil, err
	}

	course, loadErr := s.loader.LoadCourse(ctx, term, req.Dept, req.Number)
	if loadErr != nil {
		s.logger.Warn("加载课程失败，使用空选择",
			zap.String("session_id", sessionID),
			zap.String("term", term.Key()),
			zap.String("dept", req.Dept),
			zap.String("number", req.Number),
			zap.Error(loadErr),
		)
		course = &catalog.CourseSections{
			Term:       term,
			Dept:       req.Dept,
			Number:     req.Number,
			CourseCode: catalog.CourseCode(req.Dept, req.Number),
			Sections:   []planner.SectionRecord{},
		}
	}

	var resp *dto.SelectionResponse
	err = s.store.withSession(sessionID, func(sess *plannerSession) error {
		if sess.generation != gen {
			s.logger.Debug("丢弃过期的课程选择",
				zap.String("session_id", sessionID),
				zap.Uint64("generation", gen),
				zap.Uint64("current", sess.generation),
			)
			return ErrStaleSelection
		}
		sess.selection = course
		if loadErr != nil {
			sess.pushNotice(s.newNotice(noticeCatalog, "课程目录暂不可用，请稍后重试"))
		} else if course.PartialCount > 0 {
			sess.pushNotice(s.newNotice(noticeCatalog, "部分教学班详情获取失败，仅显示基础信息"))
		}
		resp = buildSelectionResponse(sess)
		return nil
	})
	return resp, err
}

func (s *plannerService) AssociatedSections(_ context.Context, sessionID string) (*dto.AssociatedResponse, error) {
	var resp *dto.AssociatedResponse
	err := s.store.withSession(sessionID, func(sess *plannerSession) error {
		if sess.selection == nil {
			return ErrNoSelection
		}
		sel := sess.selection

		var chosen *planner.ScheduleEntry
		if e, ok := sess.controller.Schedule().Get(planner.Slot{CourseCode: sel.CourseCode, Component: planner.ComponentLecture}); ok {
			chosen = &e
		}
		result := planner.ResolveAssociation(chosen, sel.Lectures(), sel.Others())

		resp = &dto.AssociatedResponse{
			Status:   result.Status,
			Prefix:   result.Prefix,
			Sections: dto.NewSectionResponses(result.Sections),
		}
		switch result.Status {
		case planner.AssociationNoLectureSelected:
			resp.Message = result.Err().Error()
		case planner.AssociationFallbackAll:
			resp.Message = "未找到与所选讲座班号前缀匹配的教学班，已显示全部"
		}
		return nil
	})
	return resp, err
}

func (s *plannerService) AddSection(_ context.Context, sessionID, label string) (*dto.ActionResponse, error) {
	var (
		resp      *dto.ActionResponse
		rejectErr error
	)
	err := s.store.withSession(sessionID, func(sess *plannerSession) error {
		if sess.selection == nil {
			return ErrNoSelection
		}
		section, ok := sess.selection.Find(label)
		if !ok {
			return ErrSectionNotFound
		}

		result := sess.controller.Add(section)
		resp = s.buildActionResponse(sess, result)
		if !result.Accepted() {
			rejectErr = result.Err
			return nil
		}

		// 实验/辅导加入时尚未选讲座：仅提示
		if section.Component != planner.ComponentLecture && len(sess.selection.Lectures()) > 0 {
			if _, has := sess.controller.Schedule().Get(planner.Slot{CourseCode: section.CourseCode, Component: planner.ComponentLecture}); !has {
				n := s.newNotice(noticeAssociation, planner.ErrAssociationUnresolved.Error())
				sess.pushNotice(n)
				resp.Notice = toNoticeResponse(n)
			}
		}
		s.logger.Debug("教学班已加入课表",
			zap.String("session_id", sessionID),
			zap.String("section", section.Identity()),
			zap.String("outcome", string(result.Outcome)),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, rejectErr
}

func (s *plannerService) RemoveSection(_ context.Context, sessionID, courseCode, label string) (*dto.ActionResponse, error) {
	var resp *dto.ActionResponse
	err := s.store.withSession(sessionID, func(sess *plannerSession) error {
		resp = s.buildActionResponse(sess, sess.controller.Remove(courseCode, label))
		return nil
	})
	return resp, err
}

func (s *plannerService) ClearSchedule(_ context.Context, sessionID string, confirm bool) (*dto.ActionResponse, error) {
	if !confirm {
		return nil, ErrClearNotConfirmed
	}
	var resp *dto.ActionResponse
	err := s.store.withSession(sessionID, func(sess *plannerSession) error {
		resp = s.buildActionResponse(sess, sess.controller.Clear())
		return nil
	})
	return resp, err
}

func (s *plannerService) ValidateSchedule(_ context.Context, sessionID string) ([]dto.ConflictPairResponse, error) {
	var out []dto.ConflictPairResponse
	err := s.store.withSession(sessionID, func(sess *plannerSession) error {
		pairs := planner.FindAllConflicts(sess.controller.Schedule())
		out = make([]dto.ConflictPairResponse, 0, len(pairs))
		for _, p := range pairs {
			out = append(out, dto.ConflictPairResponse{
				First:       dto.NewEntryResponse(p.First),
				Second:      dto.NewEntryResponse(p.Second),
				FirstBlock:  p.FirstBlock,
				SecondBlock: p.SecondBlock,
			})
		}
		return nil
	})
	return out, err
}

// ── 内部辅助 ──

func (s *plannerService) newNotice(kind, message string) notice {
	return notice{kind: kind, message: message, expiresAt: s.store.now().Add(s.opts.NoticeTTL)}
}

// buildActionResponse 调用方持有会话锁
func (s *plannerService) buildActionResponse(sess *plannerSession, result planner.Result) *dto.ActionResponse {
	resp := &dto.ActionResponse{
		Outcome: result.Outcome,
		Credits: planner.CreditTotal(sess.controller.Schedule()),
	}
	if result.Entry != nil {
		e := dto.NewEntryResponse(*result.Entry)
		resp.Entry = &e
	}
	if result.Replaced != nil {
		e := dto.NewEntryResponse(*result.Replaced)
		resp.Replaced = &e
	}

	if result.Err == nil {
		return resp
	}
	resp.Reason = result.Err.Error()

	var (
		conflict *planner.ConflictError
		kind     = noticeDuplicate
	)
	if errors.As(result.Err, &conflict) {
		kind = noticeConflict
		resp.Conflict = &dto.ConflictResponse{
			CourseCode:     conflict.CourseCode,
			SectionLabel:   conflict.SectionLabel,
			Component:      conflict.Component,
			ExistingBlock:  conflict.ExistingBlock,
			CandidateBlock: conflict.CandidateBlock,
		}
	}
	n := s.newNotice(kind, resp.Reason)
	sess.pushNotice(n)
	resp.Notice = toNoticeResponse(n)
	return resp
}

// buildSessionResponse 调用方持有会话锁
func (s *plannerService) buildSessionResponse(sess *plannerSession) *dto.SessionResponse {
	schedule := sess.controller.Schedule()
	entries := schedule.Entries()

	resp := &dto.SessionResponse{
		ID:         sess.id,
		CreatedAt:  sess.createdAt,
		LastActive: sess.lastActive,
		Entries:    make([]dto.EntryResponse, 0, len(entries)),
		Credits:    planner.CreditTotal(schedule),
		Grid:       s.opts.Geometry.BuildGrid(schedule),
		Notices:    []dto.NoticeResponse{},
	}
	if resp.Grid == nil {
		resp.Grid = []planner.GridCell{}
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, dto.NewEntryResponse(e))
	}
	for _, n := range sess.activeNotices(s.store.now()) {
		resp.Notices = append(resp.Notices, *toNoticeResponse(n))
	}
	if sess.selection != nil {
		resp.Selection = buildSelectionResponse(sess)
	}
	return resp
}

func buildSelectionResponse(sess *plannerSession) *dto.SelectionResponse {
	sel := sess.selection
	return &dto.SelectionResponse{
		Term:         sel.Term.Key(),
		CourseCode:   sel.CourseCode,
		Generation:   sess.generation,
		PartialCount: sel.PartialCount,
		Lectures:     dto.NewSectionResponses(sel.Lectures()),
		Others:       dto.NewSectionResponses(sel.Others()),
	}
}

func toNoticeResponse(n notice) *dto.NoticeResponse {
	return &dto.NoticeResponse{Kind: n.kind, Message: n.message, ExpiresAt: n.expiresAt}
}

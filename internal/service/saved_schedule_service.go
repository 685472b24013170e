package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/catalog"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/dto"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/model"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/planner"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/repository"
	pkgerrors "github.com/nathan-omana/SFU-INSIGHT-sub000/pkg/errors"
)

// ── 保存课表模块业务错误 ──

var ErrSavedScheduleNotFound = errors.New("该学期没有已保存的课表")

// ── SavedScheduleService 接口 ──────────────────────────────
//
// 设计说明：
//   - 每个用户每学期一份课表，(user_id, term_key) 唯一
//   - 保存时携带 version 进行乐观锁校验；不带 version 则覆盖最新
//   - 载入会替换会话课表，逐条经 Controller 加入，冲突或重复的条目被丢弃并返回原因
// ─────────────────────────────────────────────────────────────

// SavedScheduleService 保存课表业务接口
type SavedScheduleService interface {
	Save(ctx context.Context, userID, sessionID string, req *dto.SaveScheduleRequest) (*dto.SaveScheduleResponse, error)
	Load(ctx context.Context, userID, sessionID string, req *dto.LoadScheduleRequest) (*dto.LoadScheduleResponse, error)
	List(ctx context.Context, userID string) ([]dto.SavedScheduleSummary, error)
	Delete(ctx context.Context, userID string, q *dto.TermQuery) error
}

type savedScheduleService struct {
	repo    *repository.Repository
	store   *SessionStore
	planner PlannerService
	logger  *zap.Logger
}

// NewSavedScheduleService 创建 SavedScheduleService 实例
func NewSavedScheduleService(repo *repository.Repository, store *SessionStore, plannerSvc PlannerService, logger *zap.Logger) SavedScheduleService {
	return &savedScheduleService{repo: repo, store: store, planner: plannerSvc, logger: logger}
}

// ────────────────────── Save ──────────────────────

func (s *savedScheduleService) Save(ctx context.Context, userID, sessionID string, req *dto.SaveScheduleRequest) (*dto.SaveScheduleResponse, error) {
	term, err := catalog.ParseTerm(req.Year, req.Term)
	if err != nil {
		return nil, err
	}
	schedule, err := s.store.snapshot(sessionID)
	if err != nil {
		return nil, err
	}
	entries := model.EntryList(schedule.Entries())
	credits := planner.CreditTotal(schedule)

	existing, err := s.repo.SavedSchedule.GetByUserAndTerm(ctx, userID, term.Key())
	switch {
	case errors.Is(err, pkgerrors.ErrRecordNotFound):
		record := &model.SavedSchedule{
			UserID:  userID,
			TermKey: term.Key(),
			Entries: entries,
			Credits: credits,
		}
		if err := s.repo.SavedSchedule.Create(ctx, record); err != nil {
			s.logger.Error("保存课表失败", zap.String("user_id", userID), zap.Error(err))
			return nil, err
		}
		s.logger.Info("新建保存课表",
			zap.String("user_id", userID),
			zap.String("term", record.TermKey),
			zap.Int("entries", len(entries)),
		)
		return toSaveResponse(record), nil
	case err != nil:
		return nil, err
	}

	if req.Version != nil && *req.Version != existing.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}
	existing.Entries = entries
	existing.Credits = credits
	if err := s.repo.SavedSchedule.Update(ctx, existing); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新保存课表失败", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, err
	}
	s.logger.Info("更新保存课表",
		zap.String("user_id", userID),
		zap.String("term", existing.TermKey),
		zap.Int("version", existing.Version),
	)
	return toSaveResponse(existing), nil
}

// ────────────────────── Load ──────────────────────

func (s *savedScheduleService) Load(ctx context.Context, userID, sessionID string, req *dto.LoadScheduleRequest) (*dto.LoadScheduleResponse, error) {
	term, err := catalog.ParseTerm(req.Year, req.Term)
	if err != nil {
		return nil, err
	}
	record, err := s.repo.SavedSchedule.GetByUserAndTerm(ctx, userID, term.Key())
	if errors.Is(err, pkgerrors.ErrRecordNotFound) {
		return nil, ErrSavedScheduleNotFound
	}
	if err != nil {
		return nil, err
	}

	resp := &dto.LoadScheduleResponse{
		TermKey: record.TermKey,
		Version: record.Version,
		Dropped: []dto.DroppedEntryResponse{},
	}
	err = s.store.withSession(sessionID, func(sess *plannerSession) error {
		sess.controller.Clear()
		for _, e := range record.Entries {
			result := sess.controller.Add(e.Section)
			if result.Accepted() {
				resp.Loaded++
				continue
			}
			resp.Dropped = append(resp.Dropped, dto.DroppedEntryResponse{
				CourseCode:   e.Section.CourseCode,
				SectionLabel: e.Section.SectionLabel,
				Reason:       result.Err.Error(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Dropped) > 0 {
		s.logger.Warn("载入课表时丢弃了部分条目",
			zap.String("user_id", userID),
			zap.String("term", record.TermKey),
			zap.Int("dropped", len(resp.Dropped)),
		)
	}

	resp.Session, err = s.planner.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ────────────────────── List / Delete ──────────────────────

func (s *savedScheduleService) List(ctx context.Context, userID string) ([]dto.SavedScheduleSummary, error) {
	records, err := s.repo.SavedSchedule.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SavedScheduleSummary, 0, len(records))
	for _, r := range records {
		out = append(out, dto.SavedScheduleSummary{
			ID:        r.ID,
			TermKey:   r.TermKey,
			Version:   r.Version,
			Entries:   len(r.Entries),
			Credits:   r.Credits,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return out, nil
}

func (s *savedScheduleService) Delete(ctx context.Context, userID string, q *dto.TermQuery) error {
	term, err := catalog.ParseTerm(q.Year, q.Term)
	if err != nil {
		return err
	}
	err = s.repo.SavedSchedule.DeleteByUserAndTerm(ctx, userID, term.Key())
	if errors.Is(err, pkgerrors.ErrRecordNotFound) {
		return ErrSavedScheduleNotFound
	}
	return err
}

func toSaveResponse(r *model.SavedSchedule) *dto.SaveScheduleResponse {
	savedAt := r.UpdatedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	return &dto.SaveScheduleResponse{
		ID:      r.ID,
		TermKey: r.TermKey,
		Version: r.Version,
		Entries: len(r.Entries),
		Credits: r.Credits,
		SavedAt: savedAt,
	}
}

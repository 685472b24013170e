package service

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/catalog"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/planner"
)

// ErrSessionNotFound 会话不存在或已被清理
var ErrSessionNotFound = errors.New("排课会话不存在或已过期")

// ── 排课会话 ──
//
// 每个会话独占一个 planner.Controller。HTTP 请求并发到达，
// 会话级互斥锁把同一会话的操作串行化，课表本身保持无锁。
// 课程目录加载在锁外进行，由 generation 判断结果是否过期。

type notice struct {
	kind      string
	message   string
	expiresAt time.Time
}

// plannerSession 单个用户的排课状态
type plannerSession struct {
	mu sync.Mutex

	id         string
	createdAt  time.Time
	lastActive time.Time

	controller *planner.Controller
	selection  *catalog.CourseSections
	generation uint64
	notices    []notice
}

// activeNotices 丢弃过期提示并返回剩余的
func (s *plannerSession) activeNotices(now time.Time) []notice {
	kept := s.notices[:0]
	for _, n := range s.notices {
		if now.Before(n.expiresAt) {
			kept = append(kept, n)
		}
	}
	s.notices = kept
	return kept
}

func (s *plannerSession) pushNotice(n notice) {
	s.notices = append(s.notices, n)
}

// SessionStore 进程内会话注册表
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*plannerSession

	palette []string
	logger  *zap.Logger
	now     func() time.Time
	// afterLookup 测试钩子：查到会话、尚未加锁时调用
	afterLookup func(id string)
}

// NewSessionStore 创建会话注册表
func NewSessionStore(palette []string, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*plannerSession),
		palette:  palette,
		logger:   logger,
		now:      time.Now,
	}
}

// create 新建会话
func (st *SessionStore) create() *plannerSession {
	now := st.now()
	sess := &plannerSession{
		id:         uuid.New().String(),
		createdAt:  now,
		lastActive: now,
		controller: planner.NewController(planner.NewSchedule(st.palette), st.logger),
	}

	st.mu.Lock()
	st.sessions[sess.id] = sess
	st.mu.Unlock()

	st.logger.Debug("创建排课会话", zap.String("session_id", sess.id))
	return sess
}

// acquire 取得会话并加锁，调用方必须调用返回的 release
func (st *SessionStore) acquire(id string) (*plannerSession, func(), error) {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, nil, ErrSessionNotFound
	}
	if st.afterLookup != nil {
		st.afterLookup(id)
	}

	sess.mu.Lock()
	// 查找与加锁之间可能已被 Sweep 移除，此时的修改会丢失
	st.mu.RLock()
	current := st.sessions[id]
	st.mu.RUnlock()
	if current != sess {
		sess.mu.Unlock()
		return nil, nil, ErrSessionNotFound
	}
	sess.lastActive = st.now()
	return sess, sess.mu.Unlock, nil
}

// withSession 在会话锁内执行 fn
func (st *SessionStore) withSession(id string, fn func(*plannerSession) error) error {
	sess, release, err := st.acquire(id)
	if err != nil {
		return err
	}
	defer release()
	return fn(sess)
}

// Sweep 清理空闲超过 idleTTL 的会话，返回清理数量
func (st *SessionStore) Sweep(idleTTL time.Duration) int {
	cutoff := st.now().Add(-idleTTL)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, sess := range st.sessions {
		// 正在处理请求的会话跳过
		if !sess.mu.TryLock() {
			continue
		}
		idle := sess.lastActive.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Len 当前会话数
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// snapshot 复制会话课表，供导出与保存在锁外使用
func (st *SessionStore) snapshot(id string) (*planner.Schedule, error) {
	var copied *planner.Schedule
	err := st.withSession(id, func(sess *plannerSession) error {
		copied = planner.NewSchedule(st.palette)
		for _, e := range sess.controller.Schedule().Entries() {
			if _, _, err := copied.Put(e.Section); err != nil {
				return err
			}
		}
		return nil
	})
	return copied, err
}

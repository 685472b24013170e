package service

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/planner"
)

func TestSessionStore_Sweep(t *testing.T) {
	store := NewSessionStore(planner.DefaultPalette, zap.NewNop())
	now := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	idle := store.create()
	now = now.Add(2 * time.Hour)
	active := store.create()

	if removed := store.Sweep(time.Hour); removed != 1 {
		t.Errorf("期望清理 1 个会话，实际 %d", removed)
	}
	if err := store.withSession(idle.id, func(*plannerSession) error { return nil }); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("空闲会话应被清理，实际 %v", err)
	}
	if err := store.withSession(active.id, func(*plannerSession) error { return nil }); err != nil {
		t.Errorf("活跃会话应保留，实际 %v", err)
	}
}

func TestSessionStore_SweepSkipsBusySession(t *testing.T) {
	store := NewSessionStore(planner.DefaultPalette, zap.NewNop())
	now := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	sess := store.create()
	now = now.Add(24 * time.Hour)

	// 正在处理请求的会话不清理
	sess.mu.Lock()
	removed := store.Sweep(time.Hour)
	sess.mu.Unlock()
	if removed != 0 || store.Len() != 1 {
		t.Errorf("加锁中的会话不应被清理，removed=%d len=%d", removed, store.Len())
	}
}

func TestSessionStore_AcquireAfterSweepRemoval(t *testing.T) {
	store := NewSessionStore(planner.DefaultPalette, zap.NewNop())
	now := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	sess := store.create()
	now = now.Add(24 * time.Hour)

	// 查到会话后、加锁前被清理
	store.afterLookup = func(string) {
		if removed := store.Sweep(time.Hour); removed != 1 {
			t.Errorf("期望清理 1 个会话，实际 %d", removed)
		}
	}

	called := false
	err := store.withSession(sess.id, func(*plannerSession) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("期望 ErrSessionNotFound，实际 %v", err)
	}
	if called {
		t.Error("已清理的会话不应再执行操作")
	}
	// 锁已释放
	if !sess.mu.TryLock() {
		t.Error("期望会话锁已释放")
	}
}

func TestSessionStore_SnapshotIsIndependent(t *testing.T) {
	store := NewSessionStore(planner.DefaultPalette, zap.NewNop())
	sess := store.create()
	sess.controller.Add(section("CMPT 120", "D100", planner.ComponentLecture, block("Mo", "10:30", "11:20")))

	snap, err := store.snapshot(sess.id)
	if err != nil {
		t.Fatal(err)
	}
	sess.controller.Clear()
	if snap.Len() != 1 {
		t.Errorf("快照不应受原课表修改影响，实际 %d", snap.Len())
	}
}

func TestSessionJanitor_Sweeps(t *testing.T) {
	store := NewSessionStore(planner.DefaultPalette, zap.NewNop())
	store.create()
	// 调度器启动前替换时钟：会话视为已空闲一小时
	store.now = func() time.Time { return time.Now().Add(time.Hour) }

	j, err := NewSessionJanitor(store, 20*time.Millisecond, time.Minute, zap.NewNop())
	if err != nil {
		t.Fatalf("创建清理任务失败: %v", err)
	}
	j.Start()
	defer func() { _ = j.Shutdown() }()

	deadline := time.After(2 * time.Second)
	for store.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("清理任务未按时执行")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

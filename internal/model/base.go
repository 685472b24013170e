package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/planner"
)

// ── JSON 列自定义类型 ──

// EntryList 课表条目列表，以 JSON 存入 jsonb（postgres）或 TEXT（sqlite）列，
// 实现 GORM Scanner/Valuer 接口。
type EntryList []planner.ScheduleEntry

// Scan 将数据库返回的 JSON 文本解析为条目列表。
func (l *EntryList) Scan(src interface{}) error {
	if src == nil {
		*l = EntryList{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("EntryList.Scan: unsupported type %T", src)
	}
	if len(data) == 0 {
		*l = EntryList{}
		return nil
	}
	var entries []planner.ScheduleEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("EntryList.Scan: %w", err)
	}
	*l = entries
	return nil
}

// Value 序列化为 JSON 文本；nil 存为空数组。
func (l EntryList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]planner.ScheduleEntry(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// BaseModel 通用时间戳字段
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// VersionedModel 支持乐观锁的模型
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}

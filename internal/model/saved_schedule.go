package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SavedSchedule 用户保存的学期课表
// 对应数据库表: saved_schedules；(user_id, term_key) 唯一
type SavedSchedule struct {
	ID      string    `gorm:"column:id;type:uuid;primaryKey"                                    json:"id"`
	UserID  string    `gorm:"type:varchar(64);not null;uniqueIndex:uq_saved_schedules_user_term" json:"user_id"`
	TermKey string    `gorm:"type:varchar(32);not null;uniqueIndex:uq_saved_schedules_user_term" json:"term_key"`
	Entries EntryList `gorm:"type:jsonb;not null"                                               json:"entries"`
	Credits int       `gorm:"not null;default:0"                                                json:"credits"`
	VersionedModel
}

func (SavedSchedule) TableName() string { return "saved_schedules" }

// BeforeCreate 生成主键（sqlite 无 gen_random_uuid）
func (s *SavedSchedule) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}

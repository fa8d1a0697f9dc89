package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	// ThemeSystem 跟随系统
	ThemeSystem = "system"
	// ThemeLight 浅色主题
	ThemeLight = "light"
	// ThemeDark 深色主题
	ThemeDark = "dark"
)

// User 用户模型
type User struct {
	ID                  uint           `json:"id" gorm:"primaryKey"`
	Username            string         `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Password            string         `json:"-" gorm:"size:255;not null"`
	Email               string         `json:"email" gorm:"size:100"`
	Nickname            string         `json:"nickname" gorm:"size:50"`
	ProfileImage        string         `json:"profile_image" gorm:"size:255"`
	Theme               string         `json:"theme" gorm:"size:20;default:system"` // 主题：system/light/dark
	NotificationEnabled bool           `json:"notification_enabled" gorm:"default:true"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}

// IsValidTheme 校验主题取值
func IsValidTheme(theme string) bool {
	switch theme {
	case ThemeSystem, ThemeLight, ThemeDark:
		return true
	}
	return false
}

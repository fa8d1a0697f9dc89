package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	// CategoryTypeIncome 收入类别
	CategoryTypeIncome = "INCOME"
	// CategoryTypeExpense 支出类别
	CategoryTypeExpense = "EXPENSE"
)

// Category 收支类别模型（按用户维护）
type Category struct {
	ID        uint           `json:"category_id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	Name      string         `json:"name" gorm:"size:50;not null"`
	Type      string         `json:"type" gorm:"size:10;not null;default:EXPENSE"` // 类型：INCOME/EXPENSE
	SortOrder int            `json:"sort_order" gorm:"default:0;index"`            // 展示排序，允许不连续
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	User      User           `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Category) TableName() string {
	return "categories"
}

// IsValidCategoryType 校验类别类型取值
func IsValidCategoryType(t string) bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// 常见的结算方式类型标签（type 字段为自由文本，这里只是默认值参考）
const (
	PaymentTypeCard = "CARD"
	PaymentTypeBank = "BANK"
	PaymentTypeCash = "CASH"
)

// DefaultPaymentColor 未设置颜色时的默认灰色
const DefaultPaymentColor = "#64748b"

// PaymentMethod 结算方式模型（信用卡、银行账户、现金等）
type PaymentMethod struct {
	ID        uint           `json:"payment_method_id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	Name      string         `json:"name" gorm:"size:50;not null"`
	Type      string         `json:"type" gorm:"size:20"` // 类型标签，如 CARD/BANK/CASH
	Color     string         `json:"color" gorm:"size:7"` // 颜色代码，如 #3b82f6，用于图表分组展示
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	User      User           `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (PaymentMethod) TableName() string {
	return "payment_methods"
}

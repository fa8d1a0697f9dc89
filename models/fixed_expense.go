package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentDayFlexible 不固定扣款日的哨兵值。
// 列表排序时视为排在所有具体日期（1~31）之后。
const PaymentDayFlexible = 0

// FlexibleSortDay 不固定扣款日参与排序时使用的等效日期
const FlexibleSortDay = 99

// FixedExpense 固定支出模型：每月重复发生的支出定义（房租、订阅等）。
// 本身不携带已缴/未缴状态，月度状态由 ExpenseHistory 记录。
type FixedExpense struct {
	ID              uint            `json:"expense_id" gorm:"primaryKey"`
	UserID          uint            `json:"user_id" gorm:"index;not null"`
	Name            string          `json:"name" gorm:"size:100;not null"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:decimal(15,2);not null"`
	PaymentDay      int             `json:"payment_day" gorm:"not null"` // 扣款日 1~31，0 表示不固定
	CategoryID      *uint           `json:"category_id" gorm:"index"`
	PaymentMethodID *uint           `json:"payment_method_id" gorm:"index"`
	Memo            string          `json:"memo" gorm:"type:text"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `json:"-" gorm:"index"`
	User            User            `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (FixedExpense) TableName() string {
	return "fixed_expenses"
}

// SortDay 返回参与排序的等效扣款日，不固定日排在最后
func (e *FixedExpense) SortDay() int {
	if e.PaymentDay == PaymentDayFlexible {
		return FlexibleSortDay
	}
	return e.PaymentDay
}

// IsValidPaymentDay 校验扣款日取值（0 表示不固定）
func IsValidPaymentDay(day int) bool {
	return day == PaymentDayFlexible || (day >= 1 && day <= 31)
}

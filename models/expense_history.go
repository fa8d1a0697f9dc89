package models

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

var yearMonthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ExpenseHistory 固定支出的月度缴费记录。
// (expense_id, year_month) 唯一，一条记录对应一个支出在一个自然月的状态。
// amount 是切换状态时从固定支出快照下来的金额，之后支出金额被修改也不回填，
// 以保证历史月份金额的准确性。
//
// 不使用软删除：软删除的残留行会占住唯一索引，导致同月无法重新写入。
type ExpenseHistory struct {
	ID        uint            `json:"history_id" gorm:"primaryKey"`
	ExpenseID uint            `json:"expense_id" gorm:"uniqueIndex:idx_expense_month;not null"`
	YearMonth string          `json:"year_month" gorm:"column:year_month;size:7;uniqueIndex:idx_expense_month;not null"` // 格式 YYYY-MM
	IsPaid    bool            `json:"is_paid" gorm:"default:false"`
	PaidDate  *time.Time      `json:"paid_date"` // 标记已缴时写入，标记未缴时清空
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(15,2);not null"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName 设置表名
func (ExpenseHistory) TableName() string {
	return "fixed_expense_history"
}

// YearMonthKey 生成月份键，格式 YYYY-MM（月份补零）
func YearMonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// IsValidYearMonth 校验月份键格式
func IsValidYearMonth(ym string) bool {
	return yearMonthPattern.MatchString(ym)
}

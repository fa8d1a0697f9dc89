// Package service 聚合计算与外部服务。
// 月度汇总/图表统计/列表增强只在这里实现一份，
// MySQL 模式和本地模式通过同一入口计算，保证两种后端行为一致。
package service

import (
	"sort"
	"time"

	"fixedpay/models"

	"github.com/shopspring/decimal"
)

// 未关联结算方式时的展示兜底
const (
	UnassignedMethodName  = "未指定"
	UnassignedMethodColor = "#ccc"
)

// MonthSummary 月度汇总：总额、已缴、待缴
type MonthSummary struct {
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
}

// PaymentStat 按结算方式聚合的金额统计（图表用）
type PaymentStat struct {
	PaymentMethodID    uint            `json:"payment_method_id"` // 0 表示未指定
	PaymentMethodName  string          `json:"payment_method_name"`
	PaymentMethodColor string          `json:"payment_method_color"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
}

// MonthExpenseItem 月度列表项：固定支出附加当月缴费状态和结算方式展示信息
type MonthExpenseItem struct {
	models.FixedExpense
	IsPaid             bool       `json:"is_paid"`
	PaidDate           *time.Time `json:"paid_date"`
	PaymentMethodName  string     `json:"payment_method_name"`
	PaymentMethodColor string     `json:"payment_method_color"`
}

// historyByExpense 建立 (expense_id -> 当月缴费记录) 索引。
// 入参 history 应已按月份过滤；这里再按 yearMonth 过滤一次，
// 调用方传入跨月数据也不会算错。
func historyByExpense(history []models.ExpenseHistory, yearMonth string) map[uint]*models.ExpenseHistory {
	index := make(map[uint]*models.ExpenseHistory, len(history))
	for i := range history {
		if history[i].YearMonth == yearMonth {
			index[history[i].ExpenseID] = &history[i]
		}
	}
	return index
}

// BuildMonthSummary 计算指定月份的汇总。
// total 为全部固定支出金额之和；paid 为当月存在 is_paid=true 缴费记录的
// 支出金额之和；remaining = total - paid。全程定点数运算，
// paid + remaining 精确等于 total。
func BuildMonthSummary(expenses []models.FixedExpense, history []models.ExpenseHistory, yearMonth string) MonthSummary {
	paidIndex := historyByExpense(history, yearMonth)

	total := decimal.Zero
	paid := decimal.Zero
	for i := range expenses {
		total = total.Add(expenses[i].Amount)
		if h, ok := paidIndex[expenses[i].ID]; ok && h.IsPaid {
			paid = paid.Add(expenses[i].Amount)
		}
	}
	return MonthSummary{
		TotalAmount:     total,
		PaidAmount:      paid,
		RemainingAmount: total.Sub(paid),
	}
}

// BuildPaymentStats 按结算方式分组汇总固定支出金额。
// 未关联结算方式的支出归入“未指定”分组，不会被丢弃。
// 输出顺序为各分组在支出列表中首次出现的顺序，对相同输入保持稳定。
func BuildPaymentStats(expenses []models.FixedExpense, methods []models.PaymentMethod) []PaymentStat {
	methodIndex := make(map[uint]*models.PaymentMethod, len(methods))
	for i := range methods {
		methodIndex[methods[i].ID] = &methods[i]
	}

	stats := make([]PaymentStat, 0)
	position := make(map[uint]int)
	for i := range expenses {
		var key uint // 0 = 未指定
		name := UnassignedMethodName
		color := UnassignedMethodColor
		if id := expenses[i].PaymentMethodID; id != nil {
			if m, ok := methodIndex[*id]; ok {
				key = m.ID
				name = m.Name
				color = m.Color
			}
		}
		pos, ok := position[key]
		if !ok {
			pos = len(stats)
			position[key] = pos
			stats = append(stats, PaymentStat{
				PaymentMethodID:    key,
				PaymentMethodName:  name,
				PaymentMethodColor: color,
				TotalAmount:        decimal.Zero,
			})
		}
		stats[pos].TotalAmount = stats[pos].TotalAmount.Add(expenses[i].Amount)
	}
	return stats
}

// BuildMonthList 生成指定月份的支出列表：附加缴费状态、结算方式名称/颜色，
// 并按扣款日升序排序，不固定扣款日（哨兵值）排在所有具体日期之后。
func BuildMonthList(expenses []models.FixedExpense, history []models.ExpenseHistory,
	methods []models.PaymentMethod, yearMonth string) []MonthExpenseItem {

	paidIndex := historyByExpense(history, yearMonth)
	methodIndex := make(map[uint]*models.PaymentMethod, len(methods))
	for i := range methods {
		methodIndex[methods[i].ID] = &methods[i]
	}

	list := make([]MonthExpenseItem, 0, len(expenses))
	for i := range expenses {
		item := MonthExpenseItem{
			FixedExpense:       expenses[i],
			PaymentMethodName:  UnassignedMethodName,
			PaymentMethodColor: UnassignedMethodColor,
		}
		if h, ok := paidIndex[expenses[i].ID]; ok {
			item.IsPaid = h.IsPaid
			item.PaidDate = h.PaidDate
		}
		if id := expenses[i].PaymentMethodID; id != nil {
			if m, ok := methodIndex[*id]; ok {
				item.PaymentMethodName = m.Name
				item.PaymentMethodColor = m.Color
			}
		}
		list = append(list, item)
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].SortDay() < list[j].SortDay()
	})
	return list
}

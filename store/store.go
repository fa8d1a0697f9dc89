// Package store 定义实体存储接口及其两种可互换实现：
// MySQL（gorm）与本地 JSON 快照。仪表盘聚合、状态切换、类别排序
// 等业务语义只写一份，通过该接口对接不同后端。
package store

import (
	"errors"

	"fixedpay/models"
)

var (
	// ErrNotFound 目标记录不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrConflict 唯一性冲突（用户名已存在等）
	ErrConflict = errors.New("记录已存在")
)

// CategoryOrder 类别排序批量更新的单项
type CategoryOrder struct {
	CategoryID uint `json:"category_id" binding:"required"`
	SortOrder  int  `json:"sort_order"`
}

// Store 实体存储接口。所有操作均以 userID 限定归属范围，
// 跨用户的 id 一律按不存在处理。
type Store interface {
	// 用户。DeleteUser 级联删除名下全部类别、结算方式、固定支出、
	// 缴费记录和重置验证码，整体成功或整体失败。
	CreateUser(user *models.User) error
	GetUserByID(id uint) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateUser(id uint, updates map[string]interface{}) error
	DeleteUser(id uint) error

	// 类别。List 按 sort_order 升序，相同时按名称升序。
	// Reorder 批量写入排序值，事务化：任何一项失败则整批回滚。
	ListCategories(userID uint) ([]models.Category, error)
	GetCategory(userID, id uint) (*models.Category, error)
	CreateCategory(cat *models.Category) error
	UpdateCategory(userID, id uint, updates map[string]interface{}) error
	DeleteCategory(userID, id uint) error
	ReorderCategories(userID uint, orders []CategoryOrder) error

	// 结算方式。删除后引用它的固定支出 payment_method_id 置空。
	ListPaymentMethods(userID uint) ([]models.PaymentMethod, error)
	CreatePaymentMethod(pm *models.PaymentMethod) error
	DeletePaymentMethod(userID, id uint) error

	// 固定支出。List 按扣款日升序。删除级联删除其缴费记录。
	ListExpenses(userID uint) ([]models.FixedExpense, error)
	GetExpense(userID, id uint) (*models.FixedExpense, error)
	CreateExpense(expense *models.FixedExpense) error
	UpdateExpense(userID, id uint, updates map[string]interface{}) error
	DeleteExpense(userID, id uint) error

	// 月度缴费记录。ToggleExpenseStatus 原子地插入或覆盖
	// (expense_id, year_month) 唯一行：快照支出当前金额，
	// 已缴写入 paid_date=now，未缴清空 paid_date。
	ListHistory(userID uint, yearMonth string) ([]models.ExpenseHistory, error)
	ToggleExpenseStatus(userID, expenseID uint, yearMonth string, isPaid bool) (*models.ExpenseHistory, error)

	// 密码重置验证码
	CreatePasswordReset(reset *models.PasswordReset) error
	GetPasswordReset(email, token string) (*models.PasswordReset, error)
	LatestActivePasswordReset(userID uint) (*models.PasswordReset, error)
	MarkPasswordResetUsed(id uint) error
	InvalidatePasswordResets(userID uint) error

	Close() error
}

package store

import (
	"errors"
	"time"

	"fixedpay/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore 基于 gorm/MySQL 的实体存储实现
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 创建 gorm 存储
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// wrapNotFound 将 gorm 的未找到错误映射为存储层错误
func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ============== 用户 ==============

func (s *GormStore) CreateUser(user *models.User) error {
	return s.db.Create(user).Error
}

func (s *GormStore) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (s *GormStore) UpdateUser(id uint, updates map[string]interface{}) error {
	result := s.db.Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser 删除用户及其名下全部数据，整体成功或整体失败
func (s *GormStore) DeleteUser(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return wrapNotFound(err)
		}
		// 缴费记录按支出归属删除（无软删除，直接物理删除）
		if err := tx.Where("expense_id IN (?)",
			tx.Model(&models.FixedExpense{}).Select("id").Where("user_id = ?", id),
		).Delete(&models.ExpenseHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.FixedExpense{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Category{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.PaymentMethod{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.PasswordReset{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}

// ============== 类别 ==============

func (s *GormStore) ListCategories(userID uint) ([]models.Category, error) {
	var list []models.Category
	if err := s.db.Where("user_id = ?", userID).
		Order("sort_order ASC, name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *GormStore) GetCategory(userID, id uint) (*models.Category, error) {
	var cat models.Category
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&cat).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &cat, nil
}

func (s *GormStore) CreateCategory(cat *models.Category) error {
	return s.db.Create(cat).Error
}

func (s *GormStore) UpdateCategory(userID, id uint, updates map[string]interface{}) error {
	result := s.db.Model(&models.Category{}).
		Where("id = ? AND user_id = ?", id, userID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory 删除类别，引用它的固定支出 category_id 置空
func (s *GormStore) DeleteCategory(userID, id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var cat models.Category
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&cat).Error; err != nil {
			return wrapNotFound(err)
		}
		if err := tx.Model(&models.FixedExpense{}).
			Where("category_id = ? AND user_id = ?", id, userID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&cat).Error
	})
}

// ReorderCategories 批量更新排序值。任何一项指向不存在（或他人）的
// 类别即整批回滚，排序值保持调用前状态。
func (s *GormStore) ReorderCategories(userID uint, orders []CategoryOrder) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range orders {
			result := tx.Model(&models.Category{}).
				Where("id = ? AND user_id = ?", item.CategoryID, userID).
				Update("sort_order", item.SortOrder)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrNotFound
			}
		}
		return nil
	})
}

// ============== 结算方式 ==============

func (s *GormStore) ListPaymentMethods(userID uint) ([]models.PaymentMethod, error) {
	var list []models.PaymentMethod
	if err := s.db.Where("user_id = ?", userID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *GormStore) CreatePaymentMethod(pm *models.PaymentMethod) error {
	return s.db.Create(pm).Error
}

// DeletePaymentMethod 删除结算方式，引用它的固定支出 payment_method_id 置空
func (s *GormStore) DeletePaymentMethod(userID, id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var pm models.PaymentMethod
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&pm).Error; err != nil {
			return wrapNotFound(err)
		}
		if err := tx.Model(&models.FixedExpense{}).
			Where("payment_method_id = ? AND user_id = ?", id, userID).
			Update("payment_method_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&pm).Error
	})
}

// ============== 固定支出 ==============

func (s *GormStore) ListExpenses(userID uint) ([]models.FixedExpense, error) {
	var list []models.FixedExpense
	// payment_day=0 表示扣款日不固定，排在所有具体日期之后
	if err := s.db.Where("user_id = ?", userID).
		Order("CASE WHEN payment_day = 0 THEN 99 ELSE payment_day END ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *GormStore) GetExpense(userID, id uint) (*models.FixedExpense, error) {
	var expense models.FixedExpense
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&expense).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &expense, nil
}

func (s *GormStore) CreateExpense(expense *models.FixedExpense) error {
	return s.db.Create(expense).Error
}

func (s *GormStore) UpdateExpense(userID, id uint, updates map[string]interface{}) error {
	result := s.db.Model(&models.FixedExpense{}).
		Where("id = ? AND user_id = ?", id, userID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpense 删除固定支出并级联删除其全部月度缴费记录
func (s *GormStore) DeleteExpense(userID, id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var expense models.FixedExpense
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&expense).Error; err != nil {
			return wrapNotFound(err)
		}
		if err := tx.Where("expense_id = ?", id).Delete(&models.ExpenseHistory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&expense).Error
	})
}

// ============== 月度缴费记录 ==============

func (s *GormStore) ListHistory(userID uint, yearMonth string) ([]models.ExpenseHistory, error) {
	var list []models.ExpenseHistory
	query := s.db.Where("expense_id IN (?)",
		s.db.Model(&models.FixedExpense{}).Select("id").Where("user_id = ?", userID))
	if yearMonth != "" {
		// YEAR_MONTH 是 MySQL 保留字，必须加反引号
		query = query.Where("`year_month` = ?", yearMonth)
	}
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ToggleExpenseStatus 标记某支出在某月的缴费状态。
// 单条 INSERT ... ON DUPLICATE KEY UPDATE，并发切换同一 (expense, month)
// 时由数据库串行化，不存在读写丢失。金额每次都从支出的当前值重新快照，
// 之前快照的值被覆盖（既有行为，见模型注释）。
func (s *GormStore) ToggleExpenseStatus(userID, expenseID uint, yearMonth string, isPaid bool) (*models.ExpenseHistory, error) {
	var expense models.FixedExpense
	if err := s.db.Where("id = ? AND user_id = ?", expenseID, userID).First(&expense).Error; err != nil {
		return nil, wrapNotFound(err)
	}

	var paidDate *time.Time
	if isPaid {
		now := time.Now()
		paidDate = &now
	}

	record := models.ExpenseHistory{
		ExpenseID: expenseID,
		YearMonth: yearMonth,
		IsPaid:    isPaid,
		PaidDate:  paidDate,
		Amount:    expense.Amount,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "expense_id"}, {Name: "year_month"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"is_paid":   isPaid,
			"paid_date": paidDate,
			"amount":    expense.Amount,
		}),
	}).Create(&record).Error; err != nil {
		return nil, err
	}

	// 冲突更新时 Create 不回填主键，重新读取落库后的行
	var saved models.ExpenseHistory
	if err := s.db.Where("expense_id = ? AND `year_month` = ?", expenseID, yearMonth).
		First(&saved).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &saved, nil
}

// ============== 密码重置 ==============

func (s *GormStore) CreatePasswordReset(reset *models.PasswordReset) error {
	return s.db.Create(reset).Error
}

func (s *GormStore) GetPasswordReset(email, token string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	if err := s.db.Where("email = ? AND token = ?", email, token).First(&reset).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &reset, nil
}

func (s *GormStore) LatestActivePasswordReset(userID uint) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	if err := s.db.Where("user_id = ? AND used = ? AND expires_at > ?",
		userID, false, time.Now()).Order("created_at DESC").First(&reset).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &reset, nil
}

func (s *GormStore) MarkPasswordResetUsed(id uint) error {
	return s.db.Model(&models.PasswordReset{}).Where("id = ?", id).
		Update("used", true).Error
}

func (s *GormStore) InvalidatePasswordResets(userID uint) error {
	return s.db.Model(&models.PasswordReset{}).
		Where("user_id = ? AND used = ?", userID, false).
		Update("used", true).Error
}

// Close 关闭底层连接池
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

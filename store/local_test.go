package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fixedpay/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func timeNowPlus(minutes int) time.Time {
	return time.Now().Add(time.Duration(minutes) * time.Minute)
}

func newMemStore(t *testing.T) *LocalStore {
	s, err := NewLocalStore("")
	require.NoError(t, err)
	return s
}

func seedUser(t *testing.T, s *LocalStore) *models.User {
	user := &models.User{Username: "tester", Password: "hashed", Email: "tester@example.com"}
	require.NoError(t, s.CreateUser(user))
	return user
}

func seedExpense(t *testing.T, s *LocalStore, userID uint, name, amount string, day int) *models.FixedExpense {
	expense := &models.FixedExpense{UserID: userID, Name: name, Amount: dec(amount), PaymentDay: day}
	require.NoError(t, s.CreateExpense(expense))
	return expense
}

func TestLocalStoreCreateUserConflict(t *testing.T) {
	s := newMemStore(t)
	seedUser(t, s)

	err := s.CreateUser(&models.User{Username: "tester"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLocalStoreToggleCreatesSingleRecord(t *testing.T) {
	s := newMemStore(t)
	user := seedUser(t, s)
	expense := seedExpense(t, s, user.ID, "房租", "1500.00", 25)

	record, err := s.ToggleExpenseStatus(user.ID, expense.ID, "2024-03", true)
	require.NoError(t, err)
	assert.True(t, record.IsPaid)
	assert.NotNil(t, record.PaidDate)
	assert.True(t, record.Amount.Equal(dec("1500.00")))

	// 重复切换覆盖同一条记录，不产生第二条
	record2, err := s.ToggleExpenseStatus(user.ID, expense.ID, "2024-03", false)
	require.NoError(t, err)
	assert.Equal(t, record.ID, record2.ID)
	assert.False(t, record2.IsPaid)
	assert.Nil(t, record2.PaidDate, "取消已缴后缴费日期应清空")

	history, err := s.ListHistory(user.ID, "2024-03")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestLocalStoreToggleResnapshotsAmount(t *testing.T) {
	s := newMemStore(t)
	user := seedUser(t, s)
	expense := seedExpense(t, s, user.ID, "房租", "1500.00", 25)

	record, err := s.ToggleExpenseStatus(user.ID, expense.ID, "2024-03", true)
	require.NoError(t, err)
	assert.True(t, record.Amount.Equal(dec("1500.00")))

	// 改价后历史快照不变
	require.NoError(t, s.UpdateExpense(user.ID, expense.ID, map[string]interface{}{
		"amount": dec("1800.00"),
	}))
	history, err := s.ListHistory(user.ID, "2024-03")
	require.NoError(t, err)
	assert.True(t, history[0].Amount.Equal(dec("1500.00")))

	// 再次切换时从当前金额重新快照
	record2, err := s.ToggleExpenseStatus(user.ID, expense.ID, "2024-03", true)
	require.NoError(t, err)
	assert.True(t, record2.Amount.Equal(dec("1800.00")))
}

func TestLocalStoreToggleMonthsIndependent(t *testing.T) {
	s := newMemStore(t)
	user := seedUser(t, s)
	expense := seedExpense(t, s, user.ID, "房租", "1500.00", 25)

	_, err := s.ToggleExpenseStatus(user.ID, expense.ID, "2024-03", true)
	require.NoError(t, err)
	_, err = s.ToggleExpenseStatus(user.ID, expense.ID, "2024-04", true)
	require.NoError(t, err)

	march, err := s.ListHistory(user.ID, "2024-03")
	require.NoError(t, err)
	april, err := s.ListHistory(user.ID, "2024-04")
	require.NoError(t, err)
	assert.Len(t, march, 1)
	assert.Len(t, april, 1)
}

func TestLocalStoreToggleUnknownExpense(t *testing.T) {
	s := newMemStore(t)
	user := seedUser(t, s)

	_, err := s.ToggleExpenseStatus(user.ID, 999, "2024-03", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreToggleOtherUsersExpense(t *testing.T) {
	s := newMemStore(t)
	owner := seedUser(t, s)
	expense := seedExpense(t, s, owner.ID, "房租", "1500.00", 25)

	other := &models.User{Username: "other", Password: "hashed"}
	require.NoError(t, s.CreateUser(other))

	_, err := s.ToggleExpenseStatus(other.ID, expense.ID, "2024-03", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreListExpensesOrder(t *testing.T) {
	s := newMemStore(t)
	user := seedUser(t, s)
	seedExpense(t, s, user.ID, "订阅", "30", models.PaymentDayFlexible)
	seedExpense(t, s, user.ID, "房租", "1500", 25)
	seedExpense(t, s, user.ID, "话费", "100", 5)

	list, err := s.ListExpenses(user.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "话费", list[0].Name)
	assert.Equal(t, "房租", list[1].Name)
	assert.Equal(t, "订阅", list[2].Name, "不固定扣款日排最后")
}

func TestLocalStoreDeleteExpenseCascades(t *testing.T) {
	s := newMemStore(t)
	user := seedUser(t, s)
	expense := seedExpense(t, s, user.ID, "房租", "1500", 25)
	_, err := s.ToggleExpenseStatus(user.ID, expense.ID, "2024-03", true)
	require.NoError(t, err)

	require.NoError(t, s.DeleteExpense(user.ID, expense.ID))

	history, err := s.ListHistory(user.ID, "")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestLocalStoreDeleteCategoryDetachesExpenses(t *testing.T) {
	s := newMemStore(t)
	user := seedUser(t, s)

	cat := &models.Category{UserID: user.ID, Name: "住房", Type: models.CategoryTypeExpense}
	require.NoError(t, s.CreateCategory(cat))

	expense := &models.FixedExpense{UserID: user.ID, Name: "房租", Amount: dec("1500"), PaymentDay: 25, CategoryID: &cat.ID}
	require.NoError(t, s.CreateExpense(expense))

	require.NoError(t, s.DeleteCategory(user.ID, cat.ID))

	got, err := s.GetExpense(user.ID, expense.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID, "支出本身保留，仅解除分类关联")
}

func TestLocalStoreDeletePaymentMethodDetachesExpenses(t *testing.T) {
	s := newMemStore(t)
	user := seedUser(t, s)

	pm := &models.PaymentMethod{UserID: user.ID, Name: "信用卡", Color: "#6366f1"}
	require.NoError(t, s.CreatePaymentMethod(pm))

	expense := &models.FixedExpense{UserID: user.ID, Name: "订阅", Amount: dec("30"), PaymentMethodID: &pm.ID}
	require.NoError(t, s.CreateExpense(expense))

	require.NoError(t, s.DeletePaymentMethod(user.ID, pm.ID))

	got, err := s.GetExpense(user.ID, expense.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PaymentMethodID)
}

func TestLocalStoreReorderAtomic(t *testing.T) {
	s := newMemStore(t)
	user := seedUser(t, s)

	a := &models.Category{UserID: user.ID, Name: "餐饮", SortOrder: 10}
	b := &models.Category{UserID: user.ID, Name: "交通", SortOrder: 20}
	require.NoError(t, s.CreateCategory(a))
	require.NoError(t, s.CreateCategory(b))

	// 其中一项不存在，整批不生效
	err := s.ReorderCategories(user.ID, []CategoryOrder{
		{CategoryID: a.ID, SortOrder: 99},
		{CategoryID: 12345, SortOrder: 1},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.ListCategories(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, list[0].SortOrder)
	assert.Equal(t, 20, list[1].SortOrder)

	// 正常整批更新
	require.NoError(t, s.ReorderCategories(user.ID, []CategoryOrder{
		{CategoryID: a.ID, SortOrder: 2},
		{CategoryID: b.ID, SortOrder: 1},
	}))
	list, err = s.ListCategories(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "交通", list[0].Name)
	assert.Equal(t, "餐饮", list[1].Name)
}

func TestLocalStoreListCategoriesOrder(t *testing.T) {
	s := newMemStore(t)
	user := seedUser(t, s)

	require.NoError(t, s.CreateCategory(&models.Category{UserID: user.ID, Name: "通信", SortOrder: 20}))
	require.NoError(t, s.CreateCategory(&models.Category{UserID: user.ID, Name: "交通", SortOrder: 20}))
	require.NoError(t, s.CreateCategory(&models.Category{UserID: user.ID, Name: "餐饮", SortOrder: 10}))

	list, err := s.ListCategories(user.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "餐饮", list[0].Name)
	// 相同排序值按名称升序
	assert.Equal(t, "交通", list[1].Name)
	assert.Equal(t, "通信", list[2].Name)
}

func TestLocalStoreDeleteUserCascades(t *testing.T) {
	s := newMemStore(t)
	user := seedUser(t, s)
	expense := seedExpense(t, s, user.ID, "房租", "1500", 25)
	_, err := s.ToggleExpenseStatus(user.ID, expense.ID, "2024-03", true)
	require.NoError(t, err)
	require.NoError(t, s.CreateCategory(&models.Category{UserID: user.ID, Name: "住房"}))
	require.NoError(t, s.CreatePaymentMethod(&models.PaymentMethod{UserID: user.ID, Name: "信用卡"}))

	require.NoError(t, s.DeleteUser(user.ID))

	_, err = s.GetUserByID(user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	expenses, _ := s.ListExpenses(user.ID)
	assert.Empty(t, expenses)
	history, _ := s.ListHistory(user.ID, "")
	assert.Empty(t, history)
	cats, _ := s.ListCategories(user.ID)
	assert.Empty(t, cats)
	methods, _ := s.ListPaymentMethods(user.ID)
	assert.Empty(t, methods)
}

func TestLocalStoreSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixedpay.json")

	s, err := NewLocalStore(path)
	require.NoError(t, err)
	user := seedUser(t, s)
	expense := seedExpense(t, s, user.ID, "房租", "1500.00", 25)
	_, err = s.ToggleExpenseStatus(user.ID, expense.ID, "2024-03", true)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// 快照文件已生成
	_, err = os.Stat(path)
	require.NoError(t, err)

	// 重新加载后数据完整
	s2, err := NewLocalStore(path)
	require.NoError(t, err)
	got, err := s2.GetUserByUsername("tester")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	expenses, err := s2.ListExpenses(user.ID)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.True(t, expenses[0].Amount.Equal(dec("1500.00")))

	history, err := s2.ListHistory(user.ID, "2024-03")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].IsPaid)

	// 续用快照中的 ID 序列，不会重复分配
	other := &models.FixedExpense{UserID: user.ID, Name: "网费", Amount: dec("200")}
	require.NoError(t, s2.CreateExpense(other))
	assert.Greater(t, other.ID, expense.ID)
}

func TestLocalStorePasswordResetLifecycle(t *testing.T) {
	s := newMemStore(t)
	user := seedUser(t, s)

	reset := &models.PasswordReset{UserID: user.ID, Token: "123456", Email: user.Email,
		ExpiresAt: timeNowPlus(10)}
	require.NoError(t, s.CreatePasswordReset(reset))

	got, err := s.GetPasswordReset(user.Email, "123456")
	require.NoError(t, err)
	assert.True(t, got.IsValid())

	latest, err := s.LatestActivePasswordReset(user.ID)
	require.NoError(t, err)
	assert.Equal(t, reset.ID, latest.ID)

	require.NoError(t, s.MarkPasswordResetUsed(reset.ID))
	got, err = s.GetPasswordReset(user.Email, "123456")
	require.NoError(t, err)
	assert.False(t, got.IsValid())

	_, err = s.LatestActivePasswordReset(user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

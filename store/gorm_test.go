package store

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return NewGormStore(gdb), mock
}

func TestGormToggleExpenseStatusUpsert(t *testing.T) {
	s, mock := newMockStore(t)

	// 读取支出取当前金额
	mock.ExpectQuery("SELECT \\* FROM `fixed_expenses`").
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "amount", "payment_day"}).
			AddRow(1, 1, "房租", "1500.00", 25))

	// 单条 upsert，冲突时覆盖状态与金额快照
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `fixed_expense_history` .*ON DUPLICATE KEY UPDATE").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	// 重新读取落库后的行。YEAR_MONTH 是 MySQL 保留字，断言列名带反引号
	mock.ExpectQuery("SELECT \\* FROM `fixed_expense_history` WHERE expense_id = \\? AND `year_month` = \\?").
		WithArgs(1, "2024-03").
		WillReturnRows(sqlmock.NewRows([]string{"id", "expense_id", "year_month", "is_paid", "amount"}).
			AddRow(7, 1, "2024-03", true, "1500.00"))

	record, err := s.ToggleExpenseStatus(1, 1, "2024-03", true)
	require.NoError(t, err)
	assert.Equal(t, uint(7), record.ID)
	assert.True(t, record.IsPaid)
	assert.True(t, record.Amount.Equal(dec("1500.00")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormListHistoryQuotesYearMonth(t *testing.T) {
	s, mock := newMockStore(t)

	// YEAR_MONTH 是 MySQL 保留字，不加反引号会触发 1064 语法错误
	mock.ExpectQuery("SELECT \\* FROM `fixed_expense_history` WHERE expense_id IN \\(SELECT .*\\) AND `year_month` = \\?").
		WithArgs(1, "2024-03").
		WillReturnRows(sqlmock.NewRows([]string{"id", "expense_id", "year_month", "is_paid", "amount"}).
			AddRow(7, 1, "2024-03", true, "1500.00"))

	list, err := s.ListHistory(1, "2024-03")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2024-03", list[0].YearMonth)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormToggleExpenseStatusUnknownExpense(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT \\* FROM `fixed_expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.ToggleExpenseStatus(1, 999, "2024-03", true)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReorderCategoriesRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `categories` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// 第二项没有命中任何行，整批回滚
	mock.ExpectExec("UPDATE `categories` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.ReorderCategories(1, []CategoryOrder{
		{CategoryID: 1, SortOrder: 2},
		{CategoryID: 12345, SortOrder: 1},
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReorderCategoriesCommits(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `categories` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `categories` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.ReorderCategories(1, []CategoryOrder{
		{CategoryID: 1, SortOrder: 2},
		{CategoryID: 2, SortOrder: 1},
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUpdateUserNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `users` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.UpdateUser(999, map[string]interface{}{"nickname": "新昵称"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormGetUserByUsernameNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetUserByUsername("nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

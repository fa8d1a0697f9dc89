package api_test

import (
	"net/http"
	"testing"

	"fixedpay/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateExpense(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.newUser(t, "alice")

	cat := &models.Category{UserID: user.ID, Name: "住房", Type: models.CategoryTypeExpense}
	require.NoError(t, env.store.CreateCategory(cat))

	w := env.do(t, http.MethodPost, "/api/v1/expenses", token, map[string]interface{}{
		"name":        "房租",
		"amount":      "1500.50",
		"payment_day": 25,
		"category_id": cat.ID,
		"memo":        "每月25日自动扣款",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var expense struct {
		ID         uint            `json:"expense_id"`
		Name       string          `json:"name"`
		Amount     decimal.Decimal `json:"amount"`
		PaymentDay int             `json:"payment_day"`
		CategoryID *uint           `json:"category_id"`
	}
	decodeData(t, w, &expense)
	assert.NotZero(t, expense.ID)
	assert.True(t, expense.Amount.Equal(dec("1500.50")))
	assert.Equal(t, 25, expense.PaymentDay)
	require.NotNil(t, expense.CategoryID)
	assert.Equal(t, cat.ID, *expense.CategoryID)
}

func TestCreateExpenseValidation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.newUser(t, "alice")

	// 金额必须大于0
	w := env.do(t, http.MethodPost, "/api/v1/expenses", token, map[string]interface{}{
		"name":   "房租",
		"amount": "-1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// payment_day 超出范围
	w = env.do(t, http.MethodPost, "/api/v1/expenses", token, map[string]interface{}{
		"name":        "房租",
		"amount":      "1500",
		"payment_day": 32,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 引用不存在的分类
	w = env.do(t, http.MethodPost, "/api/v1/expenses", token, map[string]interface{}{
		"name":        "房租",
		"amount":      "1500",
		"category_id": 999,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateExpenseFlexibleDay(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.newUser(t, "alice")

	// payment_day 省略即为不固定扣款日
	w := env.do(t, http.MethodPost, "/api/v1/expenses", token, map[string]interface{}{
		"name":   "订阅",
		"amount": "30",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var expense struct {
		PaymentDay int `json:"payment_day"`
	}
	decodeData(t, w, &expense)
	assert.Equal(t, models.PaymentDayFlexible, expense.PaymentDay)
}

func TestUpdateExpense(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.newUser(t, "alice")
	expense := &models.FixedExpense{UserID: user.ID, Name: "房租", Amount: dec("1500"), PaymentDay: 25}
	require.NoError(t, env.store.CreateExpense(expense))

	w := env.do(t, http.MethodPut, "/api/v1/expenses/"+itoa(expense.ID), token, map[string]interface{}{
		"amount": "1800",
		"memo":   "房东涨价",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got, err := env.store.GetExpense(user.ID, expense.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(dec("1800")))
	assert.Equal(t, "房东涨价", got.Memo)
	// 未提交的字段保持不变
	assert.Equal(t, 25, got.PaymentDay)
}

func TestUpdateExpenseDetachCategory(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.newUser(t, "alice")

	cat := &models.Category{UserID: user.ID, Name: "住房"}
	require.NoError(t, env.store.CreateCategory(cat))
	expense := &models.FixedExpense{UserID: user.ID, Name: "房租", Amount: dec("1500"), CategoryID: &cat.ID}
	require.NoError(t, env.store.CreateExpense(expense))

	// category_id=0 解除关联
	w := env.do(t, http.MethodPut, "/api/v1/expenses/"+itoa(expense.ID), token, map[string]interface{}{
		"category_id": 0,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got, err := env.store.GetExpense(user.ID, expense.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
}

func TestDeleteExpenseRemovesHistory(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.newUser(t, "alice")
	expense := &models.FixedExpense{UserID: user.ID, Name: "房租", Amount: dec("1500")}
	require.NoError(t, env.store.CreateExpense(expense))
	_, err := env.store.ToggleExpenseStatus(user.ID, expense.ID, "2024-03", true)
	require.NoError(t, err)

	w := env.do(t, http.MethodDelete, "/api/v1/expenses/"+itoa(expense.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	history, err := env.store.ListHistory(user.ID, "")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestExpenseOwnershipEnforced(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.newUser(t, "alice")
	expense := &models.FixedExpense{UserID: owner.ID, Name: "房租", Amount: dec("1500")}
	require.NoError(t, env.store.CreateExpense(expense))

	_, otherToken := env.newUser(t, "bob")

	w := env.do(t, http.MethodGet, "/api/v1/expenses/"+itoa(expense.ID), otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, "/api/v1/expenses/"+itoa(expense.ID), otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

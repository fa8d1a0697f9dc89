package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"fixedpay/models"

	"github.com/shopspring/decimal"
)

// LocalStore 本地单机模式的实体存储：数据常驻内存，每次写操作后
// 整体落盘为 JSON 快照（load-on-init / save-on-mutate）。
// 所有操作持锁串行执行，同一 (expense, month) 的并发状态切换
// 天然不会互相覆盖。
type LocalStore struct {
	mu   sync.Mutex
	path string // 快照文件路径，空则纯内存运行
	data snapshot
}

// snapshot 快照文件结构
type snapshot struct {
	Seq            uint                    `json:"seq"` // 全局自增 ID
	Users          []models.User           `json:"users"`
	Categories     []models.Category       `json:"categories"`
	PaymentMethods []models.PaymentMethod  `json:"payment_methods"`
	Expenses       []models.FixedExpense   `json:"fixed_expenses"`
	History        []models.ExpenseHistory `json:"fixed_expense_history"`
	PasswordResets []models.PasswordReset  `json:"password_resets"`
}

// NewLocalStore 创建本地存储并加载已有快照（如果存在）
func NewLocalStore(path string) (*LocalStore, error) {
	s := &LocalStore{path: path}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := json.Unmarshal(raw, &s.data); err != nil {
				return nil, fmt.Errorf("解析快照文件失败: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("读取快照文件失败: %w", err)
		}
	}
	return s, nil
}

// nextID 分配下一个实体 ID
func (s *LocalStore) nextID() uint {
	s.data.Seq++
	return s.data.Seq
}

// save 将当前内存数据整体写入快照文件（先写临时文件再原子替换）
func (s *LocalStore) save() error {
	if s.path == "" {
		return nil
	}
	raw, err := json.MarshalIndent(&s.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// ============== 用户 ==============

func (s *LocalStore) CreateUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Users {
		if s.data.Users[i].Username == user.Username {
			return ErrConflict
		}
	}
	user.ID = s.nextID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.data.Users = append(s.data.Users, *user)
	return s.save()
}

func (s *LocalStore) GetUserByID(id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Users {
		if s.data.Users[i].ID == id {
			user := s.data.Users[i]
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (s *LocalStore) GetUserByUsername(username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Users {
		if s.data.Users[i].Username == username {
			user := s.data.Users[i]
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (s *LocalStore) GetUserByEmail(email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Users {
		if email != "" && s.data.Users[i].Email == email {
			user := s.data.Users[i]
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (s *LocalStore) UpdateUser(id uint, updates map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Users {
		if s.data.Users[i].ID != id {
			continue
		}
		u := &s.data.Users[i]
		for key, value := range updates {
			switch key {
			case "nickname":
				u.Nickname = value.(string)
			case "profile_image":
				u.ProfileImage = value.(string)
			case "theme":
				u.Theme = value.(string)
			case "notification_enabled":
				u.NotificationEnabled = value.(bool)
			case "email":
				u.Email = value.(string)
			case "password":
				u.Password = value.(string)
			}
		}
		u.UpdatedAt = time.Now()
		return s.save()
	}
	return ErrNotFound
}

func (s *LocalStore) DeleteUser(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	users := s.data.Users[:0]
	for _, u := range s.data.Users {
		if u.ID == id {
			found = true
			continue
		}
		users = append(users, u)
	}
	if !found {
		return ErrNotFound
	}
	s.data.Users = users

	owned := make(map[uint]bool)
	expenses := s.data.Expenses[:0]
	for _, e := range s.data.Expenses {
		if e.UserID == id {
			owned[e.ID] = true
			continue
		}
		expenses = append(expenses, e)
	}
	s.data.Expenses = expenses

	history := s.data.History[:0]
	for _, h := range s.data.History {
		if !owned[h.ExpenseID] {
			history = append(history, h)
		}
	}
	s.data.History = history

	cats := s.data.Categories[:0]
	for _, c := range s.data.Categories {
		if c.UserID != id {
			cats = append(cats, c)
		}
	}
	s.data.Categories = cats

	methods := s.data.PaymentMethods[:0]
	for _, m := range s.data.PaymentMethods {
		if m.UserID != id {
			methods = append(methods, m)
		}
	}
	s.data.PaymentMethods = methods

	resets := s.data.PasswordResets[:0]
	for _, r := range s.data.PasswordResets {
		if r.UserID != id {
			resets = append(resets, r)
		}
	}
	s.data.PasswordResets = resets

	return s.save()
}

// ============== 类别 ==============

func (s *LocalStore) ListCategories(userID uint) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []models.Category
	for _, c := range s.data.Categories {
		if c.UserID == userID {
			list = append(list, c)
		}
	}
	// 排序值升序，相同时按名称升序
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].SortOrder != list[j].SortOrder {
			return list[i].SortOrder < list[j].SortOrder
		}
		return list[i].Name < list[j].Name
	})
	return list, nil
}

func (s *LocalStore) GetCategory(userID, id uint) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Categories {
		if s.data.Categories[i].ID == id && s.data.Categories[i].UserID == userID {
			cat := s.data.Categories[i]
			return &cat, nil
		}
	}
	return nil, ErrNotFound
}

func (s *LocalStore) CreateCategory(cat *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat.ID = s.nextID()
	cat.CreatedAt = time.Now()
	cat.UpdatedAt = cat.CreatedAt
	s.data.Categories = append(s.data.Categories, *cat)
	return s.save()
}

func (s *LocalStore) UpdateCategory(userID, id uint, updates map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Categories {
		if s.data.Categories[i].ID != id || s.data.Categories[i].UserID != userID {
			continue
		}
		c := &s.data.Categories[i]
		for key, value := range updates {
			switch key {
			case "name":
				c.Name = value.(string)
			case "type":
				c.Type = value.(string)
			case "sort_order":
				c.SortOrder = value.(int)
			}
		}
		c.UpdatedAt = time.Now()
		return s.save()
	}
	return ErrNotFound
}

func (s *LocalStore) DeleteCategory(userID, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	cats := s.data.Categories[:0]
	for _, c := range s.data.Categories {
		if c.ID == id && c.UserID == userID {
			found = true
			continue
		}
		cats = append(cats, c)
	}
	if !found {
		return ErrNotFound
	}
	s.data.Categories = cats

	// 引用该类别的固定支出置空
	for i := range s.data.Expenses {
		e := &s.data.Expenses[i]
		if e.UserID == userID && e.CategoryID != nil && *e.CategoryID == id {
			e.CategoryID = nil
		}
	}
	return s.save()
}

// ReorderCategories 批量更新排序值。先整批校验再应用：任何一项指向
// 不存在（或他人）的类别时不做任何修改，与 MySQL 实现的回滚语义一致。
func (s *LocalStore) ReorderCategories(userID uint, orders []CategoryOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := make(map[uint]int, len(s.data.Categories))
	for i := range s.data.Categories {
		if s.data.Categories[i].UserID == userID {
			index[s.data.Categories[i].ID] = i
		}
	}
	for _, item := range orders {
		if _, ok := index[item.CategoryID]; !ok {
			return ErrNotFound
		}
	}
	now := time.Now()
	for _, item := range orders {
		i := index[item.CategoryID]
		s.data.Categories[i].SortOrder = item.SortOrder
		s.data.Categories[i].UpdatedAt = now
	}
	return s.save()
}

// ============== 结算方式 ==============

func (s *LocalStore) ListPaymentMethods(userID uint) ([]models.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []models.PaymentMethod
	for _, m := range s.data.PaymentMethods {
		if m.UserID == userID {
			list = append(list, m)
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *LocalStore) CreatePaymentMethod(pm *models.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pm.ID = s.nextID()
	pm.CreatedAt = time.Now()
	pm.UpdatedAt = pm.CreatedAt
	s.data.PaymentMethods = append(s.data.PaymentMethods, *pm)
	return s.save()
}

func (s *LocalStore) DeletePaymentMethod(userID, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	methods := s.data.PaymentMethods[:0]
	for _, m := range s.data.PaymentMethods {
		if m.ID == id && m.UserID == userID {
			found = true
			continue
		}
		methods = append(methods, m)
	}
	if !found {
		return ErrNotFound
	}
	s.data.PaymentMethods = methods

	for i := range s.data.Expenses {
		e := &s.data.Expenses[i]
		if e.UserID == userID && e.PaymentMethodID != nil && *e.PaymentMethodID == id {
			e.PaymentMethodID = nil
		}
	}
	return s.save()
}

// ============== 固定支出 ==============

func (s *LocalStore) ListExpenses(userID uint) ([]models.FixedExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []models.FixedExpense
	for _, e := range s.data.Expenses {
		if e.UserID == userID {
			list = append(list, e)
		}
	}
	// 不固定扣款日（哨兵值）排在所有具体日期之后
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].SortDay() != list[j].SortDay() {
			return list[i].SortDay() < list[j].SortDay()
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (s *LocalStore) GetExpense(userID, id uint) (*models.FixedExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.findExpense(userID, id)
}

// findExpense 调用方必须已持锁
func (s *LocalStore) findExpense(userID, id uint) (*models.FixedExpense, error) {
	for i := range s.data.Expenses {
		if s.data.Expenses[i].ID == id && s.data.Expenses[i].UserID == userID {
			expense := s.data.Expenses[i]
			return &expense, nil
		}
	}
	return nil, ErrNotFound
}

func (s *LocalStore) CreateExpense(expense *models.FixedExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expense.ID = s.nextID()
	expense.CreatedAt = time.Now()
	expense.UpdatedAt = expense.CreatedAt
	s.data.Expenses = append(s.data.Expenses, *expense)
	return s.save()
}

func (s *LocalStore) UpdateExpense(userID, id uint, updates map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Expenses {
		if s.data.Expenses[i].ID != id || s.data.Expenses[i].UserID != userID {
			continue
		}
		e := &s.data.Expenses[i]
		for key, value := range updates {
			switch key {
			case "name":
				e.Name = value.(string)
			case "amount":
				e.Amount = value.(decimal.Decimal)
			case "payment_day":
				e.PaymentDay = value.(int)
			case "category_id":
				if value == nil {
					e.CategoryID = nil
				} else {
					e.CategoryID = value.(*uint)
				}
			case "payment_method_id":
				if value == nil {
					e.PaymentMethodID = nil
				} else {
					e.PaymentMethodID = value.(*uint)
				}
			case "memo":
				e.Memo = value.(string)
			}
		}
		e.UpdatedAt = time.Now()
		return s.save()
	}
	return ErrNotFound
}

func (s *LocalStore) DeleteExpense(userID, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	expenses := s.data.Expenses[:0]
	for _, e := range s.data.Expenses {
		if e.ID == id && e.UserID == userID {
			found = true
			continue
		}
		expenses = append(expenses, e)
	}
	if !found {
		return ErrNotFound
	}
	s.data.Expenses = expenses

	// 级联删除缴费记录
	history := s.data.History[:0]
	for _, h := range s.data.History {
		if h.ExpenseID != id {
			history = append(history, h)
		}
	}
	s.data.History = history
	return s.save()
}

// ============== 月度缴费记录 ==============

func (s *LocalStore) ListHistory(userID uint, yearMonth string) ([]models.ExpenseHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := make(map[uint]bool)
	for _, e := range s.data.Expenses {
		if e.UserID == userID {
			owned[e.ID] = true
		}
	}
	var list []models.ExpenseHistory
	for _, h := range s.data.History {
		if !owned[h.ExpenseID] {
			continue
		}
		if yearMonth != "" && h.YearMonth != yearMonth {
			continue
		}
		list = append(list, h)
	}
	return list, nil
}

// ToggleExpenseStatus 插入或覆盖 (expense, month) 的缴费记录，
// 金额从支出当前值重新快照。整个操作持锁执行。
func (s *LocalStore) ToggleExpenseStatus(userID, expenseID uint, yearMonth string, isPaid bool) (*models.ExpenseHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expense, err := s.findExpense(userID, expenseID)
	if err != nil {
		return nil, err
	}

	var paidDate *time.Time
	if isPaid {
		now := time.Now()
		paidDate = &now
	}

	for i := range s.data.History {
		h := &s.data.History[i]
		if h.ExpenseID == expenseID && h.YearMonth == yearMonth {
			h.IsPaid = isPaid
			h.PaidDate = paidDate
			h.Amount = expense.Amount
			h.UpdatedAt = time.Now()
			record := *h
			return &record, s.save()
		}
	}

	record := models.ExpenseHistory{
		ID:        s.nextID(),
		ExpenseID: expenseID,
		YearMonth: yearMonth,
		IsPaid:    isPaid,
		PaidDate:  paidDate,
		Amount:    expense.Amount,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.data.History = append(s.data.History, record)
	return &record, s.save()
}

// ============== 密码重置 ==============

func (s *LocalStore) CreatePasswordReset(reset *models.PasswordReset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reset.ID = s.nextID()
	reset.CreatedAt = time.Now()
	s.data.PasswordResets = append(s.data.PasswordResets, *reset)
	return s.save()
}

func (s *LocalStore) GetPasswordReset(email, token string) (*models.PasswordReset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.PasswordResets {
		r := s.data.PasswordResets[i]
		if r.Email == email && r.Token == token {
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (s *LocalStore) LatestActivePasswordReset(userID uint) (*models.PasswordReset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *models.PasswordReset
	for i := range s.data.PasswordResets {
		r := s.data.PasswordResets[i]
		if r.UserID != userID || r.Used || r.IsExpired() {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			record := r
			latest = &record
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (s *LocalStore) MarkPasswordResetUsed(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.PasswordResets {
		if s.data.PasswordResets[i].ID == id {
			s.data.PasswordResets[i].Used = true
			return s.save()
		}
	}
	return ErrNotFound
}

func (s *LocalStore) InvalidatePasswordResets(userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.PasswordResets {
		if s.data.PasswordResets[i].UserID == userID {
			s.data.PasswordResets[i].Used = true
		}
	}
	return s.save()
}

// Close 将当前数据刷盘
func (s *LocalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

var _ Store = (*LocalStore)(nil)
var _ Store = (*GormStore)(nil)

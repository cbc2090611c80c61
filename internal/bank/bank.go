// internal/bank/bank.go

// Package bank 定義核心商業邏輯：註冊、登入、存款、提款、轉帳、查詢與交易紀錄。
// 帳戶以 slice 保存（依註冊順序），查找為線性掃描。
// 每次成功變更後立即把完整快照交給 Persister 整檔覆寫。
// 金額一律使用 decimal.Decimal，避免浮點誤差。
package bank

import (
	"fmt"
	"sync"
	"time"

	"bankms/internal/money"
	"bankms/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Persister 接收完整帳戶快照並寫入持久層；storage.JSONFile 即為實作。
type Persister interface {
	Save(recs []storage.Record) error
}

// Confirm 在驗證通過、變更之前詢問使用者；回傳 false 即取消交易。
type Confirm func() bool

// Option 調整 Bank 的可選設定。
type Option func(*Bank)

// WithLogger 設定事件日誌；預設為 zap.NewNop()。
func WithLogger(l *zap.Logger) Option {
	return func(b *Bank) { b.log = l }
}

// WithClock 設定交易紀錄使用的時鐘，測試用。
func WithClock(now func() time.Time) Option {
	return func(b *Bank) { b.now = now }
}

// WithHashCost 設定 PIN 的 bcrypt cost。
func WithHashCost(cost int) Option {
	return func(b *Bank) { b.hashCost = cost }
}

// maxPinBytes 為 bcrypt 可接受的輸入上限（以 bytes 計，非字元數）。
const maxPinBytes = 72

// registration 為註冊輸入的驗證規則。
type registration struct {
	Username string `validate:"required,max=64"`
	Pin      string `validate:"required,maxbytes"`
}

// newValidator 建立註冊用的 validator，並註冊 maxbytes 規則。
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPinBytes
	})
	return v
}

// checkAmount 驗證金額為正且在可表示範圍內。
func checkAmount(amt decimal.Decimal) error {
	if !amt.IsPositive() || !money.InRange(amt) {
		return ErrBadAmount
	}
	return nil
}

// Bank 為聚合根 (Aggregate Root)：管理全系統帳戶。
// - mu：序列化所有讀寫；主控台之外唯一的呼叫者是 main 的訊號處理。
// - accts：依註冊順序排列，檔案輸出順序與此一致。
type Bank struct {
	mu    sync.Mutex
	accts []*Account

	store    Persister
	log      *zap.Logger
	now      func() time.Time
	hashCost int
	validate *validator.Validate
}

// NewBank 建立空白銀行實例。store 為 nil 時僅存在記憶體中。
func NewBank(store Persister, opts ...Option) *Bank {
	b := &Bank{
		store:    store,
		log:      zap.NewNop(),
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// find 線性搜尋帳戶；呼叫端須持有 mu。
func (b *Bank) find(username string) *Account {
	for _, a := range b.accts {
		if a.Username == username {
			return a
		}
	}
	return nil
}

// accountFor 取得 session 對應的帳戶；呼叫端須持有 mu。
func (b *Bank) accountFor(s *Session) (*Account, error) {
	if !s.Active() {
		return nil, ErrNotLoggedIn
	}
	a := b.find(s.Username)
	if a == nil {
		return nil, ErrNotLoggedIn
	}
	return a, nil
}

// Register 建立零餘額、無交易紀錄的新帳戶並寫檔。
// 名稱已存在回傳 ErrUsernameTaken；輸入格式不符回傳包裹 ErrInvalidInput 的錯誤。
func (b *Bank) Register(username, pin string) (*Account, error) {
	if err := b.validate.Struct(registration{Username: username, Pin: pin}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.find(username) != nil {
		return nil, ErrUsernameTaken
	}
	hash, err := hashPin(pin, b.hashCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	a := &Account{Username: username, Pin: hash, Balance: decimal.Zero, TransactionHistory: []string{}}
	b.accts = append(b.accts, a)
	b.log.Info("account registered", zap.String("username", username))
	return a.clone(), b.persistLocked()
}

// Login 以名稱與 PIN 精確比對帳戶，成功回傳新的 Session。
// 舊檔的明文 PIN 會在登入成功時升級為雜湊。
func (b *Bank) Login(username, pin string) (*Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.find(username)
	if a == nil {
		b.log.Info("login failed", zap.String("username", username), zap.String("reason", "unknown user"))
		return nil, ErrInvalidCredentials
	}
	ok, legacy := checkPin(a.Pin, pin)
	if !ok {
		b.log.Info("login failed", zap.String("username", username), zap.String("reason", "pin mismatch"))
		return nil, ErrInvalidCredentials
	}

	s := &Session{ID: uuid.New(), Username: a.Username, LoggedInAt: b.now()}
	b.log.Info("logged in", zap.String("username", a.Username), zap.Stringer("session_id", s.ID))

	if legacy {
		if hash, err := hashPin(pin, b.hashCost); err != nil {
			b.log.Warn("pin upgrade skipped", zap.String("username", a.Username), zap.Error(err))
		} else {
			a.Pin = hash
			// 升級失敗不影響登入，persistLocked 已記錄錯誤
			_ = b.persistLocked()
		}
	}
	return s, nil
}

// Logout 結束 session。
func (b *Bank) Logout(s *Session) {
	if !s.Active() {
		return
	}
	s.Close()
	b.log.Info("logged out", zap.String("username", s.Username), zap.Stringer("session_id", s.ID))
}

// Deposit 存款：需登入且金額 > 0（並在可表示範圍內），確認後加總餘額、追加紀錄並寫檔。
// 確認提示期間不持有鎖，確認後會再次驗證。
func (b *Bank) Deposit(s *Session, amt decimal.Decimal, confirm Confirm) (decimal.Decimal, error) {
	validate := func(a *Account) error {
		if err := checkAmount(amt); err != nil {
			return err
		}
		// 存入後不得超過餘額上限
		if a.Balance.Add(amt).GreaterThan(money.Max) {
			return ErrBadAmount
		}
		return nil
	}
	if err := b.check(s, validate); err != nil {
		return decimal.Zero, err
	}
	if confirm != nil && !confirm() {
		return decimal.Zero, ErrCancelled
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	a, err := b.accountFor(s)
	if err != nil {
		return decimal.Zero, err
	}
	if err := validate(a); err != nil {
		return decimal.Zero, err
	}
	a.Balance = a.Balance.Add(amt)
	a.addTransaction(b.now(), fmt.Sprintf("An amount of %s has been Deposited successfully to %s.", money.Format(amt), a.Username))
	b.log.Info("deposit", zap.String("username", a.Username), zap.Stringer("session_id", s.ID),
		zap.String("amount", money.Format(amt)), zap.String("balance", money.Format(a.Balance)))
	return a.Balance, b.persistLocked()
}

// Withdraw 提款：需登入且 0 < 金額 <= 餘額，確認後扣款、追加紀錄並寫檔。
// 確認後會再次檢查餘額，確保期間狀態未被改變。
func (b *Bank) Withdraw(s *Session, amt decimal.Decimal, confirm Confirm) (decimal.Decimal, error) {
	validate := func(a *Account) error {
		if err := checkAmount(amt); err != nil {
			return err
		}
		if a.Balance.LessThan(amt) {
			return ErrInsufficient
		}
		return nil
	}
	if err := b.check(s, validate); err != nil {
		return decimal.Zero, err
	}
	if confirm != nil && !confirm() {
		return decimal.Zero, ErrCancelled
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	a, err := b.accountFor(s)
	if err != nil {
		return decimal.Zero, err
	}
	if err := validate(a); err != nil {
		return decimal.Zero, err
	}
	a.Balance = a.Balance.Sub(amt)
	a.addTransaction(b.now(), fmt.Sprintf("A Withdrawal of amount %s has been successfully done from %s.", money.Format(amt), a.Username))
	b.log.Info("withdraw", zap.String("username", a.Username), zap.Stringer("session_id", s.ID),
		zap.String("amount", money.Format(amt)), zap.String("balance", money.Format(a.Balance)))
	return a.Balance, b.persistLocked()
}

// Transfer 轉帳為「單一臨界區內」的操作：
// 1) 檢核 session 與收款人 → 2) 檢查金額與餘額 → 3) 扣款與入帳 → 4) 雙邊紀錄 → 5) 寫檔一次。
// 任一檢核失敗皆不會改變任何帳戶狀態。回傳寄款人的新餘額。
// 收款人可以是自己：扣款與入帳相抵，餘額不變，但仍寫入兩筆紀錄。
func (b *Bank) Transfer(s *Session, recipient string, amt decimal.Decimal) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	from, err := b.accountFor(s)
	if err != nil {
		return decimal.Zero, err
	}
	to := b.find(recipient)
	if to == nil {
		return decimal.Zero, ErrRecipientNotFound
	}
	if err := checkAmount(amt); err != nil {
		return decimal.Zero, err
	}
	if from.Balance.LessThan(amt) {
		return decimal.Zero, ErrInsufficient
	}
	if to != from && to.Balance.Add(amt).GreaterThan(money.Max) {
		return decimal.Zero, ErrBadAmount
	}

	from.Balance = from.Balance.Sub(amt)
	to.Balance = to.Balance.Add(amt)

	now := b.now()
	from.addTransaction(now, fmt.Sprintf("Transferred %s to %s.", money.Format(amt), to.Username))
	to.addTransaction(now, fmt.Sprintf("Received %s from %s.", money.Format(amt), from.Username))
	b.log.Info("transfer", zap.String("username", from.Username), zap.Stringer("session_id", s.ID),
		zap.String("recipient", to.Username), zap.String("amount", money.Format(amt)))
	return from.Balance, b.persistLocked()
}

// Balance 回傳目前登入帳戶的餘額。
func (b *Bank) Balance(s *Session) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, err := b.accountFor(s)
	if err != nil {
		return decimal.Zero, err
	}
	return a.Balance, nil
}

// History 回傳目前登入帳戶的交易紀錄（拷貝）。
// 沒有紀錄時回傳非 nil 的空 slice，與 ErrNotLoggedIn 區分。
func (b *Bank) History(s *Session) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, err := b.accountFor(s)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(a.TransactionHistory))
	copy(out, a.TransactionHistory)
	return out, nil
}

// HasAccount 回報名稱是否已註冊。
func (b *Bank) HasAccount(username string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.find(username) != nil
}

// List 回傳所有帳戶的拷貝，依註冊順序。
func (b *Bank) List() []*Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Account, 0, len(b.accts))
	for _, a := range b.accts {
		out = append(out, a.clone())
	}
	return out
}

// check 在鎖內以帳戶目前狀態執行驗證。
func (b *Bank) check(s *Session, validate func(*Account) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, err := b.accountFor(s)
	if err != nil {
		return err
	}
	return validate(a)
}

// Persist 強制把目前狀態整檔寫出。
func (b *Bank) Persist() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.persistLocked()
}

// persistLocked 寫出完整快照；呼叫端須持有 mu。
// 失敗時記憶體狀態維持已變更，回傳包裹 ErrPersist 的錯誤。
func (b *Bank) persistLocked() error {
	if b.store == nil {
		return nil
	}
	if err := b.store.Save(b.snapshotLocked()); err != nil {
		b.log.Error("persist accounts", zap.Int("accounts", len(b.accts)), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

// Snapshot 匯出所有帳戶為可持久化的 storage.Record。
func (b *Bank) Snapshot() []storage.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Bank) snapshotLocked() []storage.Record {
	out := make([]storage.Record, 0, len(b.accts))
	for _, a := range b.accts {
		hist := make([]string, len(a.TransactionHistory))
		copy(hist, a.TransactionHistory)
		out = append(out, storage.Record{
			Username:           a.Username,
			Pin:                a.Pin,
			Balance:            a.Balance,
			TransactionHistory: hist,
		})
	}
	return out
}

// Restore 以 storage.Record 重建帳戶清單，取代目前狀態。
// 重複的名稱只保留第一筆，以維持名稱唯一；餘額超出可表示範圍的紀錄直接略過。
func (b *Bank) Restore(recs []storage.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accts = make([]*Account, 0, len(recs))
	for _, r := range recs {
		if b.find(r.Username) != nil {
			b.log.Warn("duplicate account skipped", zap.String("username", r.Username))
			continue
		}
		if !money.InRange(r.Balance) {
			b.log.Warn("account with out-of-range balance skipped", zap.String("username", r.Username))
			continue
		}
		hist := make([]string, len(r.TransactionHistory))
		copy(hist, r.TransactionHistory)
		b.accts = append(b.accts, &Account{
			Username:           r.Username,
			Pin:                r.Pin,
			Balance:            r.Balance,
			TransactionHistory: hist,
		})
	}
}

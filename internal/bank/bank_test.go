// internal/bank/bank_test.go
//
// 本檔為 Bank 模組的單元與整合測試。
// 覆蓋註冊、登入、存提款、轉帳、餘額與交易紀錄、session 與快照。
// 持久化以記憶體 Persister 模擬；檔案往返另以 storage.JSONFile 驗證。

package bank

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bankms/internal/money"
	"bankms/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memStore 記錄每次 Save 的快照。
type memStore struct {
	saves [][]storage.Record
	err   error
}

func (m *memStore) Save(recs []storage.Record) error {
	m.saves = append(m.saves, recs)
	return m.err
}

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)

func newTestBank(t *testing.T, store Persister) *Bank {
	t.Helper()
	return NewBank(store, WithHashCost(bcrypt.MinCost), WithClock(func() time.Time { return fixedNow }))
}

// register 為小工具：註冊並登入，失敗即終止測試。
func register(t *testing.T, b *Bank, user, pin string) *Session {
	t.Helper()
	_, err := b.Register(user, pin)
	require.NoError(t, err)
	s, err := b.Login(user, pin)
	require.NoError(t, err)
	return s
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// account 由 List 取出指定帳戶的拷貝。
func account(t *testing.T, b *Bank, name string) *Account {
	t.Helper()
	for _, a := range b.List() {
		if a.Username == name {
			return a
		}
	}
	t.Fatalf("account %q not found", name)
	return nil
}

func assertBalance(t *testing.T, b *Bank, s *Session, want string) {
	t.Helper()
	got, err := b.Balance(s)
	require.NoError(t, err)
	assert.True(t, got.Equal(dec(want)), "balance=%s want=%s", got, want)
}

func TestRegister(t *testing.T) {
	store := &memStore{}
	b := newTestBank(t, store)

	a, err := b.Register("alice", "1234")
	require.NoError(t, err)
	assert.Equal(t, "alice", a.Username)
	assert.True(t, a.Balance.IsZero())
	assert.Empty(t, a.TransactionHistory)
	assert.NotEqual(t, "1234", a.Pin, "pin must not be stored in plaintext")
	assert.Len(t, store.saves, 1)

	_, err = b.Register("alice", "9999")
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.Len(t, store.saves, 1, "failed register must not persist")
	assert.Len(t, b.List(), 1)
}

func TestRegisterInvalidInput(t *testing.T) {
	b := newTestBank(t, nil)

	cases := map[string][2]string{
		"empty username": {"", "1234"},
		"empty pin":      {"alice", ""},
		"long username":  {strings.Repeat("a", 65), "1234"},
		"long pin":       {"alice", strings.Repeat("9", 73)},
		// 40 個字元但 80 bytes，超過 bcrypt 上限
		"multibyte pin": {"alice", strings.Repeat("é", 40)},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := b.Register(c[0], c[1])
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Empty(t, b.List())

	// 72 bytes 的多位元組 PIN 仍可註冊並登入
	pin := strings.Repeat("é", 36)
	_, err := b.Register("bob", pin)
	require.NoError(t, err)
	_, err = b.Login("bob", pin)
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	b := newTestBank(t, nil)
	_, err := b.Register("alice", "1234")
	require.NoError(t, err)

	s, err := b.Login("alice", "1234")
	require.NoError(t, err)
	assert.True(t, s.Active())
	assert.Equal(t, "alice", s.Username)
	assert.Equal(t, fixedNow, s.LoggedInAt)

	_, err = b.Login("alice", "12345")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = b.Login("Alice", "1234")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = b.Login("nobody", "1234")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	s2, err := b.Login("alice", "1234")
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, s2.ID, "each login gets its own session id")
}

// TestLoginLegacyPlaintextPin 驗證舊檔明文 PIN 可登入，且登入後升級為雜湊並寫檔。
func TestLoginLegacyPlaintextPin(t *testing.T) {
	store := &memStore{}
	b := newTestBank(t, store)
	b.Restore([]storage.Record{{Username: "alice", Pin: "1234", Balance: dec("5")}})

	_, err := b.Login("alice", "0000")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, store.saves)

	_, err = b.Login("alice", "1234")
	require.NoError(t, err)
	require.Len(t, store.saves, 1)
	upgraded := store.saves[0][0].Pin
	assert.NotEqual(t, "1234", upgraded)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(upgraded), []byte("1234")))

	// 升級後仍可用同一 PIN 登入
	_, err = b.Login("alice", "1234")
	assert.NoError(t, err)
	assert.Len(t, store.saves, 1)
}

func TestLogout(t *testing.T) {
	b := newTestBank(t, nil)
	s := register(t, b, "alice", "1234")

	b.Logout(s)
	assert.False(t, s.Active())

	_, err := b.Balance(s)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	_, err = b.History(s)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	_, err = b.Deposit(s, dec("1"), nil)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	// nil session 亦視為未登入
	b.Logout(nil)
	_, err = b.Withdraw(nil, dec("1"), nil)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	_, err = b.Transfer(nil, "alice", dec("1"))
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

// TestDeposit 涵蓋正常存款與非法金額。
func TestDeposit(t *testing.T) {
	store := &memStore{}
	b := newTestBank(t, store)
	s := register(t, b, "alice", "1234")
	saves := len(store.saves)

	bal, err := b.Deposit(s, dec("100.10"), nil)
	require.NoError(t, err)
	assert.Equal(t, "100.10", money.Format(bal))
	assert.Len(t, store.saves, saves+1)

	hist, err := b.History(s)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "[2025-03-14 09:26:53] An amount of 100.10 has been Deposited successfully to alice.", hist[0])

	for _, amt := range []string{"0", "-5"} {
		_, err := b.Deposit(s, dec(amt), nil)
		assert.ErrorIs(t, err, ErrBadAmount, "amt=%s", amt)
	}
	assertBalance(t, b, s, "100.1")
	hist, _ = b.History(s)
	assert.Len(t, hist, 1)
	assert.Len(t, store.saves, saves+1)
}

// TestAmountOutOfRange 驗證超出可表示範圍的金額被拒絕，且不會先詢問確認。
func TestAmountOutOfRange(t *testing.T) {
	store := &memStore{}
	b := newTestBank(t, store)
	s := register(t, b, "alice", "1234")
	register(t, b, "bob", "5678")
	saves := len(store.saves)

	never := func() bool { t.Fatal("confirm must not be asked"); return false }
	for _, amt := range []string{"1e100000000", "1e29", "0.00000000000000000000000000001", "79228162514264337593543950336"} {
		_, err := b.Deposit(s, dec(amt), never)
		assert.ErrorIs(t, err, ErrBadAmount, "deposit %s", amt)
		_, err = b.Withdraw(s, dec(amt), never)
		assert.ErrorIs(t, err, ErrBadAmount, "withdraw %s", amt)
		_, err = b.Transfer(s, "bob", dec(amt))
		assert.ErrorIs(t, err, ErrBadAmount, "transfer %s", amt)
	}
	assert.Len(t, store.saves, saves)

	// 餘額達上限後不可再存入
	_, err := b.Deposit(s, money.Max, nil)
	require.NoError(t, err)
	_, err = b.Deposit(s, dec("0.01"), nil)
	assert.ErrorIs(t, err, ErrBadAmount)
	assertBalance(t, b, s, money.Max.String())

	// 收款人入帳後超過上限亦拒絕
	bob, err := b.Login("bob", "5678")
	require.NoError(t, err)
	_, err = b.Deposit(bob, dec("1"), nil)
	require.NoError(t, err)
	_, err = b.Transfer(bob, "alice", dec("1"))
	assert.ErrorIs(t, err, ErrBadAmount)
	assertBalance(t, b, bob, "1")
}

// TestDecimalExactness 驗證十進位運算無浮點誤差。
func TestDecimalExactness(t *testing.T) {
	b := newTestBank(t, nil)
	s := register(t, b, "alice", "1234")

	for i := 0; i < 10; i++ {
		_, err := b.Deposit(s, dec("0.1"), nil)
		require.NoError(t, err)
	}
	assertBalance(t, b, s, "1")
	_, err := b.Withdraw(s, dec("0.3"), nil)
	require.NoError(t, err)
	assertBalance(t, b, s, "0.7")
}

func TestDepositCancelled(t *testing.T) {
	b := newTestBank(t, nil)
	s := register(t, b, "alice", "1234")

	asked := 0
	_, err := b.Deposit(s, dec("50"), func() bool { asked++; return false })
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 1, asked)
	assertBalance(t, b, s, "0")

	// 非法金額不應詢問確認
	_, err = b.Deposit(s, dec("0"), func() bool { asked++; return true })
	assert.ErrorIs(t, err, ErrBadAmount)
	assert.Equal(t, 1, asked)
}

// TestWithdraw 涵蓋正常提款、餘額不足與非法金額。
func TestWithdraw(t *testing.T) {
	b := newTestBank(t, nil)
	s := register(t, b, "alice", "1234")
	_, err := b.Deposit(s, dec("100"), nil)
	require.NoError(t, err)

	bal, err := b.Withdraw(s, dec("30"), func() bool { return true })
	require.NoError(t, err)
	assert.Equal(t, "70", bal.String())

	_, err = b.Withdraw(s, dec("70.01"), nil)
	assert.ErrorIs(t, err, ErrInsufficient)
	_, err = b.Withdraw(s, dec("0"), nil)
	assert.ErrorIs(t, err, ErrBadAmount)
	_, err = b.Withdraw(s, dec("-1"), nil)
	assert.ErrorIs(t, err, ErrBadAmount)
	_, err = b.Withdraw(s, dec("10"), func() bool { return false })
	assert.ErrorIs(t, err, ErrCancelled)
	assertBalance(t, b, s, "70")

	// 等於餘額可全額提領
	bal, err = b.Withdraw(s, dec("70.00"), nil)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
	assert.Equal(t, "0.00", money.Format(bal))

	hist, _ := b.History(s)
	require.Len(t, hist, 3)
	assert.Equal(t, "[2025-03-14 09:26:53] A Withdrawal of amount 70.00 has been successfully done from alice.", hist[2])
	assert.Equal(t, "[2025-03-14 09:26:53] A Withdrawal of amount 30 has been successfully done from alice.", hist[1])
}

// TestTransfer 驗證轉帳邏輯與題目範例：alice 存 100，轉 40 給 bob。
func TestTransfer(t *testing.T) {
	store := &memStore{}
	b := newTestBank(t, store)
	alice := register(t, b, "alice", "1234")
	_, err := b.Deposit(alice, dec("100"), nil)
	require.NoError(t, err)
	bob := register(t, b, "bob", "5678")
	saves := len(store.saves)

	bal, err := b.Transfer(alice, "bob", dec("40"))
	require.NoError(t, err)
	assert.Equal(t, "60", bal.String())
	assertBalance(t, b, alice, "60")
	assertBalance(t, b, bob, "40")
	assert.Len(t, store.saves, saves+1, "transfer persists once for both accounts")

	ha, _ := b.History(alice)
	hb, _ := b.History(bob)
	assert.Equal(t, "[2025-03-14 09:26:53] Transferred 40 to bob.", ha[len(ha)-1])
	require.Len(t, hb, 1)
	assert.Equal(t, "[2025-03-14 09:26:53] Received 40 from alice.", hb[0])
}

func TestTransferErrors(t *testing.T) {
	store := &memStore{}
	b := newTestBank(t, store)
	alice := register(t, b, "alice", "1234")
	_, err := b.Deposit(alice, dec("10"), nil)
	require.NoError(t, err)
	register(t, b, "bob", "5678")
	saves := len(store.saves)

	cases := []struct {
		to   string
		amt  string
		want error
	}{
		{"carol", "1", ErrRecipientNotFound},
		{"bob", "0", ErrBadAmount},
		{"bob", "-3", ErrBadAmount},
		{"bob", "10.5", ErrInsufficient},
	}
	for _, c := range cases {
		_, err := b.Transfer(alice, c.to, dec(c.amt))
		assert.True(t, errors.Is(err, c.want), "to=%s amt=%s: want %v got %v", c.to, c.amt, c.want, err)
	}

	a := account(t, b, "alice")
	o := account(t, b, "bob")
	assert.Equal(t, "10", a.Balance.String())
	assert.True(t, o.Balance.IsZero())
	assert.Empty(t, o.TransactionHistory)
	assert.Len(t, store.saves, saves)
}

// TestTransferToSelf 驗證轉給自己時扣款與入帳相抵：餘額不變、兩筆紀錄、寫檔一次。
func TestTransferToSelf(t *testing.T) {
	store := &memStore{}
	b := newTestBank(t, store)
	alice := register(t, b, "alice", "1234")
	_, err := b.Deposit(alice, dec("100"), nil)
	require.NoError(t, err)
	saves := len(store.saves)

	bal, err := b.Transfer(alice, "alice", dec("10"))
	require.NoError(t, err)
	assert.Equal(t, "100", bal.String())
	assertBalance(t, b, alice, "100")
	assert.Len(t, store.saves, saves+1)

	hist, _ := b.History(alice)
	require.Len(t, hist, 3)
	assert.Equal(t, "[2025-03-14 09:26:53] Transferred 10 to alice.", hist[1])
	assert.Equal(t, "[2025-03-14 09:26:53] Received 10 from alice.", hist[2])

	// 仍須檢查餘額
	_, err = b.Transfer(alice, "alice", dec("100.01"))
	assert.ErrorIs(t, err, ErrInsufficient)
}

// TestTransferConservesTotal 驗證多次來回轉帳後總額不變且無負餘額。
func TestTransferConservesTotal(t *testing.T) {
	b := newTestBank(t, nil)
	x := register(t, b, "x", "1")
	y := register(t, b, "y", "2")
	_, _ = b.Deposit(x, dec("500.55"), nil)
	_, _ = b.Deposit(y, dec("20"), nil)

	amounts := []string{"0.55", "100", "3.33", "600", "0.01"}
	for i, amt := range amounts {
		from, to := x, "y"
		if i%2 == 1 {
			from, to = y, "x"
		}
		_, _ = b.Transfer(from, to, dec(amt))
	}

	bx, _ := b.Balance(x)
	by, _ := b.Balance(y)
	assert.False(t, bx.IsNegative())
	assert.False(t, by.IsNegative())
	assert.True(t, bx.Add(by).Equal(dec("520.55")), "total=%s", bx.Add(by))
}

func TestHistoryEmptyVsLoggedOut(t *testing.T) {
	b := newTestBank(t, nil)
	s := register(t, b, "alice", "1234")

	hist, err := b.History(s)
	require.NoError(t, err)
	assert.NotNil(t, hist)
	assert.Empty(t, hist)

	// 回傳值為拷貝
	_, _ = b.Deposit(s, dec("1"), nil)
	hist, _ = b.History(s)
	hist[0] = "tampered"
	again, _ := b.History(s)
	assert.NotEqual(t, "tampered", again[0])
}

func TestHasAccount(t *testing.T) {
	b := newTestBank(t, nil)
	register(t, b, "alice", "1234")

	assert.True(t, b.HasAccount("alice"))
	assert.False(t, b.HasAccount("bob"))
}

// TestPersistFailure 驗證寫檔失敗時回傳 ErrPersist，且記憶體狀態仍為變更後的值。
func TestPersistFailure(t *testing.T) {
	store := &memStore{}
	b := newTestBank(t, store)
	s := register(t, b, "alice", "1234")

	store.err = errors.New("disk full")
	bal, err := b.Deposit(s, dec("5"), nil)
	assert.ErrorIs(t, err, ErrPersist)
	assert.Equal(t, "5", bal.String())
	assertBalance(t, b, s, "5")
}

// TestSnapshotRestore 驗證快照匯出與還原後狀態完全一致。
func TestSnapshotRestore(t *testing.T) {
	b := newTestBank(t, nil)
	alice := register(t, b, "alice", "1234")
	register(t, b, "bob", "5678")
	_, _ = b.Deposit(alice, dec("100"), nil)
	_, _ = b.Transfer(alice, "bob", dec("40"))

	b2 := newTestBank(t, nil)
	b2.Restore(b.Snapshot())
	assert.Equal(t, b.Snapshot(), b2.Snapshot())

	// 還原後仍可用原 PIN 登入
	s, err := b2.Login("bob", "5678")
	require.NoError(t, err)
	assertBalance(t, b2, s, "40")
}

func TestRestoreSkipsDuplicates(t *testing.T) {
	b := newTestBank(t, nil)
	b.Restore([]storage.Record{
		{Username: "alice", Pin: "1", Balance: dec("1")},
		{Username: "alice", Pin: "2", Balance: dec("2")},
	})
	list := b.List()
	require.Len(t, list, 1)
	assert.Equal(t, "1", list[0].Balance.String())
}

func TestRestoreSkipsOutOfRange(t *testing.T) {
	b := newTestBank(t, nil)
	b.Restore([]storage.Record{
		{Username: "alice", Pin: "1", Balance: dec("1e100000000")},
		{Username: "bob", Pin: "2", Balance: dec("2.50")},
	})
	list := b.List()
	require.Len(t, list, 1)
	assert.Equal(t, "bob", list[0].Username)
}

// TestFileRoundTrip 驗證每次成功變更後，從檔案重新載入可重現記憶體狀態。
func TestFileRoundTrip(t *testing.T) {
	file := storage.NewJSONFile(filepath.Join(t.TempDir(), "users.json"))
	b := newTestBank(t, file)

	reload := func() *Bank {
		t.Helper()
		recs, err := file.Load()
		require.NoError(t, err)
		r := newTestBank(t, file)
		r.Restore(recs)
		return r
	}
	same := func(step string) {
		t.Helper()
		want, got := b.List(), reload().List()
		require.Len(t, got, len(want), step)
		for i := range want {
			assert.Equal(t, want[i].Username, got[i].Username, step)
			assert.Equal(t, want[i].Pin, got[i].Pin, step)
			assert.True(t, want[i].Balance.Equal(got[i].Balance), "%s: %s != %s", step, want[i].Balance, got[i].Balance)
			assert.Equal(t, want[i].TransactionHistory, got[i].TransactionHistory, step)
		}
	}

	alice := register(t, b, "alice", "1234")
	same("register alice")
	_, err := b.Deposit(alice, dec("100"), nil)
	require.NoError(t, err)
	same("deposit")
	register(t, b, "bob", "5678")
	same("register bob")
	_, err = b.Transfer(alice, "bob", dec("40"))
	require.NoError(t, err)
	same("transfer")
	_, err = b.Withdraw(alice, dec("12.34"), nil)
	require.NoError(t, err)
	same("withdraw")
}

// Package bank 定義核心領域模型與業務規則。
// 本檔定義 Account 與交易紀錄格式，不含任何主控台或儲存細節。

package bank

import (
	"time"

	"github.com/shopspring/decimal"
)

// historyTimeLayout 為交易紀錄前綴的時間格式（本地時間）。
const historyTimeLayout = "2006-01-02 15:04:05"

// Account represents a registered user's banking record.
type Account struct {
	Username           string          `json:"username"`
	Pin                string          `json:"-"`
	Balance            decimal.Decimal `json:"balance"`
	TransactionHistory []string        `json:"transaction_history"`
}

// addTransaction 追加一筆帶時間戳的交易紀錄：「[YYYY-MM-DD HH:MM:SS] 內容」。
func (a *Account) addTransaction(now time.Time, entry string) {
	a.TransactionHistory = append(a.TransactionHistory, "["+now.Format(historyTimeLayout)+"] "+entry)
}

// clone 回傳深拷貝，避免外部改寫內部切片。
func (a *Account) clone() *Account {
	cp := *a
	cp.TransactionHistory = make([]string, len(a.TransactionHistory))
	copy(cp.TransactionHistory, a.TransactionHistory)
	return &cp
}

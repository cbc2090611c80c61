// internal/storage/model.go
//
// 定義「資料持久化層 (storage layer)」的結構模型。
// 檔案格式為帳戶紀錄的 JSON 陣列，欄位名稱沿用舊版程式寫出的 users.json，
// 因此既有檔案可直接載入。
package storage

import (
	"encoding/json"

	"bankms/internal/money"

	"github.com/shopspring/decimal"
)

// Record 為帳戶在儲存層的序列化格式。
// 不含同步鎖或方法，僅保存資料狀態。
type Record struct {
	Username           string          `json:"Username"`           // 帳戶唯一名稱
	Pin                string          `json:"Pin"`                // bcrypt 雜湊；舊檔可能為明文
	Balance            decimal.Decimal `json:"Balance"`            // 餘額，十進位字串（讀取時亦接受數字）
	TransactionHistory []string        `json:"TransactionHistory"` // 交易紀錄，依時間先後排列
}

// MarshalJSON 以保留小數位數的字串輸出 Balance（"100.50" 不會寫成 "100.5"），
// 重新載入後顯示格式與寫出前一致。
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	return json.Marshal(struct {
		plain
		Balance string `json:"Balance"`
	}{plain: plain(r), Balance: money.Format(r.Balance)})
}

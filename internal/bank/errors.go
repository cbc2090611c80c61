// internal/bank/errors.go
//
// 本檔集中定義「領域錯誤（domain errors）」。
// 這些錯誤屬於使用者輸入驗證層級，會由 console 層轉換成對應的提示訊息，皆不致命。

package bank

import "errors"

var (
	// ErrUsernameTaken 代表註冊時名稱已存在。
	ErrUsernameTaken = errors.New("username already exists")

	// ErrInvalidCredentials 代表名稱或 PIN 不符。
	ErrInvalidCredentials = errors.New("invalid username or pin")

	// ErrInvalidInput 代表註冊資料未通過格式驗證（空白、名稱超過 64 字元、PIN 超過 72 bytes）。
	ErrInvalidInput = errors.New("invalid registration input")

	// ErrNotLoggedIn 代表未登入或 session 已結束。
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrBadAmount 代表金額非法（<= 0、超出可表示範圍，或入帳後超過餘額上限）。
	ErrBadAmount = errors.New("amount must be > 0")

	// ErrInsufficient 代表餘額不足，導致提款或轉帳失敗。
	ErrInsufficient = errors.New("insufficient balance")

	// ErrRecipientNotFound 代表轉帳對象不存在。
	ErrRecipientNotFound = errors.New("recipient does not exist")

	// ErrCancelled 代表使用者未確認交易。
	ErrCancelled = errors.New("transaction cancelled")

	// ErrPersist 代表記憶體狀態已變更，但寫入帳戶檔失敗。
	ErrPersist = errors.New("failed to persist accounts")
)

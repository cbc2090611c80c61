// internal/console/output.go
//
// 本檔集中管理「錯誤 → 提示訊息」的轉換，確保各選項回應一致。
// 所有錯誤都只會印出訊息，不會結束主迴圈。
package console

import (
	"errors"

	"bankms/internal/bank"
)

// op 代表觸發錯誤的選單操作；同一錯誤在不同操作下的提示不同。
type op int

const (
	opRegister op = iota
	opLogin
	opDeposit
	opWithdraw
	opTransfer
	opBalance
	opHistory
)

// notLoggedIn 為各操作在未登入時的提示。
var notLoggedIn = map[op]string{
	opDeposit:  "Please Log-in to your account to perform this Operation.",
	opWithdraw: "Please Log-in to your account to perform this Operation.",
	opTransfer: "Please log in to transfer money.",
	opBalance:  "Please log in to check your balance.",
	opHistory:  "Please log in to see your Transaction History.",
}

// describe 將 bank 層錯誤轉為提示訊息。
func describe(o op, err error) string {
	switch {
	case errors.Is(err, bank.ErrNotLoggedIn):
		if msg, ok := notLoggedIn[o]; ok {
			return msg
		}
		return "Please log in first."
	case errors.Is(err, bank.ErrUsernameTaken):
		return "Error: Username already exists. Please choose another."
	case errors.Is(err, bank.ErrInvalidInput):
		return "Error: Username (max 64 characters) and password (max 72 bytes) are required."
	case errors.Is(err, bank.ErrInvalidCredentials):
		return "Invalid username or PIN. Please try again."
	case errors.Is(err, bank.ErrCancelled):
		return "Transaction Cancelled."
	case errors.Is(err, bank.ErrRecipientNotFound):
		return "Error: Recipient does not exist."
	case errors.Is(err, bank.ErrPersist):
		return "Warning: changes could not be saved to disk."
	case errors.Is(err, bank.ErrBadAmount), errors.Is(err, bank.ErrInsufficient):
		switch o {
		case opDeposit:
			return "Invalid deposit amount."
		case opWithdraw:
			return "Insufficient Balance or Invalid Amount."
		case opTransfer:
			if errors.Is(err, bank.ErrInsufficient) {
				return "Error: Insufficient balance."
			}
			return "Invalid amount entered."
		}
	}
	return "Error: " + err.Error()
}

// fail 印出錯誤提示：取消交易為一般文字、寫檔失敗為黃色警告，其餘為紅色。
func (c *Console) fail(o op, err error) {
	msg := describe(o, err)
	switch {
	case errors.Is(err, bank.ErrCancelled):
		c.println(msg)
	case errors.Is(err, bank.ErrPersist):
		c.say(c.note, msg)
	default:
		c.say(c.bad, msg)
	}
}

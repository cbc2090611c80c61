package bank

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// hashPin 以 bcrypt 雜湊 PIN；bcrypt 只接受 72 bytes 以內的輸入。
func hashPin(pin string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pin), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// checkPin 比對 PIN。
// stored 若不是 bcrypt 雜湊，視為舊檔留下的明文，legacy 回傳 true 供呼叫端升級。
func checkPin(stored, pin string) (ok, legacy bool) {
	if _, err := bcrypt.Cost([]byte(stored)); err != nil {
		return subtle.ConstantTimeCompare([]byte(stored), []byte(pin)) == 1, true
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(pin)) == nil, false
}

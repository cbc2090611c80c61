// Package money 定義金額的合法範圍與顯示格式。
// 範圍比照 28 位精度的十進位型別：整數部分不超過 79228162514264337593543950335，
// 小數最多 28 位。超出範圍的輸入一律視為非法金額，避免極大指數造成運算與寫檔失控。
package money

import "github.com/shopspring/decimal"

// MaxScale 為允許的最多小數位數。
const MaxScale = 28

// Max 為允許的最大金額（亦為餘額上限）。
var Max = decimal.RequireFromString("79228162514264337593543950335")

// InRange 回報 d 是否在可表示範圍內（不檢查正負）。
// 先以指數篩掉極端值，再與 Max 比較；比較時 rescale 的成本因此有上限。
func InRange(d decimal.Decimal) bool {
	if d.IsZero() {
		return true
	}
	exp := d.Exponent()
	if exp < -MaxScale || exp > MaxScale {
		return false
	}
	return d.Abs().LessThanOrEqual(Max)
}

// Format 以數值本身的小數位數輸出，保留尾端的 0（"100.50" 不會變成 "100.5"）。
func Format(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

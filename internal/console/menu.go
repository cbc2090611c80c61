// internal/console/menu.go
//
// 本檔負責選單註冊：選項編號 → 處理函式。
// 與 handler.go 分離：
//   - handler.go 定義「如何處理每個選項」
//   - menu.go 定義「選項如何被導向」
package console

// action 為一個選單項目。
type action struct {
	key   string
	label string
	run   func(*Console) error
}

// menu 回傳依顯示順序排列的選單。採明確註冊，方便閱讀。
func (c *Console) menu() []action {
	return []action{
		{"1", "Register", (*Console).register},
		{"2", "Login", (*Console).login},
		{"3", "Deposit Money", (*Console).deposit},
		{"4", "Withdraw Money", (*Console).withdraw},
		{"5", "Transfer Money", (*Console).transfer},
		{"6", "Check Balance", (*Console).balance},
		{"7", "Transaction History", (*Console).history},
		{"8", "Logout", (*Console).logout},
		{"9", "Exit", (*Console).exit},
	}
}

func lookup(items []action, key string) (action, bool) {
	for _, it := range items {
		if it.key == key {
			return it, true
		}
	}
	return action{}, false
}

func (c *Console) printMenu(items []action) {
	c.println()
	c.say(c.title, "==== Welcome to Bank Management System ====")
	for _, it := range items {
		c.printf("%s. %s\n", it.key, it.label)
	}
}

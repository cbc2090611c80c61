// internal/console/handler.go
//
// 各選單項目的處理函式。回傳非 nil 錯誤只代表主迴圈應結束（EOF 或選項 9），
// 業務錯誤一律在此印出提示後回傳 nil。
package console

import (
	"errors"

	"bankms/internal/bank"
	"bankms/internal/money"

	"github.com/shopspring/decimal"
)

// credentials 依序讀取名稱與密碼。
func (c *Console) credentials() (string, string, error) {
	user, err := c.readLine("Enter Username: ")
	if err != nil {
		return "", "", err
	}
	pin, err := c.readLine("Enter Password: ")
	if err != nil {
		return "", "", err
	}
	return user, pin, nil
}

// readAmount 讀取金額；無法解析時 ok 為 false。
func (c *Console) readAmount(prompt string) (amt decimal.Decimal, ok bool, err error) {
	line, err := c.readLine(prompt)
	if err != nil {
		return decimal.Zero, false, err
	}
	amt, perr := decimal.NewFromString(line)
	if perr != nil {
		return decimal.Zero, false, nil
	}
	return amt, true, nil
}

// setSession 以新 session 取代目前的 session。
func (c *Console) setSession(s *bank.Session) {
	if c.sess.Active() && c.sess != s {
		c.Bank.Logout(c.sess)
	}
	c.sess = s
}

// register 註冊新帳戶，成功後自動登入該帳戶。
func (c *Console) register() error {
	user, pin, err := c.credentials()
	if err != nil {
		return err
	}
	_, err = c.Bank.Register(user, pin)
	if err != nil && !errors.Is(err, bank.ErrPersist) {
		c.fail(opRegister, err)
		return nil
	}
	c.say(c.note, "Note: user registered successfully")
	if err != nil {
		c.fail(opRegister, err)
	}

	s, lerr := c.Bank.Login(user, pin)
	if lerr != nil {
		c.fail(opLogin, lerr)
		return nil
	}
	c.setSession(s)
	return nil
}

// login 登入；失敗時原本的 session 也會結束。
func (c *Console) login() error {
	user, pin, err := c.credentials()
	if err != nil {
		return err
	}
	s, err := c.Bank.Login(user, pin)
	if err != nil {
		c.setSession(nil)
		c.fail(opLogin, err)
		return nil
	}
	c.setSession(s)
	c.say(c.ok, "Login successful! Welcome, "+s.Username)
	c.println("You are now logged in!")
	return nil
}

func (c *Console) deposit() error {
	if !c.sess.Active() {
		c.fail(opDeposit, bank.ErrNotLoggedIn)
		return nil
	}
	amt, ok, err := c.readAmount("Enter the amount to Deposit: ")
	if err != nil {
		return err
	}
	if !ok {
		c.fail(opDeposit, bank.ErrBadAmount)
		return nil
	}
	bal, err := c.Bank.Deposit(c.sess, amt, c.confirm)
	if err != nil && !errors.Is(err, bank.ErrPersist) {
		c.fail(opDeposit, err)
		return nil
	}
	c.say(c.ok, "Transaction Successful, New Balance: "+money.Format(bal))
	if err != nil {
		c.fail(opDeposit, err)
	}
	return nil
}

func (c *Console) withdraw() error {
	if !c.sess.Active() {
		c.fail(opWithdraw, bank.ErrNotLoggedIn)
		return nil
	}
	amt, ok, err := c.readAmount("Enter the amount to WithDraw: ")
	if err != nil {
		return err
	}
	if !ok {
		c.fail(opWithdraw, bank.ErrBadAmount)
		return nil
	}
	bal, err := c.Bank.Withdraw(c.sess, amt, c.confirm)
	if err != nil && !errors.Is(err, bank.ErrPersist) {
		c.fail(opWithdraw, err)
		return nil
	}
	c.say(c.ok, "Withdrawal Successful, Remaining Balance: "+money.Format(bal))
	if err != nil {
		c.fail(opWithdraw, err)
	}
	return nil
}

// transfer 先確認收款人存在，再詢問金額。
func (c *Console) transfer() error {
	if !c.sess.Active() {
		c.fail(opTransfer, bank.ErrNotLoggedIn)
		return nil
	}
	to, err := c.readLine("Enter recipient's username: ")
	if err != nil {
		return err
	}
	if !c.Bank.HasAccount(to) {
		c.fail(opTransfer, bank.ErrRecipientNotFound)
		return nil
	}
	amt, ok, err := c.readAmount("Enter amount to transfer: ")
	if err != nil {
		return err
	}
	if !ok {
		c.fail(opTransfer, bank.ErrBadAmount)
		return nil
	}
	bal, err := c.Bank.Transfer(c.sess, to, amt)
	if err != nil && !errors.Is(err, bank.ErrPersist) {
		c.fail(opTransfer, err)
		return nil
	}
	c.say(c.ok, "Transfer Successful! Your new balance: "+money.Format(bal))
	if err != nil {
		c.fail(opTransfer, err)
	}
	return nil
}

func (c *Console) balance() error {
	bal, err := c.Bank.Balance(c.sess)
	if err != nil {
		c.fail(opBalance, err)
		return nil
	}
	c.printf("Your Current Balance is: ")
	c.say(c.note, money.Format(bal))
	return nil
}

func (c *Console) history() error {
	hist, err := c.Bank.History(c.sess)
	if err != nil {
		c.fail(opHistory, err)
		return nil
	}
	if len(hist) == 0 {
		c.say(c.note, "No Transactions Yet")
		return nil
	}
	c.println("Transaction History:")
	for _, h := range hist {
		c.println(h)
	}
	return nil
}

func (c *Console) logout() error {
	c.setSession(nil)
	c.say(c.note, "Logged out successfully.")
	return nil
}

func (c *Console) exit() error {
	c.say(c.ok, "Thank you for using the Bank Management System.")
	return errExit
}

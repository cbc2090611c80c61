// internal/console/console.go
//
// Package console
// ─────────────────────────────────────────────
// 提供互動式主控台介面，作為 bank 模組的應用層 (Application Layer)。
// 每個選項僅負責：
//  1. 提示並讀取使用者輸入
//  2. 呼叫 bank 層執行商業邏輯（傳入目前的 Session）
//  3. 把結果或錯誤轉成提示訊息
//
// 持久化由 bank 層在每次成功變更後完成，console 不直接接觸檔案。
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"bankms/internal/bank"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

// errExit 由選項 9 回傳，結束主迴圈。
var errExit = errors.New("exit")

// Console 為主控台層核心結構：
// - Bank：注入商業邏輯層。
// - sess：目前登入的 session，未登入時為 nil。
// - ok/bad/note/title：各類訊息的顏色，預設關閉。
type Console struct {
	Bank *bank.Bank

	in   *bufio.Scanner
	out  io.Writer
	log  *zap.Logger
	sess *bank.Session

	ok, bad, note, title *color.Color
}

// New 建立主控台；log 可為 nil。輸出預設不含顏色，見 Colorize。
func New(b *bank.Bank, in io.Reader, out io.Writer, log *zap.Logger) *Console {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Console{
		Bank:  b,
		in:    bufio.NewScanner(in),
		out:   out,
		log:   log,
		ok:    color.New(color.FgGreen),
		bad:   color.New(color.FgRed),
		note:  color.New(color.FgYellow),
		title: color.New(color.FgCyan),
	}
	c.Colorize(false)
	return c
}

// Colorize 開關訊息顏色：成功為綠色、錯誤為紅色、提示為黃色、標題為青色。
func (c *Console) Colorize(on bool) {
	for _, cl := range []*color.Color{c.ok, c.bad, c.note, c.title} {
		if on {
			cl.EnableColor()
		} else {
			cl.DisableColor()
		}
	}
}

// Session 回傳目前的 session（可能為 nil）。
func (c *Console) Session() *bank.Session { return c.sess }

// Run 進入主迴圈：印出選單、讀取選項、分派，直到選項 9 或輸入結束 (EOF)。
// 兩種結束方式皆回傳 nil；只有讀取輸入本身失敗才回傳錯誤。
func (c *Console) Run() error {
	items := c.menu()
	for {
		c.printMenu(items)
		choice, err := c.readLine("Select an option: ")
		if err != nil {
			return c.finish(err)
		}

		act, ok := lookup(items, choice)
		if !ok {
			c.say(c.bad, "Invalid option! Please try again.")
			continue
		}
		if err := act.run(c); err != nil {
			return c.finish(err)
		}
	}
}

// finish 把結束原因轉為 Run 的回傳值。
func (c *Console) finish(err error) error {
	if errors.Is(err, errExit) || errors.Is(err, io.EOF) {
		if c.sess.Active() {
			c.Bank.Logout(c.sess)
		}
		return nil
	}
	c.log.Error("read input", zap.Error(err))
	return err
}

// readLine 印出提示並讀取一行（去除前後空白）。輸入結束時回傳 io.EOF。
func (c *Console) readLine(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	if !c.in.Scan() {
		fmt.Fprintln(c.out)
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

// confirm 詢問是否確認交易；輸入 y/Y 視為確認，其餘（含 EOF）皆為取消。
func (c *Console) confirm() bool {
	ans, err := c.readLine("Confirm Transaction? (Y/N): ")
	if err != nil {
		return false
	}
	return strings.ToLower(ans) == "y"
}

func (c *Console) println(a ...any) {
	fmt.Fprintln(c.out, a...)
}

// say 以指定顏色印出一行。
func (c *Console) say(cl *color.Color, a ...any) {
	cl.Fprintln(c.out, a...)
}

func (c *Console) printf(format string, a ...any) {
	fmt.Fprintf(c.out, format, a...)
}

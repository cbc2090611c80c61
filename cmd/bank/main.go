// cmd/bank/main.go

// 本程式提供互動式主控台銀行：註冊、登入、存提款、轉帳、查詢餘額與交易紀錄。
// 此檔案負責初始化模組（config, logger, storage, bank, console），
// 啟動時載入帳戶檔，並進入選單主迴圈。

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bankms/internal/bank"
	"bankms/internal/config"
	"bankms/internal/console"
	"bankms/internal/logger"
	"bankms/internal/storage"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 1
	}
	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		return 1
	}
	defer log.Sync()

	file := storage.NewJSONFile(cfg.DataFile)
	b := bank.NewBank(file, bank.WithLogger(log), bank.WithHashCost(cfg.PinHashCost))

	// 載入上次的帳戶檔；不存在則以空銀行啟動，格式錯誤則記錄後以空銀行啟動
	recs, err := file.Load()
	switch {
	case errors.Is(err, storage.ErrCorrupt):
		log.Warn("accounts file unreadable, starting empty", zap.String("path", file.Path()), zap.Error(err))
	case err != nil:
		log.Warn("accounts file not loaded, starting empty", zap.String("path", file.Path()), zap.Error(err))
	default:
		b.Restore(recs)
		log.Debug("accounts loaded", zap.String("path", file.Path()), zap.Int("accounts", len(b.List())), zap.Int("records", len(recs)))
	}

	// 監聽 SIGINT/SIGTERM，結束前再寫一次目前狀態
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		sig := <-ch
		log.Info("signal received", zap.Stringer("signal", sig))
		_ = b.Persist()
		_ = log.Sync()
		fmt.Println()
		os.Exit(0)
	}()

	// 輸出不是終端機或設定 NO_COLOR 時不加顏色
	con := console.New(b, os.Stdin, os.Stdout, log)
	con.Colorize(!color.NoColor)
	if err := con.Run(); err != nil {
		log.Error("console stopped", zap.Error(err))
		return 1
	}
	return 0
}

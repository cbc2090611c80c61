// internal/storage/jsonstore.go
//
// 提供帳戶 JSON 檔的整檔讀取與整檔覆寫。
// 寫入採「原子寫入」：先寫入同目錄的暫存檔並 fsync，再以 rename() 取代原檔，
// 中途失敗時原檔保持完整。
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrCorrupt 代表檔案存在但內容無法解析為帳戶陣列。
var ErrCorrupt = errors.New("accounts file is corrupt")

// JSONFile 代表位於固定路徑的帳戶檔。
type JSONFile struct {
	path string
}

// NewJSONFile 以指定路徑建立 JSONFile；不會觸碰檔案系統。
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path 回傳檔案路徑。
func (f *JSONFile) Path() string { return f.path }

// Load 讀取整個帳戶檔。
// 檔案不存在時回傳空陣列且無錯誤；內容格式錯誤時回傳包裹 ErrCorrupt 的錯誤。
func (f *JSONFile) Load() ([]Record, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err)
	}
	if recs == nil {
		// 檔案內容為 "null"
		recs = []Record{}
	}
	for i := range recs {
		if recs[i].TransactionHistory == nil {
			recs[i].TransactionHistory = []string{}
		}
	}
	return recs, nil
}

// Save 將所有帳戶序列化後整檔覆寫。
// 流程：
//  1. 於目標檔同目錄建立暫存檔（rename 必須在同一檔案系統內）。
//  2. 縮排輸出 JSON，方便人工檢視。
//  3. Sync 後關閉，再 rename 取代正式檔案。
func (f *JSONFile) Save(recs []Record) error {
	if recs == nil {
		recs = []Record{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	// rename 成功後暫存檔已不存在，Remove 只會回傳被忽略的錯誤
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// 原子替換
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}

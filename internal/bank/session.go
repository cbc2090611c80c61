package bank

import (
	"time"

	"github.com/google/uuid"
)

// Session 為一次登入的身分憑證，所有金流操作都必須明確傳入。
// 取代「全域目前使用者」欄位：誰登入由呼叫端持有的 Session 決定。
type Session struct {
	ID         uuid.UUID
	Username   string
	LoggedInAt time.Time

	closed bool
}

// Close 結束 session；之後以此 session 呼叫的操作皆回傳 ErrNotLoggedIn。
// nil session 可安全呼叫。
func (s *Session) Close() {
	if s != nil {
		s.closed = true
	}
}

// Active 回報 session 是否仍可使用。
func (s *Session) Active() bool {
	return s != nil && !s.closed
}

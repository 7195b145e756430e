package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidIndex  = errors.New("exchange entry index out of range")
	ErrEntryNotFound = errors.New("exchange entry not found")
)

// ExchangeEntry 一条沟通记录
type ExchangeEntry struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	Timestamp  string `json:"timestamp"` // RFC3339
	Kind       string `json:"kind,omitempty"`
}

// NewExchangeEntry 构造带唯一ID和当前时间戳的沟通记录
func NewExchangeEntry(content string, author Actor, kind string) ExchangeEntry {
	return ExchangeEntry{
		ID:         uuid.New().String(),
		Content:    content,
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Timestamp:  time.Now().Format(time.RFC3339),
		Kind:       kind,
	}
}

// ExchangeLog 沟通记录，jsonb列。可追加、可由管理员删除单条。
type ExchangeLog []ExchangeEntry

// Append 返回追加后的新切片，不修改原切片
func (l ExchangeLog) Append(entry ExchangeEntry) ExchangeLog {
	out := make(ExchangeLog, 0, len(l)+1)
	out = append(out, l...)
	return append(out, entry)
}

// RemoveAt 按下标删除，越界返回ErrInvalidIndex
func (l ExchangeLog) RemoveAt(index int) (ExchangeLog, error) {
	if index < 0 || index >= len(l) {
		return l, ErrInvalidIndex
	}
	out := make(ExchangeLog, 0, len(l)-1)
	out = append(out, l[:index]...)
	return append(out, l[index+1:]...), nil
}

// RemoveByID 按条目ID删除，找不到返回ErrEntryNotFound
func (l ExchangeLog) RemoveByID(id string) (ExchangeLog, error) {
	for i, entry := range l {
		if entry.ID == id {
			return l.RemoveAt(i)
		}
	}
	return l, ErrEntryNotFound
}

func (l ExchangeLog) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *ExchangeLog) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan ExchangeLog: %v", value)
	}
	*l = ParseExchangeLog(bytes)
	return nil
}

// ParseExchangeLog 容错解析沟通记录。历史数据存在三种形态：
// 数组、单个对象（只发过一条时的旧写法）、双重编码字符串。
// 统一归一化为数组，完全无法识别时降级为nil。
func ParseExchangeLog(raw []byte) ExchangeLog {
	if len(raw) == 0 {
		return nil
	}
	var entries ExchangeLog
	if err := json.Unmarshal(raw, &entries); err == nil {
		return entries
	}
	var single ExchangeEntry
	if err := json.Unmarshal(raw, &single); err == nil && (single.Content != "" || single.ID != "") {
		return ExchangeLog{single}
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		return ParseExchangeLog([]byte(encoded))
	}
	return nil
}

package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// 审批层级
const (
	LevelManager  = "manager"
	LevelDirector = "director"
)

// AuditLogEntry 一条审批轨迹。写入后不再修改。
type AuditLogEntry struct {
	Action    string `json:"action"`
	ActorID   string `json:"actor_id"`
	ActorName string `json:"actor_name"`
	Timestamp string `json:"timestamp"` // RFC3339
	Note      string `json:"note,omitempty"`
	Level     string `json:"level,omitempty"` // manager/director
}

// NewAuditLogEntry 构造带当前时间戳的审批轨迹条目
func NewAuditLogEntry(action string, actor Actor, note, level string) AuditLogEntry {
	return AuditLogEntry{
		Action:    action,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Timestamp: time.Now().Format(time.RFC3339),
		Note:      note,
		Level:     level,
	}
}

// AuditLog 审批轨迹，jsonb列。只追加，不改写。
type AuditLog []AuditLogEntry

// Append 返回追加后的新切片，不修改原切片
func (l AuditLog) Append(entry AuditLogEntry) AuditLog {
	out := make(AuditLog, 0, len(l)+1)
	out = append(out, l...)
	return append(out, entry)
}

func (l AuditLog) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *AuditLog) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan AuditLog: %v", value)
	}
	*l = ParseAuditLog(bytes)
	return nil
}

// ParseAuditLog 容错解析审批轨迹。空值、解析失败均降级为nil，
// 兼容双重编码的历史数据（整列存成JSON字符串）。
func ParseAuditLog(raw []byte) AuditLog {
	if len(raw) == 0 {
		return nil
	}
	var entries AuditLog
	if err := json.Unmarshal(raw, &entries); err == nil {
		return entries
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &entries); err == nil {
			return entries
		}
	}
	return nil
}

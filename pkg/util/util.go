package util

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID 生成一个标准的 UUID (v4)
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateShortUUID 生成一个不带中划线的短 UUID
func GenerateShortUUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// GenerateUserID 生成用户 ID，前缀用于区分实体类型
func GenerateUserID() string {
	return "U" + GenerateShortUUID()[:19]
}

// GenerateSessionID 生成会话 ID
func GenerateSessionID() string {
	return "S" + GenerateShortUUID()[:19]
}

// GenerateMessageID 生成消息 ID
func GenerateMessageID() string {
	return "M" + GenerateShortUUID()[:19]
}

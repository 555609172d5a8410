package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// dbDialectName 返回当前连接的方言名，取不到时按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// buildSearchCondition 构建多列模糊搜索条件，返回条件串与参数个数。
func buildSearchCondition(db *gorm.DB, columns []string) (string, int) {
	return buildSearchConditionByDialect(dbDialectName(db), columns)
}

func buildSearchConditionByDialect(dialect string, columns []string) (string, int) {
	operator := likeOperatorByDialect(dialect)
	parts := make([]string, 0, len(columns))
	argCount := 0
	for _, column := range columns {
		trimmed := strings.TrimSpace(column)
		if trimmed == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s ?", trimmed, operator))
		argCount++
	}
	return strings.Join(parts, " OR "), argCount
}

// likeOperatorByDialect postgres 需要 ILIKE 才能大小写不敏感，sqlite 的 LIKE 本身忽略大小写。
func likeOperatorByDialect(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}

// repeatLikeArgs 为每个搜索列复制同一个 LIKE 参数。
func repeatLikeArgs(like string, count int) []any {
	args := make([]any, 0, count)
	for i := 0; i < count; i++ {
		args = append(args, like)
	}
	return args
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// 存储层哨兵错误。服务层用 errors.Is 区分可重试失败与业务失败。
var (
	ErrStorageTimeout  = errors.New("存储操作超时")
	ErrStorageConflict = errors.New("存储操作冲突")
)

// mapStorageErr 将驱动错误归一到存储哨兵错误，其余错误原样返回。
// 已归一的错误不做二次包装。
func mapStorageErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStorageTimeout) || errors.Is(err, ErrStorageConflict):
		return err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %s", ErrStorageTimeout, err)
	case isConflictErr(err):
		return fmt.Errorf("%w: %s", ErrStorageConflict, err)
	default:
		return err
	}
}

// isConflictErr 识别 sqlite 锁与 postgres 序列化冲突
func isConflictErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "could not serialize access")
}

package repository

import (
	"context"
	"database/sql"
)

// DBTX 数据库执行接口（*sql.DB 与 *sql.Tx 均满足）
// 每个患者的周期步骤在单个事务内提交，仓库通过 WithTx 绑定到事务
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

package service

import "errors"

var (
	// ErrUnauthorized 触发凭证不匹配，未做任何处理
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSetup 编排前加载账户或代币失败
	ErrSetup = errors.New("sync setup failed")
	// ErrPersistence 对账事务失败，已整体回滚
	ErrPersistence = errors.New("sync persistence failed")
	// ErrRunInProgress 已有同步任务在执行
	ErrRunInProgress = errors.New("sync run already in progress")
)

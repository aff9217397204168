package repository

import "fmt"

// StorageError 存储层错误
// 数据库打开、读取或写入失败时返回，调用方据此向用户提示并保持原状态
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// wrapStorage 将底层错误包装为 StorageError，nil 透传
func wrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

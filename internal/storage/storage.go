package storage

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
	ErrReference = errors.New("referenced row does not exist")
)

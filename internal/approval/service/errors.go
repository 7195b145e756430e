package service

import (
	"errors"
	"fmt"

	"github.com/bitfantasy/credit/internal/approval/repository"
)

// 业务错误分类。处理层用errors.Is映射到对应的响应码。
var (
	ErrForbidden   = errors.New("forbidden")
	ErrValidation  = errors.New("validation error")
	ErrUnavailable = errors.New("service unavailable")
)

func forbidden(reason string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, reason)
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidation, reason)
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// storeErr 存储层错误归类：未找到原样返回，其余都是可重试的不可用
func storeErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return unavailable(err)
}

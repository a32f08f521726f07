package util

import (
	"fmt"
	"time"
)

// 1 千万上限，单位分
const maxAmountCent = 10_000_000_00

// ValidateAmountCent 验证金额（必须为正数且不超过上限）
func ValidateAmountCent(cent int64) error {
	if cent <= 0 {
		return fmt.Errorf("amount must be positive, got %d", cent)
	}
	if cent >= maxAmountCent {
		return fmt.Errorf("amount too large, got %d", cent)
	}
	return nil
}

// ValidateDate 验证日期格式（必须为 YYYY-MM-DD）
func ValidateDate(dateStr string) error {
	if dateStr == "" {
		return fmt.Errorf("date is empty")
	}
	_, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}
	return nil
}

// ValidateCategory 验证分类（不能为空且长度合理）
func ValidateCategory(category string) error {
	if category == "" {
		return fmt.Errorf("category is empty")
	}
	if len(category) > 32 {
		return fmt.Errorf("category too long, max 32 characters")
	}
	return nil
}

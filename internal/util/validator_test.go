package util

import (
	"testing"
)

// TestValidateAmountCent_Positive 测试正数金额
func TestValidateAmountCent_Positive(t *testing.T) {
	testCases := []int64{1, 100, 10050, 999999999}

	for _, cent := range testCases {
		err := ValidateAmountCent(cent)
		if err != nil {
			t.Errorf("ValidateAmountCent(%d) error = %v, want nil", cent, err)
		}
	}
}

// TestValidateAmountCent_Zero 测试零金额（异常）
func TestValidateAmountCent_Zero(t *testing.T) {
	err := ValidateAmountCent(0)

	if err == nil {
		t.Error("ValidateAmountCent(0) error = nil, want error")
	}
}

// TestValidateAmountCent_Negative 测试负数金额（异常）
func TestValidateAmountCent_Negative(t *testing.T) {
	testCases := []int64{-1, -10000, -999999}

	for _, cent := range testCases {
		err := ValidateAmountCent(cent)
		if err == nil {
			t.Errorf("ValidateAmountCent(%d) error = nil, want error", cent)
		}
	}
}

// TestValidateAmountCent_TooLarge 测试金额过大（异常）
func TestValidateAmountCent_TooLarge(t *testing.T) {
	err := ValidateAmountCent(10_000_000_00) // 1 千万

	if err == nil {
		t.Error("ValidateAmountCent(10_000_000_00) error = nil, want error")
	}
}

// TestValidateDate_Valid 测试有效日期
func TestValidateDate_Valid(t *testing.T) {
	testCases := []string{
		"2024-01-01",
		"2024-12-31",
		"2025-06-15",
	}

	for _, date := range testCases {
		err := ValidateDate(date)
		if err != nil {
			t.Errorf("ValidateDate(%q) error = %v, want nil", date, err)
		}
	}
}

// TestValidateDate_InvalidFormat 测试无效格式（异常）
func TestValidateDate_InvalidFormat(t *testing.T) {
	testCases := []string{
		"",
		"2024/01/01",
		"01-01-2024",
		"2024-1-1",
		"not-a-date",
		"2024-13-01",
		"2024-01-32",
	}

	for _, date := range testCases {
		err := ValidateDate(date)
		if err == nil {
			t.Errorf("ValidateDate(%q) error = nil, want error", date)
		}
	}
}

// TestValidateCategory_Valid 测试有效分类
func TestValidateCategory_Valid(t *testing.T) {
	testCases := []string{"groceries", "rent", "salary", "travel"}

	for _, category := range testCases {
		err := ValidateCategory(category)
		if err != nil {
			t.Errorf("ValidateCategory(%q) error = %v, want nil", category, err)
		}
	}
}

// TestValidateCategory_Empty 测试空分类（异常）
func TestValidateCategory_Empty(t *testing.T) {
	err := ValidateCategory("")

	if err == nil {
		t.Error("ValidateCategory(\"\") error = nil, want error")
	}
}

// TestValidateCategory_TooLong 测试过长分类（异常）
func TestValidateCategory_TooLong(t *testing.T) {
	longCategory := "a-category-name-well-beyond-any-reasonable-length-limit"

	err := ValidateCategory(longCategory)

	if err == nil {
		t.Error("ValidateCategory() with long string error = nil, want error")
	}
}

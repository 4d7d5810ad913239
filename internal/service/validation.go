// File: internal/service/validation.go
package service

import (
	"errors"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// ValidationError 表示客戶端輸入不合法，handler 一律對應 400
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ValidatePasswordStrength 檢查密碼強度：
// 至少 8 碼，且包含大寫、小寫、數字與符號
func ValidatePasswordStrength(password string) error {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	// 長度以字元計，不是位元組
	if utf8.RuneCountInString(password) < 8 || !hasUpper || !hasLower || !hasDigit || !hasSymbol {
		return &ValidationError{Message: "Password must be strong (min 8 chars, include uppercase, lowercase, number & symbol)"}
	}
	return nil
}

// ValidationMessage 把 validator 的錯誤換成只點名第一個失敗欄位的訊息
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param()
	case "datetime":
		return fe.Field() + " must be a valid date (YYYY-MM-DD)"
	case "email":
		return "Invalid email format"
	}
	return fe.Field() + " is invalid"
}

// ParseBirthDate 解析 YYYY-MM-DD 格式的出生日期
func ParseBirthDate(dob string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return time.Time{}, &ValidationError{Message: "Date of birth must be a valid date (YYYY-MM-DD)"}
	}
	return t, nil
}

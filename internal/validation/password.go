package validation

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

const minPasswordLength = 8

// ValidatePassword проверяет пароль при регистрации и смене пароля.
// Аккаунт здесь открывает доступ к кошельку с реальными деньгами, поэтому
// требования жёстче обычного: минимум 8 символов, обе буквы регистров и
// цифра. Спецсимволы приветствуются, но не обязательны.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("пароль должен быть не менее %d символов", minPasswordLength)
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsNumber(r):
			hasDigit = true
		}
	}

	switch {
	case !hasUpper:
		return fmt.Errorf("пароль должен содержать хотя бы одну заглавную букву")
	case !hasLower:
		return fmt.Errorf("пароль должен содержать хотя бы одну строчную букву")
	case !hasDigit:
		return fmt.Errorf("пароль должен содержать хотя бы одну цифру")
	}

	return nil
}

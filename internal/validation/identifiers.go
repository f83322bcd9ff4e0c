package validation

import (
	"fmt"
	"regexp"
)

// SubjectPattern допустимый формат идентификатора пользователя в токене:
// латинские буквы, цифры, подчеркивание, 3-32 символа
var SubjectPattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

// DocumentPattern допустимый формат идентификатора документа (дашборда)
var DocumentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,63}$`)

const (
	// MinSubjectLen минимальная длина subject
	MinSubjectLen = 3
	// MaxSubjectLen максимальная длина subject
	MaxSubjectLen = 32
	// MaxDocumentLen максимальная длина идентификатора документа
	MaxDocumentLen = 64
)

// ValidateSubject проверяет имя пользователя, для которого выпускается токен
func ValidateSubject(subject string) error {
	if subject == "" {
		return fmt.Errorf("subject cannot be empty")
	}
	if len(subject) < MinSubjectLen {
		return fmt.Errorf("subject must be at least %d characters long", MinSubjectLen)
	}
	if len(subject) > MaxSubjectLen {
		return fmt.Errorf("subject must not exceed %d characters", MaxSubjectLen)
	}
	if !SubjectPattern.MatchString(subject) {
		return fmt.Errorf("subject can only contain letters (a-z, A-Z), numbers (0-9), and underscores (_)")
	}
	return nil
}

// ValidateDocumentID проверяет идентификатор документа.
// Первый символ буква или цифра, дальше допускаются '-' и '_'.
func ValidateDocumentID(id string) error {
	if id == "" {
		return fmt.Errorf("document id cannot be empty")
	}
	if len(id) > MaxDocumentLen {
		return fmt.Errorf("document id must not exceed %d characters", MaxDocumentLen)
	}
	if !DocumentPattern.MatchString(id) {
		return fmt.Errorf("document id %q contains invalid characters", id)
	}
	return nil
}

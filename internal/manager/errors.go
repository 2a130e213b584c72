package manager

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrTaskNotFound возвращается get/update/delete для отсутствующего id
var ErrTaskNotFound = errors.New("задача не найдена")

func notFound(id int) error {
	return fmt.Errorf("задача с ID %d: %w", id, ErrTaskNotFound)
}

// ValidationError - одно или несколько недопустимых полей, ключ - имя поля в JSON
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "ошибка валидации: " + strings.Join(parts, "; ")
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

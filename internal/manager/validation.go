package manager

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"taskboard/internal/models"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
	maxCategoryLen    = 50
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// В ошибках используем имена полей из json-тегов
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
		return models.Status(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("taskpriority", func(fl validator.FieldLevel) bool {
		return models.Priority(fl.Field().String()).Valid()
	})

	return v
}

// validateCreate проверяет уже нормализованный запрос (пробелы обрезаны)
func (tm *TaskManager) validateCreate(req models.CreateTaskRequest) error {
	err := tm.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = fieldMessage(fe.Tag(), fe.Param(), fe.Value())
	}
	return out
}

// validateUpdate проверяет только переданные поля; ошибки собираются все сразу
func (tm *TaskManager) validateUpdate(req models.UpdateTaskRequest) error {
	fields := make(map[string]string)

	check := func(field string, value any, tag string) {
		if err := tm.validate.Var(value, tag); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				fields[field] = fieldMessage(verrs[0].Tag(), verrs[0].Param(), value)
			} else {
				fields[field] = err.Error()
			}
		}
	}

	if req.Title != nil {
		check("title", *req.Title, fmt.Sprintf("required,max=%d", maxTitleLen))
	}
	if req.Description != nil {
		check("description", *req.Description, fmt.Sprintf("max=%d", maxDescriptionLen))
	}
	if req.Status != nil {
		check("status", *req.Status, "taskstatus")
	}
	if req.Priority != nil {
		check("priority", *req.Priority, "taskpriority")
	}
	if req.Category != nil {
		check("category", *req.Category, fmt.Sprintf("max=%d", maxCategoryLen))
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(tag, param string, value any) string {
	switch tag {
	case "required":
		return "поле обязательно"
	case "max":
		return fmt.Sprintf("не может превышать %s символов", param)
	case "taskstatus":
		return fmt.Sprintf("недопустимый статус %q, допустимы: pending, in_progress, completed", value)
	case "taskpriority":
		return fmt.Sprintf("недопустимый приоритет %q, допустимы: low, medium, high", value)
	}
	return fmt.Sprintf("не прошло проверку %s", tag)
}

package handlers

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/taskflow/task-tracker-api/internal/models"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators adds the enum rules used in request binding tags:
// taskstatus, taskcategory and userrole. The outcome of the first call is
// returned on every call.
func RegisterValidators() error {
	registerOnce.Do(func() {
		registerErr = registerEnumRules(binding.Validator.Engine())
	})
	return registerErr
}

func registerEnumRules(engine interface{}) error {
	v, ok := engine.(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", engine)
	}

	rules := map[string]validator.Func{
		"taskstatus": func(fl validator.FieldLevel) bool {
			return models.TaskStatus(fl.Field().String()).Valid()
		},
		"taskcategory": func(fl validator.FieldLevel) bool {
			return models.TaskCategory(fl.Field().String()).Valid()
		},
		"userrole": func(fl validator.FieldLevel) bool {
			return models.UserRole(fl.Field().String()).Valid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}

// NullableID distinguishes an absent id from an explicit null in a JSON body.
type NullableID struct {
	Set   bool
	Value *uint64
}

// UnmarshalJSON records that the key was present, including as null.
func (n *NullableID) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var id uint64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	n.Value = &id
	return nil
}

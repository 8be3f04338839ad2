// Package validate rejects actions whose JSON form does not match a schema
// registered for their type.
package validate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/wilhg/redux/pkg/awaitable"
	"github.com/wilhg/redux/pkg/errmodel"
	"github.com/wilhg/redux/pkg/middleware"
	"github.com/wilhg/redux/pkg/store"
)

// Validator holds compiled schemas keyed by action type.
type Validator struct {
	mu      sync.RWMutex
	schemas map[string]*jsonschema.Schema
}

// NewValidator returns an empty validator; actions without a schema pass.
func NewValidator() *Validator {
	return &Validator{schemas: make(map[string]*jsonschema.Schema)}
}

// Register compiles schema and binds it to actionType.
func (v *Validator) Register(actionType string, schema []byte) error {
	sch, err := compile(actionType, schema)
	if err != nil {
		return errmodel.Validation("invalid_schema", err.Error(), map[string]any{"action_type": actionType})
	}
	v.mu.Lock()
	v.schemas[actionType] = sch
	v.mu.Unlock()
	return nil
}

func compile(actionType string, schema []byte) (*jsonschema.Schema, error) {
	var doc any
	if err := json.Unmarshal(schema, &doc); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("mem://actions/%s.json", actionType)
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, err
	}
	return c.Compile(url)
}

// Validate checks action against the schema registered for its type. The
// action is marshalled with encoding/json, so exported fields and json tags
// define the instance.
func (v *Validator) Validate(action store.Action) error {
	v.mu.RLock()
	sch, ok := v.schemas[action.Type()]
	v.mu.RUnlock()
	if !ok {
		return nil
	}
	b, err := json.Marshal(action)
	if err != nil {
		return errmodel.Validation("unencodable_action", err.Error(), map[string]any{"action_type": action.Type()})
	}
	var inst any
	if err := json.Unmarshal(b, &inst); err != nil {
		return errmodel.Validation("unencodable_action", err.Error(), map[string]any{"action_type": action.Type()})
	}
	if err := sch.Validate(inst); err != nil {
		return errmodel.Validation("invalid_action", err.Error(), map[string]any{"action_type": action.Type()})
	}
	return nil
}

// Middleware drops invalid actions before they reach inner middlewares and
// the store. The returned awaitable carries the validation error.
func Middleware[S any](v *Validator, logger *slog.Logger) middleware.Middleware[S] {
	if logger == nil {
		logger = slog.Default()
	}
	return func(middleware.Input[S]) func(middleware.DispatchWrapper) middleware.DispatchWrapper {
		return func(next middleware.DispatchWrapper) middleware.DispatchWrapper {
			return next.Wrap("validate", func(action store.Action) awaitable.Awaitable[any] {
				if err := v.Validate(action); err != nil {
					logger.Warn("action rejected", "action_type", action.Type(), "error", err)
					return awaitable.Fail[any](err)
				}
				return next.Dispatch(action)
			})
		}
	}
}

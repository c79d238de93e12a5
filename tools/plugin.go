// Package tools implements the assistant's capability-gated plugin
// (tool) mechanism: a name-keyed registry of callable tools, gated at
// registration time by the permission the registry was constructed with,
// plus the four canonical built-in plugins.
package tools

import (
	"context"
	"fmt"

	"github.com/nucleus-go/assistant/permission"
)

// ParamProperty describes one property of a Plugin's parameter schema.
type ParamProperty struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// ParamSchema is a subset-of-JSON-Schema description of a plugin's
// accepted arguments: an object with required and typed properties.
type ParamSchema struct {
	Type       string                   `json:"type"`
	Required   []string                 `json:"required,omitempty"`
	Properties map[string]ParamProperty `json:"properties,omitempty"`
}

// Result is what a successful Plugin.Execute returns.
type Result struct {
	Content  string
	Metadata map[string]interface{}
}

// ErrorKind classifies a plugin failure per SPEC_FULL.md §4.2.
type ErrorKind string

const (
	InvalidInput    ErrorKind = "invalid_input"
	ExecutionFailed ErrorKind = "execution_failed"
	PermissionDenied ErrorKind = "permission_denied"
	Other           ErrorKind = "other"
)

// Error is the structured error type every Plugin.Execute failure uses.
type Error struct {
	Plugin string
	Kind   ErrorKind
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tool %s failed: %s: %v", e.Plugin, e.Msg, e.Err)
	}
	return fmt.Sprintf("tool %s failed: %s", e.Plugin, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a plugin Error.
func NewError(plugin string, kind ErrorKind, msg string, err error) *Error {
	return &Error{Plugin: plugin, Kind: kind, Msg: msg, Err: err}
}

// Plugin is the contract every tool implements.
type Plugin interface {
	Name() string
	Description() string
	Schema() ParamSchema
	RequiredPermission() permission.Permission
	Execute(ctx context.Context, args map[string]interface{}) (Result, error)
}

// Spec is the read-only metadata view of a registered Plugin, matching
// SPEC_FULL.md §3's PluginSpec.
type Spec struct {
	Name                string
	Description         string
	Schema              ParamSchema
	RequiredPermission  permission.Permission
}

func specOf(p Plugin) Spec {
	return Spec{
		Name:               p.Name(),
		Description:        p.Description(),
		Schema:             p.Schema(),
		RequiredPermission: p.RequiredPermission(),
	}
}

// argString extracts a required string argument.
func argString(args map[string]interface{}, key string) (string, bool) {
	v, ok := args[key].(string)
	return v, ok
}

// argStringDefault extracts an optional string argument with a default.
func argStringDefault(args map[string]interface{}, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

// argBoolDefault extracts an optional bool argument with a default.
func argBoolDefault(args map[string]interface{}, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

// argIntDefault extracts an optional numeric argument (YAML/JSON decode as
// float64 or int) with a default.
func argIntDefault(args map[string]interface{}, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

// argStringSlice extracts an optional []string argument, tolerating
// []interface{} as produced by JSON/YAML decoding.
func argStringSlice(args map[string]interface{}, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

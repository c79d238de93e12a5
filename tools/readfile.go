package tools

import (
	"context"
	"os"

	"github.com/nucleus-go/assistant/permission"
)

// ReadFileTool reads the full UTF-8 contents of a file.
type ReadFileTool struct{}

// NewReadFileTool constructs the ReadFile plugin.
func NewReadFileTool() *ReadFileTool {
	return &ReadFileTool{}
}

func (t *ReadFileTool) Name() string        { return "read_file" }
func (t *ReadFileTool) Description() string { return "Read the full contents of a file as UTF-8 text" }

func (t *ReadFileTool) Schema() ParamSchema {
	return ParamSchema{
		Type:     "object",
		Required: []string{"path"},
		Properties: map[string]ParamProperty{
			"path": {Type: "string", Description: "Path to the file to read"},
		},
	}
}

func (t *ReadFileTool) RequiredPermission() permission.Permission {
	return permission.Read
}

func (t *ReadFileTool) Execute(ctx context.Context, args map[string]interface{}) (Result, error) {
	path, ok := argString(args, "path")
	if !ok || path == "" {
		return Result{}, NewError(t.Name(), InvalidInput, "path is required", nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, NewError(t.Name(), ExecutionFailed, "could not read file", err)
	}

	return Result{
		Content:  string(data),
		Metadata: map[string]interface{}{"path": path, "bytes": len(data)},
	}, nil
}

package tools

import (
	"context"
	"os"
	"path/filepath"

	"github.com/nucleus-go/assistant/permission"
)

// WriteFileTool overwrites a file's content, creating parent directories
// and the file itself if absent.
type WriteFileTool struct{}

// NewWriteFileTool constructs the WriteFile plugin.
func NewWriteFileTool() *WriteFileTool {
	return &WriteFileTool{}
}

func (t *WriteFileTool) Name() string        { return "write_file" }
func (t *WriteFileTool) Description() string { return "Overwrite a file with the given content" }

func (t *WriteFileTool) Schema() ParamSchema {
	return ParamSchema{
		Type:     "object",
		Required: []string{"path", "content"},
		Properties: map[string]ParamProperty{
			"path":    {Type: "string", Description: "Path to the file to write"},
			"content": {Type: "string", Description: "Content to write, replacing any existing content"},
		},
	}
}

func (t *WriteFileTool) RequiredPermission() permission.Permission {
	return permission.Read | permission.Write
}

func (t *WriteFileTool) Execute(ctx context.Context, args map[string]interface{}) (Result, error) {
	path, ok := argString(args, "path")
	if !ok || path == "" {
		return Result{}, NewError(t.Name(), InvalidInput, "path is required", nil)
	}
	content, ok := argString(args, "content")
	if !ok {
		return Result{}, NewError(t.Name(), InvalidInput, "content is required", nil)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Result{}, NewError(t.Name(), ExecutionFailed, "could not create parent directory", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return Result{}, NewError(t.Name(), ExecutionFailed, "could not write file", err)
	}

	return Result{
		Content:  "wrote " + path,
		Metadata: map[string]interface{}{"path": path, "bytes": len(content)},
	}, nil
}

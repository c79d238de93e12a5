package tools

import (
	"context"
	"os/exec"

	"github.com/nucleus-go/assistant/permission"
)

// ExecTool runs a subprocess and returns its combined stdout/stderr and
// exit status.
type ExecTool struct{}

// NewExecTool constructs the Exec plugin.
func NewExecTool() *ExecTool {
	return &ExecTool{}
}

func (t *ExecTool) Name() string        { return "exec" }
func (t *ExecTool) Description() string { return "Run a subprocess and return its combined output" }

func (t *ExecTool) Schema() ParamSchema {
	return ParamSchema{
		Type:     "object",
		Required: []string{"command", "cwd"},
		Properties: map[string]ParamProperty{
			"command": {Type: "string", Description: "Executable to run"},
			"args":    {Type: "array", Description: "Arguments to pass to the executable"},
			"cwd":     {Type: "string", Description: "Working directory"},
		},
	}
}

func (t *ExecTool) RequiredPermission() permission.Permission {
	return permission.Read | permission.Write | permission.Execute
}

func (t *ExecTool) Execute(ctx context.Context, args map[string]interface{}) (Result, error) {
	command, ok := argString(args, "command")
	if !ok || command == "" {
		return Result{}, NewError(t.Name(), InvalidInput, "command is required", nil)
	}
	cwd, ok := argString(args, "cwd")
	if !ok || cwd == "" {
		return Result{}, NewError(t.Name(), InvalidInput, "cwd is required", nil)
	}
	cmdArgs := argStringSlice(args, "args")

	cmd := exec.CommandContext(ctx, command, cmdArgs...)
	cmd.Dir = cwd

	output, runErr := cmd.CombinedOutput()

	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return Result{}, NewError(t.Name(), ExecutionFailed, "could not start process", runErr)
		}
	}

	return Result{
		Content: string(output),
		Metadata: map[string]interface{}{
			"command":   command,
			"args":      cmdArgs,
			"cwd":       cwd,
			"exit_code": exitCode,
		},
	}, nil
}

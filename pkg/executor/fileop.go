package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zen-systems/relay/pkg/classify"
	"github.com/zen-systems/relay/pkg/taskerr"
)

// FileOperationExecutor handles basic file tasks under a root directory.
// An empty root resolves paths relative to the process working directory.
type FileOperationExecutor struct {
	root string
}

// NewFileOperationExecutor creates a file operation executor rooted at root.
func NewFileOperationExecutor(root string) *FileOperationExecutor {
	return &FileOperationExecutor{root: root}
}

// TaskType returns the handled task type.
func (e *FileOperationExecutor) TaskType() classify.TaskType {
	return classify.TaskFileOperation
}

// Execute dispatches on the verb found in the input. Paths come from the
// classifier's extracted parameters.
func (e *FileOperationExecutor) Execute(_ context.Context, params map[string]string) (string, error) {
	input := strings.ToLower(params[InputParam])

	switch {
	case strings.Contains(input, "list files"), strings.Contains(input, "list the files"):
		return e.list(params["path"])
	case strings.Contains(input, "create folder"), strings.Contains(input, "create directory"):
		return e.createFolder(params["path"])
	case strings.Contains(input, "copy"):
		return e.copy(params)
	case strings.Contains(input, "find file"), strings.Contains(input, "exists"):
		return e.exists(firstPath(params))
	default:
		return "", taskerr.New(taskerr.CodeFileSystem, "I couldn't work out which file operation you meant.").
			WithDetail("input", params[InputParam])
	}
}

func (e *FileOperationExecutor) resolve(path string) string {
	if path == "" {
		return e.root
	}
	if filepath.IsAbs(path) || e.root == "" {
		return path
	}
	return filepath.Join(e.root, path)
}

func (e *FileOperationExecutor) list(path string) (string, error) {
	dir := e.resolve(path)
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fileErr("list files", err)
	}
	if len(entries) == 0 {
		return fmt.Sprintf("%s is empty.", dir), nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	return strings.Join(names, "\n"), nil
}

func (e *FileOperationExecutor) createFolder(path string) (string, error) {
	if path == "" {
		return "", taskerr.New(taskerr.CodeValidation, "which folder should I create?")
	}
	dir := e.resolve(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fileErr("create folder", err)
	}
	return fmt.Sprintf("Created %s.", dir), nil
}

func (e *FileOperationExecutor) copy(params map[string]string) (string, error) {
	paths := splitPaths(params)
	if len(paths) < 2 {
		return "", taskerr.New(taskerr.CodeValidation, "a copy needs a source and a destination path")
	}
	src, dst := e.resolve(paths[0]), e.resolve(paths[1])

	in, err := os.Open(src)
	if err != nil {
		return "", fileErr("copy", err)
	}
	defer in.Close()

	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		dst = filepath.Join(dst, filepath.Base(src))
	}
	out, err := os.Create(dst)
	if err != nil {
		return "", fileErr("copy", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", fileErr("copy", err)
	}
	return fmt.Sprintf("Copied %s to %s.", src, dst), nil
}

func (e *FileOperationExecutor) exists(path string) (string, error) {
	if path == "" {
		return "", taskerr.New(taskerr.CodeValidation, "which file should I look for?")
	}
	target := e.resolve(path)
	if _, err := os.Stat(target); err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("%s does not exist.", target), nil
		}
		return "", fileErr("find file", err)
	}
	return fmt.Sprintf("%s exists.", target), nil
}

// splitPaths returns every extracted path parameter, in order.
func splitPaths(params map[string]string) []string {
	if multi := params["paths"]; multi != "" {
		parts := strings.Split(multi, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	if single := params["path"]; single != "" {
		return []string{single}
	}
	return nil
}

func firstPath(params map[string]string) string {
	paths := splitPaths(params)
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}

func fileErr(op string, err error) error {
	if os.IsPermission(err) {
		return taskerr.Wrap(taskerr.CodePermission, err).WithDetail("operation", op)
	}
	return taskerr.Wrap(taskerr.CodeFileSystem, err).WithDetail("operation", op)
}

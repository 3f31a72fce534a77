package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zen-systems/relay/pkg/classify"
	"github.com/zen-systems/relay/pkg/taskerr"
)

func TestDefaultsCoverLocalTaskTypes(t *testing.T) {
	registry := Defaults()
	for _, taskType := range []classify.TaskType{
		classify.TaskHelp,
		classify.TaskSystemQuery,
		classify.TaskTextProcessing,
		classify.TaskFileOperation,
		classify.TaskAppControl,
	} {
		if _, ok := registry.Lookup(taskType); !ok {
			t.Fatalf("no default executor for %s", taskType)
		}
	}
	if _, ok := registry.Lookup(classify.TaskAutomation); ok {
		t.Fatal("automation must not have a local executor")
	}
}

func TestHelpExecutorIsDeterministic(t *testing.T) {
	e := NewHelpExecutor()
	first, err := e.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	second, _ := e.Execute(context.Background(), nil)
	if first != second {
		t.Fatal("help output must be stable across calls")
	}
	if !strings.Contains(first, "battery") {
		t.Fatalf("help text missing capability summary: %q", first)
	}
}

func TestTextProcessing(t *testing.T) {
	e := NewTextProcessingExecutor()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"uppercase with colon", "uppercase: hello world", "HELLO WORLD"},
		{"lowercase", "lowercase: SHOUTING", "shouting"},
		{"count words", "count words: one two three", "3 words."},
		{"reverse", "reverse: abc", "cba"},
		{"uppercase without colon", "uppercase hello", "HELLO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Execute(context.Background(), map[string]string{InputParam: tt.input})
			if err != nil {
				t.Fatalf("Execute(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("Execute(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTextProcessingRejectsCloudOnlyOps(t *testing.T) {
	e := NewTextProcessingExecutor()
	_, err := e.Execute(context.Background(), map[string]string{InputParam: "summarize this article"})
	if !taskerr.IsCode(err, taskerr.CodeValidation) {
		t.Fatalf("summarize should return a validation error, got %v", err)
	}

	_, err = e.Execute(context.Background(), map[string]string{InputParam: "uppercase:"})
	if !taskerr.IsCode(err, taskerr.CodeValidation) {
		t.Fatalf("empty payload should return a validation error, got %v", err)
	}
}

func TestSystemQueryTime(t *testing.T) {
	e := NewSystemQueryExecutor()
	e.now = func() time.Time { return time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC) }

	out, err := e.Execute(context.Background(), map[string]string{InputParam: "what time is it"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "14:30") {
		t.Fatalf("time answer = %q", out)
	}
}

func TestSystemQueryCPU(t *testing.T) {
	e := NewSystemQueryExecutor()
	out, err := e.Execute(context.Background(), map[string]string{InputParam: "how many cpu cores"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "CPU") {
		t.Fatalf("cpu answer = %q", out)
	}
}

func TestFileOperations(t *testing.T) {
	root := t.TempDir()
	e := NewFileOperationExecutor(root)
	ctx := context.Background()

	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := e.Execute(ctx, map[string]string{InputParam: "list files in here"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "notes.txt") {
		t.Fatalf("list output = %q", out)
	}

	out, err = e.Execute(ctx, map[string]string{
		InputParam: "create folder backup",
		"path":     "backup",
	})
	if err != nil {
		t.Fatalf("create folder: %v", err)
	}
	if !strings.Contains(out, "backup") {
		t.Fatalf("create output = %q", out)
	}

	_, err = e.Execute(ctx, map[string]string{
		InputParam: "copy notes.txt to backup",
		"paths":    "notes.txt, backup",
	})
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "backup", "notes.txt"))
	if err != nil {
		t.Fatalf("copied file missing: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("copied contents = %q", data)
	}

	out, err = e.Execute(ctx, map[string]string{
		InputParam: "find file nope.txt",
		"path":     "nope.txt",
	})
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !strings.Contains(out, "does not exist") {
		t.Fatalf("exists output = %q", out)
	}
}

func TestFileOperationErrors(t *testing.T) {
	e := NewFileOperationExecutor(t.TempDir())
	ctx := context.Background()

	_, err := e.Execute(ctx, map[string]string{InputParam: "copy notes.txt"})
	if !taskerr.IsCode(err, taskerr.CodeValidation) {
		t.Fatalf("copy without destination should be a validation error, got %v", err)
	}

	_, err = e.Execute(ctx, map[string]string{
		InputParam: "copy a to b",
		"paths":    "missing.txt, out.txt",
	})
	if !taskerr.IsCode(err, taskerr.CodeFileSystem) {
		t.Fatalf("copy of missing file should be a file system error, got %v", err)
	}

	_, err = e.Execute(ctx, map[string]string{InputParam: "defragment the disk"})
	if !taskerr.IsCode(err, taskerr.CodeFileSystem) {
		t.Fatalf("unknown operation should be a file system error, got %v", err)
	}
}

func TestAppControlReportsIntegrationError(t *testing.T) {
	e := NewAppControlExecutor()
	_, err := e.Execute(context.Background(), map[string]string{
		InputParam: "open Safari",
		"app":      "Safari",
	})
	if !taskerr.IsCode(err, taskerr.CodeAppIntegration) {
		t.Fatalf("want app integration error, got %v", err)
	}
	var terr *taskerr.Error
	if !errors.As(err, &terr) {
		t.Fatalf("error is not a task error: %v", err)
	}
	if terr.Details["app"] != "Safari" {
		t.Fatalf("app detail = %v", terr.Details["app"])
	}
}

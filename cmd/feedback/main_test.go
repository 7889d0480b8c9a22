package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("FEEDBACK_LOG_LEVEL", "error")
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	require.NoError(t, cmd.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func TestCLI_CreateEditExport(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "students.txt")
	require.NoError(t, os.WriteFile(list, []byte("e0001\ne0002\n"), 0o644))

	out := runCLI(t, "create", "--title", "Lab 3", "--dir", dir, "--students", list,
		"--heading", "Code", "--heading", "Overall")
	assert.Contains(t, out, `created "Lab 3" with 2 students and 2 headings`)

	file := filepath.Join(dir, "Lab-3.fht")
	require.FileExists(t, file)

	runCLI(t, "-f", file, "set-section", "e0002", "Code", "- Tidy.\n- Tidy.")
	runCLI(t, "-f", file, "set-grade", "e0002", "17.5")
	runCLI(t, "-f", file, "phrase", "add", "Overall", "Great work.")

	show := runCLI(t, "-f", file, "show")
	assert.Contains(t, show, "2  Tidy.")
	assert.Contains(t, show, "Great work.")
	assert.Contains(t, show, "17.5")

	exported := strings.TrimSpace(runCLI(t, "-f", file, "export"))
	assert.Equal(t, filepath.Join(dir, "Lab-3-feedback"), exported)
	grades, err := os.ReadFile(filepath.Join(exported, "grades.csv"))
	require.NoError(t, err)
	assert.Equal(t, "e0001,0.0\ne0002,17.5\n", string(grades))

	hist := runCLI(t, "-f", file, "histogram")
	assert.Contains(t, hist, " 17.5   1 #")
}

func TestCLI_EventsFlagPrintsJSONLines(t *testing.T) {
	dir := t.TempDir()
	runCLI(t, "create", "--title", "P1", "--dir", dir, "--heading", "Code")
	file := filepath.Join(dir, "P1.fht")

	out := runCLI(t, "--events", "-f", file, "add-student", "e0042")
	assert.Contains(t, out, `"type":"student.new"`)
	assert.Contains(t, out, `"student_id":"e0042"`)
}

func TestCLI_RequiresFile(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"show"})
	assert.ErrorContains(t, cmd.ExecuteContext(context.Background()), "--file is required")
}

func TestCLI_ShowRejectsNegativeTop(t *testing.T) {
	dir := t.TempDir()
	runCLI(t, "create", "--title", "P1", "--dir", dir, "--heading", "Code")
	file := filepath.Join(dir, "P1.fht")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filepath.Join(dir, "none.yaml"), "-f", file, "show", "--top=-1"})
	assert.ErrorContains(t, cmd.ExecuteContext(context.Background()), "--top must not be negative")

	out := runCLI(t, "-f", file, "show", "--top=0")
	assert.Contains(t, out, "Code")
}

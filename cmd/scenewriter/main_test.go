package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const script = "INT. KITCHEN - NIGHT\n\nMARA\n(whispering)\nDid you hear that?\n"

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeScript(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.txt")
	require.NoError(t, os.WriteFile(path, []byte(script), 0644))
	return path
}

func TestClassifyCommand(t *testing.T) {
	out, err := runCLI(t, "classify", writeScript(t))
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "Scene Heading  \tINT. KITCHEN - NIGHT", lines[0])
	assert.Equal(t, "Character      \tMARA", lines[1])
	assert.Equal(t, "Parenthetical  \t(whispering)", lines[2])
	assert.Equal(t, "Dialogue       \tDid you hear that?", lines[3])
	assert.Contains(t, out, "Total          \t4")
}

func TestClassifyCommand_Stdin(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("HELLO\nworld"))
	cmd.SetArgs([]string{"classify", "--stats", "-"})
	require.NoError(t, cmd.Execute())

	assert.NotContains(t, out.String(), "HELLO")
	assert.Contains(t, out.String(), "Character      \t1")
	assert.Contains(t, out.String(), "Dialogue       \t1")
}

func TestExportAndInspect(t *testing.T) {
	outDir := t.TempDir()

	out, err := runCLI(t, "export", "fdx", writeScript(t), "--title", "Night Shift", "--out", outDir)
	require.NoError(t, err)
	fdxPath := filepath.Join(outDir, "Night_Shift.fdx")
	assert.Contains(t, out, fdxPath)

	out, err = runCLI(t, "inspect", fdxPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Title: Night Shift")
	assert.Contains(t, out, "Total          \t4")
}

func TestExportPDF(t *testing.T) {
	outDir := t.TempDir()

	_, err := runCLI(t, "export", "pdf", writeScript(t), "-o", outDir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "screenplay.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	_, err := runCLI(t, "export", "docx", writeScript(t))
	assert.ErrorContains(t, err, "unsupported format")

	_, err = runCLI(t, "export", "fdx", "-", "--watch")
	assert.ErrorContains(t, err, "--watch")
}

func TestWatchFile(t *testing.T) {
	path := writeScript(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, 20*time.Millisecond, func() { calls.Add(1) }, ready)
	}()

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not start")
	}

	// several quick writes settle into one export
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(script+strings.Repeat("x", i)), 0644))
	}
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	// writes to other files are ignored
	before := calls.Load()
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.txt"), []byte("x"), 0644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, before, calls.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestAskCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-cli", r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"content":"Try a cold open."}}]}`))
	}))
	defer server.Close()

	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("LOG_DIR", t.TempDir())
	t.Setenv("OPENAI_BASE_URL", server.URL)
	t.Setenv("OPENAI_API_KEY", "sk-cli")

	out, err := runCLI(t, "ask", "how", "to", "start?", "--mode", "professional")
	require.NoError(t, err)
	assert.Equal(t, "Try a cold open.\n", out)
}

func TestAskCommand_MissingKey(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("LOG_DIR", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")

	out, err := runCLI(t, "ask", "anything")
	assert.ErrorIs(t, err, errAssistFailed)
	assert.Equal(t, "Error: Please enter your OpenAI API key.\n", out)
}

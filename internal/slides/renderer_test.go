package slides_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/genservices/internal/config"
	"github.com/nikhilbhutani/genservices/internal/slides"
)

// minimalPDF builds a valid PDF with the given number of empty pages.
func minimalPDF(pages int) []byte {
	var buf bytes.Buffer
	offsets := []int{}
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")

	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", 3+i)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages))
	for i := 0; i < pages; i++ {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 960 540] >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(dir, "marp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func newRenderer(t *testing.T, script string) (*slides.Renderer, string) {
	t.Helper()

	binDir := t.TempDir()
	workDir := filepath.Join(t.TempDir(), "work")
	r, err := slides.NewRenderer(config.MarpConfig{
		BinPath: writeScript(t, binDir, script),
		WorkDir: workDir,
	})
	require.NoError(t, err)
	return r, workDir
}

func TestRender(t *testing.T) {
	t.Parallel()

	fixtures := t.TempDir()
	fixture := filepath.Join(fixtures, "deck.pdf")
	require.NoError(t, os.WriteFile(fixture, minimalPDF(3), 0o600))
	seen := filepath.Join(fixtures, "seen.md")
	argsFile := filepath.Join(fixtures, "args")

	r, workDir := newRenderer(t, fmt.Sprintf("echo \"$@\" > %s\ncp \"$1\" %s\ncp %s \"$4\"\n", argsFile, seen, fixture))

	out, err := r.Render(context.Background(), "# Title\n\n---\n\n# Two")
	require.NoError(t, err)

	assert.Equal(t, 3, out.Pages)
	assert.Regexp(t, `^slides_[0-9a-f-]{36}\.pdf$`, out.Filename)
	assert.Equal(t, filepath.Join(workDir, out.Filename), out.Path)
	assert.FileExists(t, out.Path)

	md, err := os.ReadFile(seen)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\n---\n\n# Two", string(md))

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Contains(t, string(args), "--pdf --output "+out.Path+" --allow-local-files")

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "markdown input should be removed")
	assert.Equal(t, out.Filename, entries[0].Name())
}

func TestRenderUniqueNames(t *testing.T) {
	t.Parallel()

	fixture := filepath.Join(t.TempDir(), "deck.pdf")
	require.NoError(t, os.WriteFile(fixture, minimalPDF(1), 0o600))
	r, _ := newRenderer(t, fmt.Sprintf("cp %s \"$4\"\n", fixture))

	a, err := r.Render(context.Background(), "# A")
	require.NoError(t, err)
	b, err := r.Render(context.Background(), "# B")
	require.NoError(t, err)
	assert.NotEqual(t, a.Path, b.Path)
}

func TestRenderMarpFailure(t *testing.T) {
	t.Parallel()

	r, workDir := newRenderer(t, "echo 'Unexpected token in front-matter' >&2\nexit 1\n")

	_, err := r.Render(context.Background(), "---\nbad: [\n")
	var renderErr *slides.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Contains(t, renderErr.Stderr, "Unexpected token")

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRenderMissingBinary(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	r, err := slides.NewRenderer(config.MarpConfig{BinPath: filepath.Join(workDir, "no-such-marp"), WorkDir: workDir})
	require.NoError(t, err)

	_, err = r.Render(context.Background(), "# Hi")
	require.Error(t, err)
	var renderErr *slides.RenderError
	assert.NotErrorAs(t, err, &renderErr)

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRenderUnreadableOutputKeepsFile(t *testing.T) {
	t.Parallel()

	r, _ := newRenderer(t, "echo 'not a pdf' > \"$4\"\n")

	out, err := r.Render(context.Background(), "# Hi")
	require.NoError(t, err)
	assert.Zero(t, out.Pages)
	assert.FileExists(t, out.Path)
}

func TestRenderEmptyMarkdown(t *testing.T) {
	t.Parallel()

	r, _ := newRenderer(t, "exit 0\n")
	_, err := r.Render(context.Background(), "")
	assert.ErrorIs(t, err, slides.ErrInvalidInput)
}

func TestInspectPDF(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "x.pdf")
	require.NoError(t, os.WriteFile(path, minimalPDF(5), 0o600))

	info, err := slides.InspectPDF(path)
	require.NoError(t, err)
	assert.Equal(t, 5, info.Pages)
	assert.Empty(t, info.Title)
}

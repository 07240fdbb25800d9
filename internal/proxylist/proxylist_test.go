package proxylist

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	t.Parallel()

	t.Run("trims, skips blanks and comments, collapses duplicates", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "proxies.txt")
		content := "# candidates\n1.2.3.4:8080\n\n  5.6.7.8:3128:user:pass  \r\n1.2.3.4:8080\nbad-line\n   \n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write input: %v", err)
		}

		got, err := Read(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"1.2.3.4:8080", "5.6.7.8:3128:user:pass", "bad-line"}
		if !slices.Equal(got, want) {
			t.Errorf("Read() = %v, want %v", got, want)
		}
	})

	t.Run("empty file yields no lines", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "empty.txt")
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatalf("failed to write input: %v", err)
		}

		got, err := Read(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no lines, got %v", got)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := Read(filepath.Join(t.TempDir(), "missing.txt"))
		if !errors.Is(err, ErrInputNotFound) {
			t.Errorf("expected ErrInputNotFound, got %v", err)
		}
	})
}

func TestParse(t *testing.T) {
	t.Parallel()

	got, err := Parse(strings.NewReader("a:1\n#b:2\na:1\nc:3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(got, []string{"a:1", "c:3"}) {
		t.Errorf("Parse() = %v", got)
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()

	t.Run("writes one line per proxy and creates parents", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "out", "nested", "good.txt")
		if err := Write(path, []string{"1.2.3.4:8080", "5.6.7.8:3128:user:pass"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(path) //nolint:gosec // test file
		if err != nil {
			t.Fatalf("failed to read output: %v", err)
		}
		if string(data) != "1.2.3.4:8080\n5.6.7.8:3128:user:pass\n" {
			t.Errorf("unexpected content %q", data)
		}
	})

	t.Run("truncates existing content", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "good.txt")
		if err := os.WriteFile(path, []byte("old:1\nold:2\nold:3\n"), 0o600); err != nil {
			t.Fatalf("failed to seed output: %v", err)
		}

		if err := Write(path, []string{"new:1"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(path) //nolint:gosec // test file
		if err != nil {
			t.Fatalf("failed to read output: %v", err)
		}
		if string(data) != "new:1\n" {
			t.Errorf("unexpected content %q", data)
		}
	})

	t.Run("empty list still creates the file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "good.txt")
		if err := os.WriteFile(path, []byte("stale:1\n"), 0o600); err != nil {
			t.Fatalf("failed to seed output: %v", err)
		}

		if err := Write(path, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("expected output file: %v", err)
		}
		if info.Size() != 0 {
			t.Errorf("expected empty file, got %d bytes", info.Size())
		}
	})

	t.Run("read back round trip", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "good.txt")
		lines := []string{"a:1", "b:2:u:p"}
		if err := Write(path, lines); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, err := Read(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(got, lines) {
			t.Errorf("round trip = %v, want %v", got, lines)
		}
	})
}

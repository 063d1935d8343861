package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/chartpad/pkg/cache"
	"github.com/matzehuels/chartpad/pkg/errors"
	pio "github.com/matzehuels/chartpad/pkg/io"
)

const pnl = "Year,Revenue,COGS\n2019,100,40\n2020,120,50\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileLoad(t *testing.T) {
	f, err := NewFile(writeFile(t, "pnl.csv", pnl))
	if err != nil {
		t.Fatal(err)
	}
	if f.Format != pio.FormatCSV {
		t.Errorf("format = %q", f.Format)
	}
	data, err := f.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if data.Key.ID != "year" || len(data.Columns) != 2 || len(data.Rows) != 2 {
		t.Errorf("data = %+v", data)
	}
}

func TestFileKeyTracksContent(t *testing.T) {
	path := writeFile(t, "pnl.csv", pnl)
	f := &File{Path: path}
	k := cache.NewDefaultKeyer()

	a, err := f.Key(context.Background(), k)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := f.Key(context.Background(), k)
	if a != b {
		t.Error("key not stable")
	}

	if err := os.WriteFile(path, []byte(pnl+"2021,150,55\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, _ := f.Key(context.Background(), k)
	if a == c {
		t.Error("key ignored content change")
	}

	f.KeyColumn = "other"
	d, _ := f.Key(context.Background(), k)
	if d == c {
		t.Error("key ignored options")
	}
}

func TestFileErrors(t *testing.T) {
	if _, err := NewFile("data.pdf"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown extension: %v", err)
	}
	f := &File{Path: filepath.Join(t.TempDir(), "missing.csv")}
	if _, err := f.Load(context.Background()); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: %v", err)
	}
	if _, err := f.Key(context.Background(), cache.NewDefaultKeyer()); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file key: %v", err)
	}
}

package buildinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	Version = "v1.2.3"
	if got := String(); !strings.Contains(got, "version: v1.2.3") {
		t.Errorf("String() = %q", got)
	}
	if got := Template(); !strings.HasPrefix(got, "{{.Name}} v1.2.3") {
		t.Errorf("Template() = %q", got)
	}
}

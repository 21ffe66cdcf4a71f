package summarizer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteDocx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meeting.summary.docx")
	md := "# Weekly sync\n\n• **Ship** the recorder\n- Fix `flaky` tests\n\n---\nPlain line"

	if err := WriteDocx("meeting", md, path); err != nil {
		t.Fatalf("WriteDocx() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("docx not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("docx is empty")
	}
}

func TestCleanMarkdownInline(t *testing.T) {
	if got := cleanMarkdownInline("**a** __b__ `c`"); got != "a b c" {
		t.Errorf("cleanMarkdownInline() = %q", got)
	}
}

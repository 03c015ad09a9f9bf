package docxtext

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

const sampleDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
    <w:p><w:r></w:r></w:p>
  </w:body>
</w:document>`

func writeSampleDocx(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(sampleDocumentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	return path
}

func TestExtractJoinsParagraphs(t *testing.T) {
	path := writeSampleDocx(t)

	text, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := "First paragraph.\n\nSecond paragraph."
	if text != want {
		t.Errorf("Extract() = %q, want %q", text, want)
	}
}

func TestExtractMissingDocumentXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	zw := zip.NewWriter(f)
	zw.Close()
	f.Close()

	if _, err := Extract(path); err == nil {
		t.Fatalf("expected error for docx missing word/document.xml")
	}
}

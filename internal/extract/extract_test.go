package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString("<w:p><w:r><w:t>" + p + "</w:t></w:r></w:p>")
	}
	doc := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create docx entry: %v", err)
	}
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("write docx entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close docx: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTextFromBytes_ZipDocxNormalizes(t *testing.T) {
	data := buildDocx(t, "Scope of Work", "Vendor must hold ISO 27001")

	text, err := ExtractTextFromBytes(context.Background(), data, "application/zip", "rfp.docx")
	if err != nil {
		t.Fatalf("expected docx to extract from zip mime, got error: %v", err)
	}
	if !strings.Contains(text, "Scope of Work\nVendor must hold ISO 27001") {
		t.Fatalf("unexpected docx text: %q", text)
	}
}

func TestExtractTextFromBytes_XLSX(t *testing.T) {
	wb := excelize.NewFile()
	t.Cleanup(func() { _ = wb.Close() })
	rows := [][]any{
		{"Item", "Description", "Qty", "Unit Price"},
		{"1", "Core switch", 2, 15000},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := wb.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	text, err := ExtractTextFromBytes(context.Background(), buf.Bytes(), "application/octet-stream", "boq.xlsx")
	if err != nil {
		t.Fatalf("extract xlsx: %v", err)
	}
	if !strings.Contains(text, "1\tCore switch\t2\t15000") {
		t.Fatalf("unexpected xlsx text: %q", text)
	}
}

func TestNormalizeMimeType(t *testing.T) {
	tests := []struct {
		name     string
		mime     string
		fileName string
		data     []byte
		want     string
	}{
		{name: "explicit pdf", mime: "application/pdf; charset=binary", fileName: "a.bin", want: mimePDF},
		{name: "octet stream by extension", mime: "application/octet-stream", fileName: "Tender.PDF", want: mimePDF},
		{name: "octet stream by magic", mime: "", fileName: "upload", data: []byte("%PDF-1.7"), want: mimePDF},
		{name: "csv", mime: "", fileName: "prices.csv", want: mimeCSV},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := MimeTypeFor(tt.mime, tt.fileName, tt.data); got != tt.want {
				t.Fatalf("MimeTypeFor = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractTextFromBytes_RealZipRejected(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("notes.txt")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	_, err = ExtractTextFromBytes(context.Background(), buf.Bytes(), "application/zip", "notes.zip")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType for zip, got %v", err)
	}
	if !strings.Contains(err.Error(), "unsupported mime type: application/zip") {
		t.Fatalf("unexpected error: %v", err)
	}
}

package ingestion

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"bidsflow-backend/internal/shared/telemetry"
)

// MaxArchiveEntryBytes caps the uncompressed size of a single archive entry.
const MaxArchiveEntryBytes = 50 << 20

// ArchiveFile is one eligible document unpacked from an archive.
type ArchiveFile struct {
	Name string
	Data []byte
}

var primaryDocumentHints = []string{"rfp", "tender", "solicitation", "agreement"}

// ExpandArchive unpacks the PDF documents in a zip archive. Directories,
// macOS resource forks, dot-files and OS thumbnails are skipped. An archive
// with nothing eligible returns ErrNoEligibleFiles.
func ExpandArchive(data []byte) ([]ArchiveFile, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	var files []ArchiveFile
	for _, f := range zr.File {
		if !eligibleEntry(f) {
			continue
		}
		if f.UncompressedSize64 > MaxArchiveEntryBytes {
			return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrPayloadTooLarge, f.Name, MaxArchiveEntryBytes)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", ErrInvalidArchive, f.Name, err)
		}
		body, err := io.ReadAll(io.LimitReader(rc, MaxArchiveEntryBytes+1))
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidArchive, f.Name, err)
		}
		if len(body) > MaxArchiveEntryBytes {
			return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrPayloadTooLarge, f.Name, MaxArchiveEntryBytes)
		}
		files = append(files, ArchiveFile{Name: path.Base(f.Name), Data: body})
	}
	if len(files) == 0 {
		return nil, ErrNoEligibleFiles
	}
	return files, nil
}

func eligibleEntry(f *zip.File) bool {
	if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
		return false
	}
	name := strings.ReplaceAll(f.Name, "\\", "/")
	if strings.HasPrefix(name, "__MACOSX/") || strings.Contains(name, "/__MACOSX/") {
		return false
	}
	base := path.Base(name)
	if strings.HasPrefix(base, ".") || strings.EqualFold(base, "Thumbs.db") {
		return false
	}
	return strings.EqualFold(path.Ext(base), ".pdf")
}

// PickPrimaryDocument guesses which file is the tender document by file name.
// Without a hint it falls back to the first file; the bool reports whether a
// hint matched.
func PickPrimaryDocument(files []ArchiveFile) (ArchiveFile, bool) {
	for _, f := range files {
		name := strings.ToLower(f.Name)
		for _, hint := range primaryDocumentHints {
			if strings.Contains(name, hint) {
				return f, true
			}
		}
	}
	if len(files) == 0 {
		return ArchiveFile{}, false
	}
	telemetry.Warn("ingestion.primary_document_fallback", map[string]any{
		"file_name":  files[0].Name,
		"confidence": "low",
		"candidates": len(files),
	})
	return files[0], false
}

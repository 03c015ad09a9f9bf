// Package util collects the filesystem path conventions shared by the
// Orchestrator, Book Registry, and Packaging service, keeping the
// upload/output layout defined in one place.
package util

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// UploadPath returns the transient upload path for a single-file
// conversion job: uploads/<job_id>.<ext>.
func UploadPath(jobID, ext string) string {
	return filepath.Join("uploads", fmt.Sprintf("%s.%s", jobID, ext))
}

// BookCacheDir returns the directory a book's cached chapter texts and
// manifest live in: uploads/<book_id>/.
func BookCacheDir(bookID string) string {
	return filepath.Join("uploads", bookID)
}

// ChapterCachePath returns the path of a single cached, cleaned chapter
// text file: uploads/<book_id>/chapter_NN.txt (2-digit, 0-padded).
func ChapterCachePath(bookID string, index int) string {
	return filepath.Join(BookCacheDir(bookID), fmt.Sprintf("chapter_%02d.txt", index))
}

// ManifestPath returns a book's manifest path: uploads/<book_id>/book.json.
func ManifestPath(bookID string) string {
	return filepath.Join(BookCacheDir(bookID), "book.json")
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// OutputPath returns the completed-audio path: output/<job_id>_<base>.mp3.
// base is sanitized so a chapter title or upload filename never escapes
// the output directory or collides with shell-unsafe characters.
func OutputPath(jobID, base string) string {
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = unsafeFilenameChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_")
	if base == "" {
		base = "audio"
	}
	return filepath.Join("output", fmt.Sprintf("%s_%s.mp3", jobID, base))
}

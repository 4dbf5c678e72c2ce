// Package ingest stores uploaded files and unpacks uploaded archives so they
// can be processed from disk.
package ingest

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/ocrlayout/format"
)

var (
	// ErrInvalidArchivePath is returned for archive entries that would be
	// written outside the extraction directory.
	ErrInvalidArchivePath = errors.New("archive entry escapes destination")

	// ErrDisallowedFile is returned for uploads whose type is not accepted.
	ErrDisallowedFile = errors.New("file type not allowed")

	// ErrTooLarge is returned when an upload or archive exceeds MaxBytes.
	ErrTooLarge = errors.New("upload too large")
)

// UploadDir is the directory under the media root that receives uploads.
const UploadDir = "uploaded_files"

// Store saves uploads under a media root. Each upload gets its own
// directory so concurrent jobs never share files.
type Store struct {
	root string

	// MaxBytes bounds the bytes written for one upload, archive contents
	// included. Zero means no limit.
	MaxBytes int64
}

// NewStore creates a store rooted at mediaRoot.
func NewStore(mediaRoot string) *Store {
	return &Store{root: mediaRoot}
}

// Root returns the media root.
func (s *Store) Root() string {
	return s.root
}

// Save writes an uploaded file for the given key (normally the job ID) and
// returns the path to process. Zip archives are extracted and the
// extraction directory is returned; any other accepted file is saved as is
// and its own path is returned.
func (s *Store) Save(key, filename string, r io.Reader) (string, error) {
	name := filepath.Base(filepath.Clean("/" + filename))
	if name == "/" || name == "." || !format.Uploadable(name) {
		return "", fmt.Errorf("%q: %w", filename, ErrDisallowedFile)
	}

	dir := filepath.Join(s.root, UploadDir, filepath.Base(key))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}

	dst := filepath.Join(dir, name)
	if err := s.writeFile(dst, r); err != nil {
		return "", err
	}

	if format.Detect(name) != format.ZIP {
		return dst, nil
	}

	extractDir := strings.TrimSuffix(dst, filepath.Ext(dst))
	if err := ExtractZip(dst, extractDir, s.MaxBytes); err != nil {
		return "", err
	}
	if err := os.Remove(dst); err != nil {
		return "", fmt.Errorf("removing archive: %w", err)
	}
	return extractDir, nil
}

func (s *Store) writeFile(dst string, r io.Reader) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	if err := copyLimited(out, r, limitOf(s.MaxBytes)); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

// ExtractZip unpacks the archive at src into dest. Entries that are not
// accepted file types, directories, and macOS resource forks are skipped.
// maxBytes bounds the total uncompressed size; zero means no limit.
func ExtractZip(src, dest string, maxBytes int64) error {
	zr, err := zip.OpenReader(src)
	if errors.Is(err, zip.ErrInsecurePath) {
		zr.Close()
		return fmt.Errorf("%s: %w", src, ErrInvalidArchivePath)
	}
	if err != nil {
		return fmt.Errorf("opening ZIP archive: %w", err)
	}
	defer zr.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("creating extraction directory: %w", err)
	}

	remaining := limitOf(maxBytes)
	for _, f := range zr.File {
		target, err := archiveTarget(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() || skipEntry(f.Name) {
			continue
		}

		written, err := extractFile(f, target, remaining)
		if err != nil {
			return err
		}
		if remaining >= 0 {
			remaining -= written
		}
	}
	return nil
}

// archiveTarget resolves an entry name inside dest, rejecting absolute
// paths and any path that climbs out of dest.
func archiveTarget(dest, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidArchivePath)
	}
	target := filepath.Join(dest, name)
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidArchivePath)
	}
	return target, nil
}

func skipEntry(name string) bool {
	if strings.HasPrefix(name, "__MACOSX/") {
		return true
	}
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return true
	}
	f := format.Detect(base)
	return f == format.Unknown || f == format.ZIP
}

func extractFile(f *zip.File, target string, limit int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("creating directory for %s: %w", f.Name, err)
	}

	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", target, err)
	}

	cw := &countingWriter{w: out}
	if err := copyLimited(cw, rc, limit); err != nil {
		out.Close()
		return cw.n, fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	return cw.n, out.Close()
}

// limitOf maps a configured maximum to a copy limit; -1 means unlimited.
func limitOf(n int64) int64 {
	if n <= 0 {
		return -1
	}
	return n
}

// copyLimited copies r to w, failing with ErrTooLarge past limit bytes.
// A negative limit copies everything.
func copyLimited(w io.Writer, r io.Reader, limit int64) error {
	if limit < 0 {
		_, err := io.Copy(w, r)
		return err
	}
	n, err := io.Copy(w, io.LimitReader(r, limit+1))
	if err != nil {
		return err
	}
	if n > limit {
		return ErrTooLarge
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

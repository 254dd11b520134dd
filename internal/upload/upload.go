// Package upload stores files sent for a student.
//
// Files land in <root>/<student name>/<file name>. The student is looked
// up by name, not id; the first stored student with that exact name wins.
// Storage goes through github.com/viant/afs so the root may be any afs
// URL, although only local paths are used today.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/aanand-mishra/student-registry/internal/types"
)

var (
	// ErrUploadFailed wraps every I/O failure while storing a file.
	ErrUploadFailed = errors.New("error while uploading file")

	// ErrInvalidName is returned when the student name or file name cannot
	// be used as a single path element below the upload root.
	ErrInvalidName = errors.New("invalid upload name")
)

// Finder looks up students by name. storage.Storage satisfies it.
type Finder interface {
	GetStudentByName(name string) (types.Student, error)
}

// Uploader writes uploaded files below a root directory.
type Uploader struct {
	root     string
	fs       afs.Service
	students Finder
}

// New returns an Uploader rooted at root. Plain paths are made absolute
// and turned into file:// URLs.
func New(root string, students Finder) (*Uploader, error) {
	if url.Scheme(root, "") == "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("upload.New: resolve root: %w", err)
		}
		root = file.Scheme + "://" + filepath.ToSlash(abs)
	}

	return &Uploader{
		root:     strings.TrimRight(root, "/"),
		fs:       afs.New(),
		students: students,
	}, nil
}

// Upload copies body to <root>/<studentName>/<filename>, replacing any
// existing file with the same name, and returns the destination URL.
//
// The lookup happens before any filesystem access: an unknown student
// yields an error wrapping storage.ErrNotFound and nothing is written.
func (u *Uploader) Upload(ctx context.Context, studentName, filename string, body io.Reader) (string, error) {
	if !isPathElement(studentName) {
		return "", fmt.Errorf("student name %q: %w", studentName, ErrInvalidName)
	}

	if _, err := u.students.GetStudentByName(studentName); err != nil {
		return "", fmt.Errorf("Upload: %w", err)
	}

	name := SanitizeFilename(filename)
	if !isPathElement(name) {
		return "", fmt.Errorf("file name %q: %w", filename, ErrInvalidName)
	}

	dir := u.root + "/" + studentName
	dest := dir + "/" + name

	exists, err := u.fs.Exists(ctx, dir)
	if err != nil {
		return "", fmt.Errorf("%w: check %s: %v", ErrUploadFailed, dir, err)
	}
	if !exists {
		if err := u.fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return "", fmt.Errorf("%w: create %s: %v", ErrUploadFailed, dir, err)
		}
	}

	if exists, _ := u.fs.Exists(ctx, dest); exists {
		if err := u.fs.Delete(ctx, dest); err != nil {
			return "", fmt.Errorf("%w: replace %s: %v", ErrUploadFailed, dest, err)
		}
	}

	if err := u.fs.Upload(ctx, dest, file.DefaultFileOsMode, body); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", ErrUploadFailed, dest, err)
	}

	return dest, nil
}

// SanitizeFilename replaces every colon with an underscore and drops any
// directory part, leaving only the final path element.
func SanitizeFilename(filename string) string {
	name := strings.ReplaceAll(filename, ":", "_")
	name = strings.ReplaceAll(name, "\\", "/")
	return path.Base(name)
}

func isPathElement(name string) bool {
	if name == "" || name == "." || name == ".." || name == "/" {
		return false
	}
	return !strings.ContainsAny(name, "/\\")
}


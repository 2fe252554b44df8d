package opc

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
)

// Storage is the interface for writing package parts (XML and media files).
// Implementations can write to ZIP archives or directory structures.
type Storage interface {
	WriteBlob(path string, blob []byte) error
}

// DirStorage writes package parts to a directory structure on disk.
// This is useful for debugging as it allows inspection of generated XML files.
type DirStorage struct {
	Dir string // Root directory path
}

// ZipStorage writes package parts to a ZIP archive, creating a standard .xlsx file.
type ZipStorage struct {
	z *zip.Writer
}

// NewDirStorage creates a new directory-based storage that writes files to the specified directory.
// The directory will be created if it doesn't exist.
func NewDirStorage(dir string) *DirStorage {
	return &DirStorage{
		Dir: dir,
	}
}

// WriteBlob writes a part to the directory structure.
// Creates any necessary parent directories automatically.
func (ds *DirStorage) WriteBlob(path string, blob []byte) error {
	path = strings.TrimPrefix(path, "/")
	fn := filepath.Join(ds.Dir, filepath.FromSlash(path))
	err := os.MkdirAll(filepath.Dir(fn), 0777)
	if err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	if err := os.WriteFile(fn, blob, 0666); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	return nil
}

// NewZipStorage creates a new ZIP-based storage that writes to the given writer.
// level is a flate compression level; flate.DefaultCompression is typical.
func NewZipStorage(out io.Writer, level int) *ZipStorage {
	z := zip.NewWriter(out)
	z.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})
	return &ZipStorage{z: z}
}

// WriteBlob writes a part to the ZIP archive.
func (zs *ZipStorage) WriteBlob(path string, blob []byte) error {
	path = strings.TrimPrefix(path, "/")
	f, err := zs.z.CreateHeader(&zip.FileHeader{Name: path, Method: zip.Deflate})
	if err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	if _, err = f.Write(blob); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	return nil
}

// Close finalizes the ZIP archive. Must be called after all writes are complete.
func (zs *ZipStorage) Close() error {
	if err := zs.z.Close(); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	return nil
}

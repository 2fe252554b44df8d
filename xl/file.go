package xl

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/adnsv/go-xlsx/crypt"
	"github.com/adnsv/go-xlsx/opc"
)

// Open loads a workbook from a package container, decrypting it first when
// it is wrapped in an encryption envelope.
func Open(r io.ReaderAt, size int64, opts Options) (*Workbook, error) {
	data := make([]byte, size)
	if _, err := r.ReadAt(data, 0); err != nil && err != io.EOF {
		return nil, errors.Wrap(ErrIO, err.Error())
	}
	return OpenBytes(data, opts)
}

// OpenBytes loads a workbook from an in-memory container.
func OpenBytes(data []byte, opts Options) (*Workbook, error) {
	if crypt.IsCompound(data) {
		if opts.Password == "" {
			return nil, errors.Wrap(ErrWrongPassword, "package is encrypted")
		}
		plain, err := crypt.Decrypt(data, opts.Password)
		if err != nil {
			return nil, err
		}
		opts.logger().Debug("package decrypted", zap.Int("size", len(plain)))
		data = plain
	}
	pkg, err := opc.OpenBytes(data)
	if err != nil {
		return nil, err
	}
	return Read(pkg, opts)
}

// OpenFile loads a workbook from disk. The path and options are kept for
// Save.
func OpenFile(name string, opts Options) (*Workbook, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(ErrIO, err.Error())
	}
	wb, err := OpenBytes(data, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}
	wb.path = name
	wb.opts = opts
	return wb, nil
}

// Save writes the workbook back to the file it was opened from or last
// saved to.
func (wb *Workbook) Save() error {
	if wb.path == "" {
		return errors.New("workbook has no file name; use SaveAs")
	}
	return wb.SaveAs(wb.path, wb.opts)
}

// SaveAs writes the workbook to a file and remembers name and opts for
// Save.
func (wb *Workbook) SaveAs(name string, opts Options) error {
	data, err := wb.Bytes(opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(name, data, 0666); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	wb.path = name
	wb.opts = opts
	return nil
}

// Write serializes the workbook to w as a ZIP container, or as an
// encrypted envelope when opts.Password is set.
func (wb *Workbook) Write(w io.Writer, opts Options) error {
	if opts.Password == "" {
		return wb.writeZip(w, opts)
	}
	data, err := wb.Bytes(opts)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	return nil
}

// Bytes is Write into memory.
func (wb *Workbook) Bytes(opts Options) ([]byte, error) {
	bb := bytes.Buffer{}
	if err := wb.writeZip(&bb, opts); err != nil {
		return nil, err
	}
	if opts.Password == "" {
		return bb.Bytes(), nil
	}
	env, err := crypt.Encrypt(bb.Bytes(), opts.Password, opts.cryptOptions())
	if err != nil {
		return nil, err
	}
	opts.logger().Debug("package encrypted", zap.Int("size", len(env)))
	return env, nil
}

// WriteStorage writes the unencrypted parts to any storage back end, for
// example an opc.DirStorage for inspecting the generated XML.
func (wb *Workbook) WriteStorage(out opc.Storage, opts Options) error {
	pkg, err := wb.Package(opts)
	if err != nil {
		return err
	}
	return pkg.Finalize(out, wb.BackupContentTypes)
}

// Package builds the in-memory package of the workbook.
func (wb *Workbook) Package(opts Options) (*opc.Package, error) {
	return NewWriter(opts).Write(wb)
}

func (wb *Workbook) writeZip(w io.Writer, opts Options) error {
	zs := opc.NewZipStorage(w, opts.level())
	if err := wb.WriteStorage(zs, opts); err != nil {
		return err
	}
	return zs.Close()
}

package xl

import (
	"errors"
	"fmt"

	"github.com/adnsv/go-xlsx/crypt"
	"github.com/adnsv/go-xlsx/opc"
	"github.com/adnsv/go-xlsx/xlxml"
)

// Error kinds surfaced at load and save boundaries. Compare with errors.Is.
var (
	ErrIO                 = opc.ErrIO
	ErrPartMissing        = opc.ErrPartMissing
	ErrPartInvalid        = xlxml.ErrPartInvalid
	ErrXMLMalformed       = xlxml.ErrMalformed
	ErrUnsupportedVersion = crypt.ErrUnsupportedVersion
	ErrEncryptionFailed   = crypt.ErrEncryptionFailed
	ErrWrongPassword      = crypt.ErrWrongPassword
	ErrBadReference       = errors.New("bad reference")
	ErrUnsupportedFeature = errors.New("unsupported feature")
)

// PartError is the concrete error carrying the part name and byte offset of
// a decode failure.
type PartError = xlxml.PartError

func badReference(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadReference, fmt.Sprintf(format, args...))
}

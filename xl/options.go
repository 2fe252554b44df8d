package xl

import (
	"io"

	"github.com/klauspost/compress/flate"
	"go.uber.org/zap"

	"github.com/adnsv/go-xlsx/crypt"
)

// Options configures loading and saving.
type Options struct {
	// Logger receives debug and warning events; nil discards them.
	Logger *zap.Logger
	// Password, when set, decrypts on open and encrypts on save.
	Password string
	// SpinCount is the key-derivation iteration count used on save.
	SpinCount int
	// Rand supplies keys and salts for encryption; crypto/rand when nil.
	Rand io.Reader
	// Compression is the deflate level of the package container; zero
	// selects flate.DefaultCompression.
	Compression int
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		SpinCount:   crypt.DefaultSpinCount,
		Compression: flate.DefaultCompression,
	}
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) cryptOptions() crypt.Options {
	return crypt.Options{SpinCount: o.SpinCount, Rand: o.Rand}
}

func (o Options) level() int {
	if o.Compression == 0 {
		return flate.DefaultCompression
	}
	return o.Compression
}

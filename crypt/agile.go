// Package crypt wraps a package in the Agile Encryption envelope: a compound
// file holding an EncryptionInfo descriptor and the AES-256-CBC encrypted
// package bytes.
package crypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
)

var (
	ErrEncryptionFailed   = errors.New("encryption failed")
	ErrUnsupportedVersion = errors.New("unsupported encryption version")
	ErrWrongPassword      = errors.New("wrong password")
	ErrNotEncrypted       = errors.New("not an encrypted package")
)

const (
	DefaultSpinCount = 100000

	segmentSize = 4096
	blockSize   = 16
	keyBytes    = 32
	saltSize    = 16
	hashSize    = 64
)

// Block keys mixed into the password hash, one per derived key.
var (
	BlockKeyVerifierHashInput = []byte{0xfe, 0xa7, 0xd2, 0x76, 0x3b, 0x4b, 0x9e, 0x79}
	BlockKeyVerifierHashValue = []byte{0xd7, 0xaa, 0x0f, 0x6d, 0x30, 0x61, 0x34, 0x4e}
	BlockKeyKeyValue          = []byte{0x14, 0x6e, 0x0b, 0xe7, 0xab, 0xac, 0xd0, 0xd6}
	BlockKeyHmacKey           = []byte{0x5f, 0xb2, 0xad, 0x01, 0x0c, 0xb9, 0xe1, 0xf6}
	BlockKeyHmacValue         = []byte{0xa0, 0x67, 0x7f, 0x02, 0xb2, 0x2c, 0x84, 0x33}
)

// versionHeader prefixes the EncryptionInfo stream: version 4.4, flags 0x40.
var versionHeader = []byte{0x04, 0x00, 0x04, 0x00, 0x40, 0x00, 0x00, 0x00}

// Options tunes Encrypt.
type Options struct {
	SpinCount int
	Rand      io.Reader // source of keys and salts; crypto/rand when nil
}

func (o Options) spin() int {
	if o.SpinCount <= 0 {
		return DefaultSpinCount
	}
	return o.SpinCount
}

func (o Options) rand() io.Reader {
	if o.Rand == nil {
		return rand.Reader
	}
	return o.Rand
}

// Info holds every parameter and encrypted blob of an EncryptionInfo stream.
type Info struct {
	KeyDataSalt                []byte
	EncryptedHmacKey           []byte
	EncryptedHmacValue         []byte
	SpinCount                  int
	KeySalt                    []byte
	EncryptedVerifierHashInput []byte
	EncryptedVerifierHashValue []byte
	EncryptedKeyValue          []byte
}

// Encrypt wraps pkg in an encrypted compound file.
func Encrypt(pkg []byte, password string, opts Options) ([]byte, error) {
	rnd := opts.rand()
	packageKey, err := random(rnd, keyBytes)
	if err != nil {
		return nil, err
	}
	keyDataSalt, err := random(rnd, saltSize)
	if err != nil {
		return nil, err
	}
	hmacKey, err := random(rnd, hashSize)
	if err != nil {
		return nil, err
	}
	keySalt, err := random(rnd, saltSize)
	if err != nil {
		return nil, err
	}
	verifierInput, err := random(rnd, saltSize)
	if err != nil {
		return nil, err
	}

	encPackage, err := encryptPackage(pkg, packageKey, keyDataSalt)
	if err != nil {
		return nil, err
	}

	info := Info{KeyDataSalt: keyDataSalt, KeySalt: keySalt, SpinCount: opts.spin()}

	info.EncryptedHmacKey, err = cbc(true, packageKey, blockIV(keyDataSalt, BlockKeyHmacKey), hmacKey)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(sha512.New, hmacKey)
	mac.Write(encPackage)
	info.EncryptedHmacValue, err = cbc(true, packageKey, blockIV(keyDataSalt, BlockKeyHmacValue), mac.Sum(nil))
	if err != nil {
		return nil, err
	}

	h, err := spinHash(password, keySalt, info.SpinCount)
	if err != nil {
		return nil, err
	}
	info.EncryptedVerifierHashInput, err = cbc(true, finalKey(h, BlockKeyVerifierHashInput), keySalt, verifierInput)
	if err != nil {
		return nil, err
	}
	verifierHash := sha512.Sum512(verifierInput)
	info.EncryptedVerifierHashValue, err = cbc(true, finalKey(h, BlockKeyVerifierHashValue), keySalt, verifierHash[:])
	if err != nil {
		return nil, err
	}
	info.EncryptedKeyValue, err = cbc(true, finalKey(h, BlockKeyKeyValue), keySalt, packageKey)
	if err != nil {
		return nil, err
	}

	return WriteCompound([]Stream{
		{Name: "EncryptionInfo", Data: info.Bytes()},
		{Name: "EncryptedPackage", Data: encPackage},
	})
}

// Decrypt recovers the package from an envelope produced by Encrypt or by
// a spreadsheet application using agile encryption.
func Decrypt(data []byte, password string) ([]byte, error) {
	streams, err := ReadCompound(data)
	if err != nil {
		return nil, err
	}
	rawInfo, ok := streams["EncryptionInfo"]
	if !ok {
		return nil, errors.Wrap(ErrNotEncrypted, "no EncryptionInfo stream")
	}
	encPackage, ok := streams["EncryptedPackage"]
	if !ok {
		return nil, errors.Wrap(ErrNotEncrypted, "no EncryptedPackage stream")
	}
	info, err := ParseInfo(rawInfo)
	if err != nil {
		return nil, err
	}

	h, err := spinHash(password, info.KeySalt, info.SpinCount)
	if err != nil {
		return nil, err
	}
	verifierInput, err := cbc(false, finalKey(h, BlockKeyVerifierHashInput), info.KeySalt, info.EncryptedVerifierHashInput)
	if err != nil {
		return nil, err
	}
	verifierHash, err := cbc(false, finalKey(h, BlockKeyVerifierHashValue), info.KeySalt, info.EncryptedVerifierHashValue)
	if err != nil {
		return nil, err
	}
	want := sha512.Sum512(verifierInput[:saltSize])
	if len(verifierHash) < hashSize || !hmac.Equal(want[:], verifierHash[:hashSize]) {
		return nil, ErrWrongPassword
	}
	packageKey, err := cbc(false, finalKey(h, BlockKeyKeyValue), info.KeySalt, info.EncryptedKeyValue)
	if err != nil {
		return nil, err
	}
	packageKey = packageKey[:keyBytes]

	if len(info.EncryptedHmacKey) > 0 {
		hmacKey, err := cbc(false, packageKey, blockIV(info.KeyDataSalt, BlockKeyHmacKey), info.EncryptedHmacKey)
		if err != nil {
			return nil, err
		}
		hmacValue, err := cbc(false, packageKey, blockIV(info.KeyDataSalt, BlockKeyHmacValue), info.EncryptedHmacValue)
		if err != nil {
			return nil, err
		}
		mac := hmac.New(sha512.New, hmacKey[:hashSize])
		mac.Write(encPackage)
		if !hmac.Equal(mac.Sum(nil), hmacValue[:hashSize]) {
			return nil, errors.Wrap(ErrEncryptionFailed, "data integrity check failed")
		}
	}
	return decryptPackage(encPackage, packageKey, info.KeyDataSalt)
}

// DeriveKey computes the 32-byte key for one block key from a password.
func DeriveKey(password string, salt []byte, spinCount int, blockKey []byte) ([]byte, error) {
	h, err := spinHash(password, salt, spinCount)
	if err != nil {
		return nil, err
	}
	return finalKey(h, blockKey), nil
}

func spinHash(password string, salt []byte, spinCount int) ([]byte, error) {
	pw, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(password))
	if err != nil {
		return nil, errors.Wrap(ErrEncryptionFailed, err.Error())
	}
	h := sha512.New()
	h.Write(salt)
	h.Write(pw)
	sum := h.Sum(nil)
	var iter [4]byte
	for i := 0; i < spinCount; i++ {
		binary.LittleEndian.PutUint32(iter[:], uint32(i))
		h.Reset()
		h.Write(iter[:])
		h.Write(sum)
		sum = h.Sum(sum[:0])
	}
	return sum, nil
}

func finalKey(h, blockKey []byte) []byte {
	d := sha512.New()
	d.Write(h)
	d.Write(blockKey)
	return d.Sum(nil)[:keyBytes]
}

func blockIV(salt, blockKey []byte) []byte {
	d := sha512.New()
	d.Write(salt)
	d.Write(blockKey)
	return d.Sum(nil)[:blockSize]
}

func segmentIV(salt []byte, i uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], i)
	return blockIV(salt, b[:])
}

func encryptPackage(pkg, key, salt []byte) ([]byte, error) {
	var out bytes.Buffer
	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], uint64(len(pkg)))
	out.Write(size[:])
	for i := 0; i*segmentSize < len(pkg); i++ {
		end := min((i+1)*segmentSize, len(pkg))
		enc, err := cbc(true, key, segmentIV(salt, uint32(i)), pkg[i*segmentSize:end])
		if err != nil {
			return nil, err
		}
		out.Write(enc)
	}
	return out.Bytes(), nil
}

func decryptPackage(data, key, salt []byte) ([]byte, error) {
	if len(data) < 8 {
		return nil, errors.Wrap(ErrEncryptionFailed, "encrypted package too short")
	}
	size := binary.LittleEndian.Uint64(data[:8])
	body := data[8:]
	out := make([]byte, 0, len(body))
	for i := 0; i*segmentSize < len(body); i++ {
		end := min((i+1)*segmentSize, len(body))
		chunk := body[i*segmentSize : end]
		chunk = chunk[:len(chunk)-len(chunk)%blockSize]
		dec, err := cbc(false, key, segmentIV(salt, uint32(i)), chunk)
		if err != nil {
			return nil, err
		}
		out = append(out, dec...)
	}
	if uint64(len(out)) < size {
		return nil, errors.Wrap(ErrEncryptionFailed, "encrypted package truncated")
	}
	return out[:size], nil
}

// cbc runs AES-CBC over data zero-padded to the block size.
func cbc(encrypt bool, key, iv, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(ErrEncryptionFailed, err.Error())
	}
	buf := make([]byte, (len(data)+blockSize-1)/blockSize*blockSize)
	copy(buf, data)
	if encrypt {
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(buf, buf)
	} else {
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(buf, buf)
	}
	return buf, nil
}

func random(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, errors.Wrap(ErrEncryptionFailed, err.Error())
	}
	return b, nil
}

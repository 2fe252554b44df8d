package crypt

import (
	"bytes"
	"encoding/base64"

	"github.com/pkg/errors"

	"github.com/adnsv/go-xlsx/xlxml"
)

const passwordKeyEncryptor = "http://schemas.microsoft.com/office/2006/keyEncryptor/password"

// Bytes encodes the EncryptionInfo stream: version header plus descriptor.
func (info *Info) Bytes() []byte {
	bb := bytes.Buffer{}
	bb.Write(versionHeader)
	x := xlxml.NewWriter(&bb)
	x.XmlStandaloneDecl()

	x.OTag("encryption")
	x.Attr("xmlns", xlxml.NsEncryption)
	x.Attr("xmlns:p", xlxml.NsPassword)

	x.OTag("+keyData")
	x.Attr("saltSize", saltSize).Attr("blockSize", blockSize).Attr("keyBits", keyBytes*8).Attr("hashSize", hashSize)
	x.Attr("cipherAlgorithm", "AES").Attr("cipherChaining", "ChainingModeCBC").Attr("hashAlgorithm", "SHA512")
	x.Attr("saltValue", b64(info.KeyDataSalt))
	x.CTag()

	x.OTag("+dataIntegrity")
	x.Attr("encryptedHmacKey", b64(info.EncryptedHmacKey))
	x.Attr("encryptedHmacValue", b64(info.EncryptedHmacValue))
	x.CTag()

	x.OTag("+keyEncryptors")
	x.OTag("+keyEncryptor").Attr("uri", passwordKeyEncryptor)
	x.OTag("+p:encryptedKey")
	x.Attr("spinCount", info.SpinCount)
	x.Attr("saltSize", saltSize).Attr("blockSize", blockSize).Attr("keyBits", keyBytes*8).Attr("hashSize", hashSize)
	x.Attr("cipherAlgorithm", "AES").Attr("cipherChaining", "ChainingModeCBC").Attr("hashAlgorithm", "SHA512")
	x.Attr("saltValue", b64(info.KeySalt))
	x.Attr("encryptedVerifierHashInput", b64(info.EncryptedVerifierHashInput))
	x.Attr("encryptedVerifierHashValue", b64(info.EncryptedVerifierHashValue))
	x.Attr("encryptedKeyValue", b64(info.EncryptedKeyValue))
	x.CTag()
	x.CTag() // keyEncryptor
	x.CTag() // keyEncryptors

	x.CTag() // encryption
	return bb.Bytes()
}

// ParseInfo decodes an agile EncryptionInfo stream.
func ParseInfo(data []byte) (*Info, error) {
	if len(data) < len(versionHeader) {
		return nil, errors.Wrap(ErrUnsupportedVersion, "EncryptionInfo too short")
	}
	major := int(data[0]) | int(data[1])<<8
	minor := int(data[2]) | int(data[3])<<8
	if major != 4 || minor != 4 {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "encryption version %d.%d", major, minor)
	}
	info := &Info{}
	r := xlxml.NewReader("EncryptionInfo", data[len(versionHeader):])
	for {
		ev, err := r.Next()
		if err != nil {
			return nil, err
		}
		switch ev.Kind {
		case xlxml.StartTag:
			switch ev.Name {
			case "keyData":
				if alg := ev.Str("hashAlgorithm"); alg != "SHA512" {
					return nil, errors.Wrapf(ErrUnsupportedVersion, "hash algorithm %q", alg)
				}
				if alg := ev.Str("cipherAlgorithm"); alg != "AES" || ev.Int("keyBits", 0) != keyBytes*8 {
					return nil, errors.Wrapf(ErrUnsupportedVersion, "cipher %s-%d", alg, ev.Int("keyBits", 0))
				}
				info.KeyDataSalt = unb64(ev.Str("saltValue"))
			case "dataIntegrity":
				info.EncryptedHmacKey = unb64(ev.Str("encryptedHmacKey"))
				info.EncryptedHmacValue = unb64(ev.Str("encryptedHmacValue"))
			case "encryptedKey":
				info.SpinCount = ev.Int("spinCount", DefaultSpinCount)
				info.KeySalt = unb64(ev.Str("saltValue"))
				info.EncryptedVerifierHashInput = unb64(ev.Str("encryptedVerifierHashInput"))
				info.EncryptedVerifierHashValue = unb64(ev.Str("encryptedVerifierHashValue"))
				info.EncryptedKeyValue = unb64(ev.Str("encryptedKeyValue"))
			}
		case xlxml.Eof:
			if len(info.KeySalt) == 0 || len(info.EncryptedKeyValue) == 0 {
				return nil, errors.Wrap(ErrUnsupportedVersion, "no password key encryptor")
			}
			return info, nil
		}
	}
}

func b64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func unb64(s string) []byte {
	b, _ := base64.StdEncoding.DecodeString(s)
	return b
}

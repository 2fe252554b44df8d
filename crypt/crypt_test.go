package crypt

import (
	"bytes"
	"encoding/hex"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	salt, _ := hex.DecodeString("3aa973eec73c98c4710021730ef5b513")
	blockKey, _ := hex.DecodeString("146e0be7abacd0d6")
	key, err := DeriveKey("password", salt, 100000, blockKey)
	require.NoError(t, err)
	assert.Equal(t, "8d5869311b1c1fdb59a1de6fe1e6f2ce7dccd4deb198a6dfb1f7fb55bc03487d", hex.EncodeToString(key))
}

func fixedRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func samplePackage(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + i/13)
	}
	return b
}

func TestEncryptRoundTrip(t *testing.T) {
	for _, size := range []int{0, 10, 4096, 4097, 70000} {
		pkg := samplePackage(size)
		env, err := Encrypt(pkg, "password", Options{SpinCount: 1000, Rand: fixedRand(1)})
		require.NoError(t, err)
		assert.True(t, IsCompound(env))

		back, err := Decrypt(env, "password")
		require.NoError(t, err, "size %d", size)
		assert.True(t, bytes.Equal(pkg, back), "size %d", size)
	}
}

func TestEncryptDeterministic(t *testing.T) {
	pkg := samplePackage(5000)
	a, err := Encrypt(pkg, "secret", Options{SpinCount: 500, Rand: fixedRand(42)})
	require.NoError(t, err)
	b, err := Encrypt(pkg, "secret", Options{SpinCount: 500, Rand: fixedRand(42)})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecryptWrongPassword(t *testing.T) {
	env, err := Encrypt(samplePackage(100), "right", Options{SpinCount: 100, Rand: fixedRand(3)})
	require.NoError(t, err)
	_, err = Decrypt(env, "wrong")
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestDecryptNotCompound(t *testing.T) {
	_, err := Decrypt([]byte("PK\x03\x04"), "x")
	assert.ErrorIs(t, err, ErrNotEncrypted)
}

func TestInfoRoundTrip(t *testing.T) {
	info := &Info{
		KeyDataSalt:                samplePackage(16),
		EncryptedHmacKey:           samplePackage(64),
		EncryptedHmacValue:         samplePackage(64),
		SpinCount:                  100000,
		KeySalt:                    samplePackage(16),
		EncryptedVerifierHashInput: samplePackage(16),
		EncryptedVerifierHashValue: samplePackage(64),
		EncryptedKeyValue:          samplePackage(32),
	}
	data := info.Bytes()
	assert.Equal(t, []byte{0x04, 0x00, 0x04, 0x00, 0x40, 0x00, 0x00, 0x00}, data[:8])
	back, err := ParseInfo(data)
	require.NoError(t, err)
	assert.Equal(t, info, back)

	data[0] = 3
	_, err = ParseInfo(data)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestCompoundRoundTrip(t *testing.T) {
	streams := []Stream{
		{Name: "Small", Data: samplePackage(100)},
		{Name: "Large", Data: samplePackage(9000)},
		{Name: "Empty"},
	}
	data, err := WriteCompound(streams)
	require.NoError(t, err)
	assert.Zero(t, len(data)%512)

	back, err := ReadCompound(data)
	require.NoError(t, err)
	assert.Equal(t, streams[0].Data, back["Small"])
	assert.Equal(t, streams[1].Data, back["Large"])
}

func TestCfbLess(t *testing.T) {
	assert.True(t, cfbLess("EncryptionInfo", "EncryptedPackage"))
	assert.True(t, cfbLess("abc", "ABD"))
}

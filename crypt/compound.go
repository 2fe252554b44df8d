package crypt

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/pkg/errors"
	"github.com/richardlehane/mscfb"
)

// Stream is a named stream stored directly under the compound-file root.
type Stream struct {
	Name string
	Data []byte
}

var cfbSignature = []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}

// IsCompound reports whether data starts with the compound-file signature.
func IsCompound(data []byte) bool {
	return bytes.HasPrefix(data, cfbSignature)
}

// ReadCompound returns every stream of a compound file keyed by name.
func ReadCompound(data []byte) (map[string][]byte, error) {
	if !IsCompound(data) {
		return nil, ErrNotEncrypted
	}
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(ErrEncryptionFailed, err.Error())
	}
	out := map[string][]byte{}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if _, seen := out[entry.Name]; seen {
			continue
		}
		b, err := io.ReadAll(entry)
		if err != nil {
			return nil, errors.Wrap(ErrEncryptionFailed, err.Error())
		}
		out[entry.Name] = b
	}
	return out, nil
}

const (
	sectorSize     = 512
	miniSectorSize = 64
	miniCutoff     = 4096
	dirEntrySize   = 128

	freeSect   = 0xffffffff
	endOfChain = 0xfffffffe
	fatSect    = 0xfffffffd
	difSect    = 0xfffffffc
	noStream   = 0xffffffff

	headerDifat = 109
)

type dirEntry struct {
	name    string
	typ     byte // 1 storage, 2 stream, 5 root
	left    uint32
	right   uint32
	child   uint32
	start   uint32
	size    uint64
	present bool
}

// WriteCompound lays the streams out as a version 3 compound file with
// 512-byte sectors. Streams below 4096 bytes go to the mini stream.
func WriteCompound(streams []Stream) ([]byte, error) {
	sorted := append([]Stream(nil), streams...)
	sort.Slice(sorted, func(i, j int) bool { return cfbLess(sorted[i].Name, sorted[j].Name) })

	entries := make([]dirEntry, 1+len(sorted))
	entries[0] = dirEntry{name: "Root Entry", typ: 5, left: noStream, right: noStream, present: true}
	for i, s := range sorted {
		if len(utf16.Encode([]rune(s.Name))) > 31 {
			return nil, errors.Wrapf(ErrEncryptionFailed, "stream name %q too long", s.Name)
		}
		entries[i+1] = dirEntry{name: s.Name, typ: 2, left: noStream, right: noStream, child: noStream, size: uint64(len(s.Data)), present: true}
	}
	entries[0].child = buildTree(entries, 1, len(entries)-1)

	// mini stream
	var mini bytes.Buffer
	var miniFat []uint32
	for i, s := range sorted {
		if len(s.Data) >= miniCutoff {
			continue
		}
		if len(s.Data) == 0 {
			entries[i+1].start = endOfChain
			continue
		}
		n := (len(s.Data) + miniSectorSize - 1) / miniSectorSize
		first := uint32(len(miniFat))
		entries[i+1].start = first
		for k := 0; k < n; k++ {
			if k == n-1 {
				miniFat = append(miniFat, endOfChain)
			} else {
				miniFat = append(miniFat, first+uint32(k)+1)
			}
		}
		mini.Write(s.Data)
		mini.Write(make([]byte, n*miniSectorSize-len(s.Data)))
	}

	sectorsOf := func(n int) int { return (n + sectorSize - 1) / sectorSize }
	dirSectors := sectorsOf(len(entries) * dirEntrySize)
	miniFatSectors := sectorsOf(len(miniFat) * 4)
	miniStreamSectors := sectorsOf(mini.Len())
	bigSectors := 0
	for _, s := range sorted {
		if len(s.Data) >= miniCutoff {
			bigSectors += sectorsOf(len(s.Data))
		}
	}
	content := dirSectors + miniFatSectors + miniStreamSectors + bigSectors

	fatSectors, difatSectors := 0, 0
	for {
		total := content + fatSectors + difatSectors
		needFat := (total + sectorSize/4 - 1) / (sectorSize / 4)
		needDifat := 0
		if needFat > headerDifat {
			needDifat = (needFat - headerDifat + 126) / 127
		}
		if needFat == fatSectors && needDifat == difatSectors {
			break
		}
		fatSectors, difatSectors = needFat, needDifat
	}

	total := content + fatSectors + difatSectors
	fat := make([]uint32, fatSectors*sectorSize/4)
	for i := range fat {
		fat[i] = freeSect
	}
	next := 0
	alloc := func(n int, mark uint32) int {
		first := next
		for k := 0; k < n; k++ {
			if mark != 0 {
				fat[next] = mark
			} else if k == n-1 {
				fat[next] = endOfChain
			} else {
				fat[next] = uint32(next + 1)
			}
			next++
		}
		return first
	}
	fatStart := alloc(fatSectors, fatSect)
	difatStart := alloc(difatSectors, difSect)
	dirStart := alloc(dirSectors, 0)
	miniFatStart := endOfChain
	if miniFatSectors > 0 {
		miniFatStart = alloc(miniFatSectors, 0)
	}
	entries[0].start = endOfChain
	if miniStreamSectors > 0 {
		entries[0].start = uint32(alloc(miniStreamSectors, 0))
		entries[0].size = uint64(mini.Len())
	}
	for i, s := range sorted {
		if len(s.Data) >= miniCutoff {
			entries[i+1].start = uint32(alloc(sectorsOf(len(s.Data)), 0))
		}
	}
	if next != total {
		return nil, errors.Wrap(ErrEncryptionFailed, "compound layout mismatch")
	}

	var out bytes.Buffer
	le := binary.LittleEndian
	put16 := func(v uint16) { binary.Write(&out, le, v) }
	put32 := func(v uint32) { binary.Write(&out, le, v) }

	// header
	out.Write(cfbSignature)
	out.Write(make([]byte, 16))
	put16(0x003e)
	put16(0x0003)
	put16(0xfffe)
	put16(9)
	put16(6)
	out.Write(make([]byte, 6))
	put32(0)
	put32(uint32(fatSectors))
	put32(uint32(dirStart))
	put32(0)
	put32(miniCutoff)
	put32(uint32(miniFatStart))
	put32(uint32(miniFatSectors))
	if difatSectors > 0 {
		put32(uint32(difatStart))
	} else {
		put32(endOfChain)
	}
	put32(uint32(difatSectors))
	for i := 0; i < headerDifat; i++ {
		if i < fatSectors {
			put32(uint32(fatStart + i))
		} else {
			put32(freeSect)
		}
	}

	// FAT
	for _, v := range fat {
		put32(v)
	}
	// DIFAT
	rest := fatSectors - headerDifat
	for d := 0; d < difatSectors; d++ {
		for k := 0; k < 127; k++ {
			idx := headerDifat + d*127 + k
			if k < rest-d*127 && idx < fatSectors {
				put32(uint32(fatStart + idx))
			} else {
				put32(freeSect)
			}
		}
		if d == difatSectors-1 {
			put32(endOfChain)
		} else {
			put32(uint32(difatStart + d + 1))
		}
	}
	// directory
	for _, e := range entries {
		writeDirEntry(&out, e)
	}
	for i := len(entries); i < dirSectors*sectorSize/dirEntrySize; i++ {
		writeDirEntry(&out, dirEntry{left: noStream, right: noStream, child: noStream})
	}
	// mini FAT
	for _, v := range miniFat {
		put32(v)
	}
	pad(&out, sectorSize)
	// mini stream
	out.Write(mini.Bytes())
	pad(&out, sectorSize)
	// big streams
	for _, s := range sorted {
		if len(s.Data) >= miniCutoff {
			out.Write(s.Data)
			pad(&out, sectorSize)
		}
	}
	return out.Bytes(), nil
}

func pad(b *bytes.Buffer, n int) {
	if r := b.Len() % n; r != 0 {
		b.Write(make([]byte, n-r))
	}
}

func writeDirEntry(out *bytes.Buffer, e dirEntry) {
	le := binary.LittleEndian
	var name [64]byte
	nameLen := 0
	if e.present {
		u := utf16.Encode([]rune(e.name))
		for i, c := range u {
			le.PutUint16(name[i*2:], c)
		}
		nameLen = (len(u) + 1) * 2
	}
	out.Write(name[:])
	binary.Write(out, le, uint16(nameLen))
	out.WriteByte(e.typ)
	out.WriteByte(1) // black
	binary.Write(out, le, e.left)
	binary.Write(out, le, e.right)
	binary.Write(out, le, e.child)
	out.Write(make([]byte, 16+4+8+8)) // clsid, state bits, times
	if e.present {
		binary.Write(out, le, e.start)
	} else {
		binary.Write(out, le, uint32(0))
	}
	binary.Write(out, le, e.size)
}

// buildTree links entries[lo..hi] (already in directory order) into a
// balanced binary tree and returns its root id.
func buildTree(entries []dirEntry, lo, hi int) uint32 {
	if lo > hi {
		return noStream
	}
	mid := (lo + hi) / 2
	entries[mid].left = buildTree(entries, lo, mid-1)
	entries[mid].right = buildTree(entries, mid+1, hi)
	return uint32(mid)
}

// cfbLess orders directory names: shorter first, then by upper-cased code
// units.
func cfbLess(a, b string) bool {
	ua, ub := utf16.Encode([]rune(a)), utf16.Encode([]rune(b))
	if len(ua) != len(ub) {
		return len(ua) < len(ub)
	}
	return strings.ToUpper(a) < strings.ToUpper(b)
}

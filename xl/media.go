package xl

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/google/uuid"
)

// BlobHash is the FNV-128 digest of blob, carried as a UUID. Media parts
// are named after it.
func BlobHash(blob []byte) uuid.UUID {
	h := fnv.New128()
	h.Write(blob)
	uid, _ := uuid.FromBytes(h.Sum([]byte{}))
	return uid
}

// MediaInfo is an image part shared by every drawing and cell that shows
// the same blob.
type MediaInfo struct {
	Name string // hashed blob + extension
	Blob []byte
	IId  int // position among in-cell pictures, -1 when only drawn
	RId  string
}

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".emf":  "image/x-emf",
	".wmf":  "image/x-wmf",
}

// normalizeImageExt lower-cases an extension, adds the dot and folds
// ".jpg" into ".jpeg".
func normalizeImageExt(ext string) (string, error) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if ext == ".jpg" {
		ext = ".jpeg"
	}
	if _, ok := imageTypes[ext]; !ok {
		return "", fmt.Errorf("%w: image extension %s", ErrUnsupportedFeature, ext)
	}
	return ext, nil
}

// mediaName is the part name of a blob: its hash plus extension.
func mediaName(p *PictureInfo) (string, error) {
	if p == nil || len(p.Blob) == 0 {
		return "", fmt.Errorf("%w: empty picture data", ErrUnsupportedFeature)
	}
	ext, err := normalizeImageExt(p.Extension)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%.16x%s", BlobHash(p.Blob), ext), nil
}

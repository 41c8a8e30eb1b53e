// Package imaging converts between image data URLs and the two JPEG profiles
// used by the pipeline: a small one for vision-model input and the final
// 1200×630 social card.
package imaging

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/2002Bishwajeet/ogbanana/internal/apperr"
)

var dataURLRe = regexp.MustCompile(`^data:([A-Za-z0-9.+/-]+);base64,(.+)$`)

// ParseDataURL splits a base64 data URL into its MIME type and decoded bytes.
func ParseDataURL(dataURL string) (mime string, data []byte, err error) {
	m := dataURLRe.FindStringSubmatch(strings.TrimSpace(dataURL))
	if m == nil {
		return "", nil, apperr.New(apperr.KindInvalidImageData, "imaging", "invalid image data URL")
	}
	data, err = base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return "", nil, apperr.Wrapf(apperr.KindInvalidImageData, "imaging", err, "invalid base64 image payload")
	}
	return m[1], data, nil
}

// EncodeDataURL builds a base64 data URL.
func EncodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

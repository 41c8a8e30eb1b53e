package imaging

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/gen2brain/jpegli"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/2002Bishwajeet/ogbanana/internal/apperr"
)

const (
	AIMaxWidth = 640
	AIQuality  = 70

	OGPWidth   = 1200
	OGPHeight  = 630
	OGPQuality = 85
)

// CompressForAIAnalysis shrinks an image to at most AIMaxWidth pixels wide,
// keeping its aspect ratio, and re-encodes it as JPEG. Images already narrow
// enough keep their size.
func CompressForAIAnalysis(dataURL string) (string, error) {
	src, err := decode(dataURL)
	if err != nil {
		return "", err
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > AIMaxWidth {
		h = max(1, h*AIMaxWidth/w)
		w = AIMaxWidth
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return encode(dst, AIQuality)
}

// CompressForOGPDelivery crops and scales an image to cover OGPWidth×OGPHeight,
// centred. It never upscales: a source smaller than the card on either axis
// is centre-cropped to the card's aspect ratio at its own resolution.
func CompressForOGPDelivery(dataURL string) (string, error) {
	src, err := decode(dataURL)
	if err != nil {
		return "", err
	}

	crop := coverCrop(src.Bounds(), OGPWidth, OGPHeight)
	w, h := OGPWidth, OGPHeight
	if crop.Dx() < OGPWidth || crop.Dy() < OGPHeight {
		w, h = crop.Dx(), crop.Dy()
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return encodeFullChroma(dst, OGPQuality)
}

// coverCrop returns the largest centred rectangle inside b with the aspect
// ratio tw:th.
func coverCrop(b image.Rectangle, tw, th int) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	cw, ch := w, w*th/tw
	if ch > h {
		ch = h
		cw = h * tw / th
	}
	cw, ch = max(1, cw), max(1, ch)
	x0 := b.Min.X + (w-cw)/2
	y0 := b.Min.Y + (h-ch)/2
	return image.Rect(x0, y0, x0+cw, y0+ch)
}

func decode(dataURL string) (image.Image, error) {
	_, data, err := ParseDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Wrapf(apperr.KindInvalidImageData, "imaging", err, "unsupported or corrupt image")
	}
	return img, nil
}

// encode writes a baseline JPEG with 4:2:0 chroma.
func encode(img image.Image, quality int) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", apperr.Wrapf(apperr.KindInternal, "imaging", err, "image compression failed")
	}
	return EncodeDataURL("image/jpeg", buf.Bytes()), nil
}

// encodeFullChroma writes a JPEG without chroma subsampling (4:4:4) so text
// and hard edges on the card stay sharp.
func encodeFullChroma(img image.Image, quality int) (string, error) {
	var buf bytes.Buffer
	err := jpegli.Encode(&buf, img, &jpegli.EncodingOptions{
		Quality:           quality,
		ChromaSubsampling: image.YCbCrSubsampleRatio444,
	})
	if err != nil {
		return "", apperr.Wrapf(apperr.KindInternal, "imaging", err, "image compression failed")
	}
	return EncodeDataURL("image/jpeg", buf.Bytes()), nil
}

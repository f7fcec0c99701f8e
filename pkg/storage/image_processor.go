package storage

import (
	"bytes"
	"image"
	"io"
	"strings"

	"anoa.com/communityreview/pkg/apperror"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

type ImageProcessor struct {
	MaxBytes     int64
	MaxDimension int
}

func NewImageProcessor(maxBytes int64, maxDimension int) *ImageProcessor {
	return &ImageProcessor{MaxBytes: maxBytes, MaxDimension: maxDimension}
}

// PreparedImage is an upload that passed sniffing and, when it was larger
// than MaxDimension, was downscaled.
type PreparedImage struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
	Resized     bool
}

func (p *PreparedImage) Reader() io.Reader {
	return bytes.NewReader(p.Data)
}

// Prepare reads r fully, rejects anything that is not an image or exceeds
// MaxBytes, and fits raster images inside MaxDimension x MaxDimension.
// Formats the decoder does not know (webp, svg) are passed through untouched.
func (p *ImageProcessor) Prepare(r io.Reader) (*PreparedImage, error) {
	limit := p.MaxBytes
	if limit <= 0 {
		limit = 10 << 20
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, apperror.Invalid("file exceeds the upload size limit")
	}
	if len(data) == 0 {
		return nil, apperror.Invalid("file is empty")
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, apperror.Invalid("only image files are allowed, got " + mtype.String())
	}

	out := &PreparedImage{Data: data, ContentType: mtype.String()}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return out, nil
	}
	out.Width, out.Height = cfg.Width, cfg.Height

	if p.MaxDimension <= 0 || (cfg.Width <= p.MaxDimension && cfg.Height <= p.MaxDimension) {
		return out, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return out, nil
	}

	format, err := imaging.FormatFromExtension(mtype.Extension())
	if err != nil {
		format = imaging.JPEG
	}

	resized := imaging.Fit(img, p.MaxDimension, p.MaxDimension, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(90)); err != nil {
		return nil, err
	}

	bounds := resized.Bounds()
	out.Data = buf.Bytes()
	out.Width, out.Height = bounds.Dx(), bounds.Dy()
	out.ContentType = mimetype.Detect(out.Data).String()
	out.Resized = true
	return out, nil
}

// Package qr renders the QR code of a public page, optionally with the
// profile avatar in the centre.
package qr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"

	// Decoders for avatars fetched from storage.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
)

const (
	DefaultSize = 512
	MinSize     = 128
	MaxSize     = 2048

	// logoShare is the largest fraction of the width the logo pad may cover.
	logoShare   = 0.22
	logoPadding = 6
	maxLogoSize = 5 << 20
)

// LevelFor returns the recovery level used with or without a logo.
func LevelFor(withLogo bool) qrcode.RecoveryLevel {
	if withLogo {
		return qrcode.Highest
	}
	return qrcode.Medium
}

// ClampSize bounds the requested pixel size.
func ClampSize(size int) int {
	switch {
	case size <= 0:
		return DefaultSize
	case size < MinSize:
		return MinSize
	case size > MaxSize:
		return MaxSize
	}
	return size
}

// Render encodes content as a PNG. A non-nil logo is centred on a white pad.
func Render(content string, size int, logo image.Image) ([]byte, error) {
	size = ClampSize(size)
	code, err := qrcode.New(content, LevelFor(logo != nil))
	if err != nil {
		return nil, fmt.Errorf("encoding qr: %w", err)
	}
	img := imaging.Clone(code.Image(size))
	if logo != nil {
		img = imaging.PasteCenter(img, logoPad(logo, img.Bounds().Dx()))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("writing png: %w", err)
	}
	return buf.Bytes(), nil
}

// logoPad crops the logo square and frames it on white within logoShare.
func logoPad(logo image.Image, width int) image.Image {
	side := int(float64(width) * logoShare)
	inner := side - 2*logoPadding
	if inner < 1 {
		inner = 1
	}
	pad := imaging.New(side, side, color.White)
	mark := imaging.Fill(logo, inner, inner, imaging.Center, imaging.Lanczos)
	return imaging.Overlay(pad, mark, image.Pt(logoPadding, logoPadding), 1.0)
}

// Fetcher downloads logos.
type Fetcher struct {
	Client *http.Client
}

// Fetch downloads and decodes an image. Any failure is reported as
// ErrLogoUnavailable so the caller can suggest dropping the logo.
func (f *Fetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	if url == "" {
		return nil, &domain.ErrLogoUnavailable{Err: fmt.Errorf("profile has no avatar")}
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.ErrLogoUnavailable{Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &domain.ErrLogoUnavailable{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.ErrLogoUnavailable{Err: fmt.Errorf("avatar fetch returned %d", resp.StatusCode)}
	}
	img, _, err := image.Decode(io.LimitReader(resp.Body, maxLogoSize))
	if err != nil {
		return nil, &domain.ErrLogoUnavailable{Err: err}
	}
	return img, nil
}

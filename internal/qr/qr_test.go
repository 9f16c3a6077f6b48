package qr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
)

func TestLevelFor(t *testing.T) {
	if LevelFor(true) != qrcode.Highest {
		t.Error("logo QR must use the highest recovery level")
	}
	if LevelFor(false) != qrcode.Medium {
		t.Error("plain QR should use medium recovery")
	}
}

func TestClampSize(t *testing.T) {
	cases := map[int]int{0: DefaultSize, -5: DefaultSize, 10: MinSize, 300: 300, 99999: MaxSize}
	for in, want := range cases {
		if got := ClampSize(in); got != want {
			t.Errorf("ClampSize(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestRender_Plain(t *testing.T) {
	data, err := Render("https://lb.example/u/loja", 256, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() < 256 {
		t.Errorf("width = %d", img.Bounds().Dx())
	}
}

func TestRender_WithLogo(t *testing.T) {
	logo := imaging.New(64, 40, color.NRGBA{R: 255, A: 255})
	data, err := Render("https://lb.example/u/loja", 512, logo)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := img.Bounds()
	r, g, bl, _ := img.At(b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2).RGBA()
	if r>>8 != 255 || g>>8 != 0 || bl>>8 != 0 {
		t.Errorf("centre pixel = %d,%d,%d, want the logo colour", r>>8, g>>8, bl>>8)
	}
	pad := logoPad(logo, b.Dx())
	if float64(pad.Bounds().Dx()) > float64(b.Dx())*logoShare {
		t.Errorf("logo pad %d exceeds %.0f%% of %d", pad.Bounds().Dx(), logoShare*100, b.Dx())
	}
	// The pad border is white.
	if c := color.NRGBAModel.Convert(pad.At(1, 1)).(color.NRGBA); c.R != 255 || c.G != 255 || c.B != 255 {
		t.Errorf("pad corner = %+v", c)
	}
}

func TestFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_ = png.Encode(w, image.NewRGBA(image.Rect(0, 0, 4, 4)))
	}))
	defer srv.Close()

	f := &Fetcher{Client: srv.Client()}
	img, err := f.Fetch(context.Background(), srv.URL+"/avatar.png")
	if err != nil || img.Bounds().Dx() != 4 {
		t.Fatalf("Fetch = %v, %v", img, err)
	}

	var lu *domain.ErrLogoUnavailable
	if _, err := f.Fetch(context.Background(), srv.URL+"/missing"); !errors.As(err, &lu) {
		t.Errorf("missing avatar err = %v", err)
	}
	if _, err := f.Fetch(context.Background(), ""); !errors.As(err, &lu) {
		t.Errorf("empty url err = %v", err)
	}
}

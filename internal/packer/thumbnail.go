package packer

import (
	"bytes"
	"image"
	"image/draw"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"

	cwebp "github.com/chai2010/webp"
	"github.com/sizeofint/webpanimation"
	xwebp "golang.org/x/image/webp"

	"github.com/LeagueToolkit/league-mod-sub000/internal/errkind"
	"github.com/LeagueToolkit/league-mod-sub000/internal/modpkg"
)

// webpRIFFHeader is the minimum length of a RIFF/WEBP container
// header: "RIFF" + 4-byte size + "WEBP".
const webpRIFFHeader = 12

// convertThumbnail produces the WebP thumbnail bytes a modpkg stores,
// from whatever source format the project carries (spec.md §4.L step
// 3): a WebP source is validated and passed through unchanged; a
// static PNG/JPEG is re-encoded losslessly to WebP; an animated GIF is
// converted frame-by-frame into an animated WebP, preserving each
// frame's delay. The result is always checked against the format's
// 5 MiB ceiling.
func convertThumbnail(src []byte) ([]byte, error) {
	if isWebp(src) {
		return passthroughWebp(src)
	}
	if g, err := gif.DecodeAll(bytes.NewReader(src)); err == nil {
		return encodeAnimatedWebp(g)
	}
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, newErr(errkind.Validation, "thumbnail is not a recognized image (expected WebP, PNG, JPEG or GIF)", err)
	}
	return encodeStaticWebp(img)
}

func isWebp(b []byte) bool {
	return len(b) >= webpRIFFHeader && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WEBP"
}

func passthroughWebp(b []byte) ([]byte, error) {
	if len(b) > modpkg.MaxThumbnailSize {
		return nil, newErr(errkind.Validation, "thumbnail exceeds maximum size of 5 MiB", nil)
	}
	if _, err := xwebp.DecodeConfig(bytes.NewReader(b)); err != nil {
		return nil, newErr(errkind.Format, "thumbnail is not a well-formed WebP image", err)
	}
	return b, nil
}

func encodeStaticWebp(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := cwebp.Encode(&buf, img, &cwebp.Options{Lossless: true}); err != nil {
		return nil, newErr(errkind.Internal, "failed to encode thumbnail as WebP", err)
	}
	if buf.Len() > modpkg.MaxThumbnailSize {
		return nil, newErr(errkind.Validation, "thumbnail exceeds maximum size of 5 MiB after WebP re-encoding", nil)
	}
	return buf.Bytes(), nil
}

// encodeAnimatedWebp composites every GIF frame onto the logical
// canvas size and encodes the sequence as a lossless animated WebP.
// Per-frame disposal methods are not modeled: each frame is treated as
// full-canvas, which holds for the flattened GIFs thumbnail sources
// typically are.
func encodeAnimatedWebp(g *gif.GIF) ([]byte, error) {
	bounds := g.Image[0].Bounds()
	anim := webpanimation.NewWebpAnimation(bounds.Dx(), bounds.Dy(), g.LoopCount)
	defer anim.ReleaseMemory()

	config := webpanimation.NewWebpConfig()
	config.SetLossless(1)

	timestampMs := 0
	for i, frame := range g.Image {
		rgba := image.NewRGBA(bounds)
		draw.Draw(rgba, bounds, frame, frame.Bounds().Min, draw.Src)
		if err := anim.AddFrame(rgba, timestampMs, config); err != nil {
			return nil, newErr(errkind.Internal, "failed to add animated thumbnail frame", err)
		}
		delayMs := g.Delay[i] * 10
		if delayMs <= 0 {
			delayMs = 100
		}
		timestampMs += delayMs
	}

	var buf bytes.Buffer
	if err := anim.Encode(&buf); err != nil {
		return nil, newErr(errkind.Internal, "failed to encode animated thumbnail as WebP", err)
	}
	if buf.Len() > modpkg.MaxThumbnailSize {
		return nil, newErr(errkind.Validation, "animated thumbnail exceeds maximum size of 5 MiB after WebP re-encoding", nil)
	}
	return buf.Bytes(), nil
}

package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"log"
	"os"
	"sync"
	"time"

	"github.com/icza/mjpeg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/i474232898/landsat-dashboard/internal/common"
	"github.com/i474232898/landsat-dashboard/internal/imagery"
)

// Options configures the renderer. Zero values fall back to DefaultOptions.
type Options struct {
	Dir      string
	Width    int
	Height   int
	Delay    time.Duration // time each frame is shown
	FontPath string        // optional TTF/OTF for labels; basicfont otherwise
	FontSize float64
}

// DefaultOptions returns the fixed playback settings.
func DefaultOptions() Options {
	return Options{
		Dir:      os.TempDir(),
		Width:    512,
		Height:   512,
		Delay:    200 * time.Millisecond,
		FontSize: 18,
	}
}

var (
	background = color.RGBA{0, 0, 0, 255}
	labelBand  = color.RGBA{0, 0, 0, 160}
	labelColor = color.RGBA{255, 255, 255, 255}
)

// Renderer writes FrameSequences to animation files.
type Renderer struct {
	opts Options

	// font.Face implementations are not safe for concurrent use.
	fontMu sync.Mutex
	face   font.Face
}

// New creates a Renderer and its output directory.
func New(opts Options) (*Renderer, error) {
	def := DefaultOptions()
	if opts.Dir == "" {
		opts.Dir = def.Dir
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.Delay <= 0 {
		opts.Delay = def.Delay
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	r := &Renderer{opts: opts, face: basicfont.Face7x13}
	if opts.FontPath != "" {
		face, err := loadFont(opts.FontPath, opts.FontSize)
		if err != nil {
			log.Printf("render: failed to load font %s, using built-in face: %v", opts.FontPath, err)
		} else {
			r.face = face
		}
	}
	return r, nil
}

func loadFont(path string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	f, err := opentype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Close releases the label font.
func (r *Renderer) Close() error {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	return r.face.Close()
}

// Render writes one new artifact with a frame per image, in order. Nothing
// is written for an empty sequence, and a partial file is removed on error.
func (r *Renderer) Render(frames imagery.FrameSequence, format imagery.Format) (imagery.Artifact, error) {
	if len(frames) == 0 {
		return imagery.Artifact{}, imagery.ErrEmptyInput
	}
	if format == "" {
		format = imagery.FormatGIF
	}

	f, err := os.CreateTemp(r.opts.Dir, "animation-*."+string(format))
	if err != nil {
		return imagery.Artifact{}, fmt.Errorf("failed to create artifact file: %w", err)
	}
	path := f.Name()

	switch format {
	case imagery.FormatGIF:
		err = r.writeGIF(f, frames)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	case imagery.FormatAVI:
		// mjpeg opens the path itself.
		f.Close()
		err = r.writeAVI(path, frames)
	default:
		f.Close()
		err = fmt.Errorf("unsupported animation format %q", format)
	}
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.Printf("render: failed to remove partial artifact %s: %v", path, rmErr)
		}
		return imagery.Artifact{}, err
	}

	dates := make([]string, 0, len(frames))
	for _, fr := range frames {
		dates = append(dates, common.FormatDate(fr.Date))
	}
	return imagery.Artifact{
		Path:      path,
		Format:    format,
		Frames:    len(frames),
		Dates:     dates,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (r *Renderer) writeGIF(f *os.File, frames imagery.FrameSequence) error {
	// Delay in 100ths of a second
	delay := int(r.opts.Delay / (10 * time.Millisecond))
	if delay < 1 {
		delay = 1
	}

	anim := &gif.GIF{
		Image:     make([]*image.Paletted, 0, len(frames)),
		Delay:     make([]int, 0, len(frames)),
		LoopCount: 0,
		Config: image.Config{
			Width:  r.opts.Width,
			Height: r.opts.Height,
		},
	}
	for _, fr := range frames {
		canvas := r.composeFrame(fr)
		bounds := canvas.Bounds()
		paletted := image.NewPaletted(bounds, palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, bounds, canvas, image.Point{})

		anim.Image = append(anim.Image, paletted)
		anim.Delay = append(anim.Delay, delay)
	}
	if err := gif.EncodeAll(f, anim); err != nil {
		return fmt.Errorf("failed to encode gif: %w", err)
	}
	return nil
}

func (r *Renderer) writeAVI(path string, frames imagery.FrameSequence) error {
	fps := int32(time.Second / r.opts.Delay)
	if fps < 1 {
		fps = 1
	}

	aw, err := mjpeg.New(path, int32(r.opts.Width), int32(r.opts.Height), fps)
	if err != nil {
		return fmt.Errorf("failed to create avi writer: %w", err)
	}

	var buf bytes.Buffer
	for i, fr := range frames {
		buf.Reset()
		if err := jpeg.Encode(&buf, r.composeFrame(fr), &jpeg.Options{Quality: 90}); err != nil {
			aw.Close()
			return fmt.Errorf("failed to encode frame %d: %w", i, err)
		}
		if err := aw.AddFrame(buf.Bytes()); err != nil {
			aw.Close()
			return fmt.Errorf("failed to add frame %d: %w", i, err)
		}
	}
	return aw.Close()
}

// composeFrame scales the image onto a fixed canvas, preserving aspect
// ratio, and stamps the frame date in a band at the top.
func (r *Renderer) composeFrame(fr imagery.Frame) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, r.opts.Width, r.opts.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	if fr.Image != nil {
		xdraw.ApproxBiLinear.Scale(canvas, fitRect(fr.Image.Bounds(), canvas.Bounds()), fr.Image, fr.Image.Bounds(), xdraw.Over, nil)
	}

	r.drawLabel(canvas, "Date: "+common.FormatDate(fr.Date))
	return canvas
}

func (r *Renderer) drawLabel(dst *image.RGBA, text string) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	metrics := r.face.Metrics()
	padding := 6
	bandHeight := metrics.Height.Ceil() + 2*padding
	band := image.Rect(0, 0, dst.Bounds().Dx(), bandHeight)
	draw.Draw(dst, band, image.NewUniform(labelBand), image.Point{}, draw.Over)

	width := font.MeasureString(r.face, text).Ceil()
	x := (dst.Bounds().Dx() - width) / 2
	if x < padding {
		x = padding
	}

	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(labelColor),
		Face: r.face,
		Dot:  fixed.P(x, padding+metrics.Ascent.Ceil()),
	}
	drawer.DrawString(text)
}

// fitRect returns the largest rectangle with src's aspect ratio centred in dst.
func fitRect(src, dst image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	dw, dh := dst.Dx(), dst.Dy()
	if sw == 0 || sh == 0 {
		return dst
	}

	w, h := dw, sh*dw/sw
	if h > dh {
		w, h = sw*dh/sh, dh
	}
	x := dst.Min.X + (dw-w)/2
	y := dst.Min.Y + (dh-h)/2
	return image.Rect(x, y, x+w, y+h)
}

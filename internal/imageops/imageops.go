// Package imageops implements the deterministic image transforms the service
// offers next to generation: resizing to explicit dimensions or device
// presets, Lanczos upscaling, and remix variations.
package imageops

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// Errors callers map to client-input failures.
var (
	ErrInvalidImage      = errors.New("imageops: could not decode image")
	ErrUnknownDevice     = errors.New("imageops: unknown device preset")
	ErrMissingDimensions = errors.New("imageops: width, height, or device must be specified")
	ErrUnsupportedFormat = errors.New("imageops: unsupported output format")
	ErrInvalidColor      = errors.New("imageops: invalid background color")
)

// DeviceResolutions maps device preset names to wallpaper dimensions.
var DeviceResolutions = map[string][2]int{
	"iphone":      {1170, 2532}, // iPhone 13/14 Pro
	"iphone_plus": {1284, 2778}, // iPhone 13/14 Pro Max
	"iphone_se":   {750, 1334},  // iPhone SE
	"ipad":        {1640, 2360}, // iPad Air
	"ipad_pro":    {2048, 2732}, // iPad Pro 12.9
	"macbook":     {1440, 900},  // MacBook Air 13"
	"macbook_pro": {1800, 1169}, // MacBook Pro 14"
	"desktop_hd":  {1920, 1080}, // HD Monitor
	"desktop_4k":  {3840, 2160}, // 4K Monitor
	"android":     {1080, 2400}, // Common Android resolution
}

// DeviceNames returns the known presets sorted, for error messages.
func DeviceNames() []string {
	names := make([]string, 0, len(DeviceResolutions))
	for name := range DeviceResolutions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResizeOptions control a Resize call.
type ResizeOptions struct {
	Width               int
	Height              int
	Device              string
	MaintainAspectRatio bool
	FitMethod           string // fit, fill, stretch, pad
	OutputFormat        string // PNG, JPEG, JPG, GIF, BMP, WEBP
	BackgroundColor     string // hex, used by pad
}

// Result carries transformed bytes plus their metadata.
type Result struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// Size is an image's pixel dimensions.
type Size struct {
	Width  int
	Height int
}

// Dimensions reads just enough of data to report its pixel size.
func Dimensions(data []byte) (Size, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Size{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return Size{Width: cfg.Width, Height: cfg.Height}, nil
}

// Resize transforms an image to the requested dimensions using one of four
// fit methods. Device presets override explicit dimensions.
func Resize(data []byte, opts ResizeOptions) (*Result, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	targetW, targetH := opts.Width, opts.Height
	if opts.Device != "" {
		res, ok := DeviceResolutions[strings.ToLower(opts.Device)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDevice, opts.Device)
		}
		targetW, targetH = res[0], res[1]
	}
	if targetW <= 0 && targetH <= 0 {
		return nil, ErrMissingDimensions
	}

	bounds := img.Bounds()
	ratio := float64(bounds.Dx()) / float64(bounds.Dy())
	if targetW <= 0 {
		targetW = int(float64(targetH) * ratio)
	}
	if targetH <= 0 {
		targetH = int(float64(targetW) / ratio)
	}

	method := strings.ToLower(opts.FitMethod)
	if method == "" {
		method = "fit"
	}
	if !opts.MaintainAspectRatio {
		method = "stretch"
	}

	var out image.Image
	switch method {
	case "stretch":
		out = imaging.Resize(img, targetW, targetH, imaging.Lanczos)
	case "fit":
		out = imaging.Fit(img, targetW, targetH, imaging.Lanczos)
	case "fill":
		out = imaging.Fill(img, targetW, targetH, imaging.Center, imaging.Lanczos)
	case "pad":
		bg, err := ParseHexColor(coalesce(opts.BackgroundColor, "#000000"))
		if err != nil {
			return nil, err
		}
		fitted := imaging.Fit(img, targetW, targetH, imaging.Lanczos)
		canvas := imaging.New(targetW, targetH, bg)
		out = imaging.PasteCenter(canvas, fitted)
	default:
		return nil, fmt.Errorf("imageops: unknown fit method %q", opts.FitMethod)
	}

	format := strings.ToUpper(coalesce(opts.OutputFormat, "PNG"))
	encoded, err := encode(out, format)
	if err != nil {
		return nil, err
	}

	b := out.Bounds()
	return &Result{Data: encoded, Format: format, Width: b.Dx(), Height: b.Dy()}, nil
}

// Upscale enlarges an image by scaleFactor with Lanczos resampling. When
// preserveOriginalSize is set the enlarged image is sampled back down to the
// source dimensions, keeping only the resampling quality gain.
func Upscale(data []byte, scaleFactor float64, preserveOriginalSize bool) (*Result, error) {
	if scaleFactor <= 0 {
		scaleFactor = 2.0
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	newW := int(float64(bounds.Dx()) * scaleFactor)
	newH := int(float64(bounds.Dy()) * scaleFactor)

	out := imaging.Resize(img, newW, newH, imaging.Lanczos)
	if preserveOriginalSize {
		out = imaging.Resize(out, bounds.Dx(), bounds.Dy(), imaging.Lanczos)
	}

	encoded, err := encode(out, "PNG")
	if err != nil {
		return nil, err
	}
	b := out.Bounds()
	return &Result{Data: encoded, Format: "PNG", Width: b.Dx(), Height: b.Dy()}, nil
}

func encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "WEBP":
		if err := webp.Encode(&buf, img, &webp.Options{Quality: 90}); err != nil {
			return nil, fmt.Errorf("imageops: encode webp: %w", err)
		}
	case "PNG", "JPEG", "JPG", "GIF", "BMP":
		f, err := imaging.FormatFromExtension(strings.ToLower(format))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
		}
		if err := imaging.Encode(&buf, img, f, imaging.JPEGQuality(90)); err != nil {
			return nil, fmt.Errorf("imageops: encode %s: %w", format, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return buf.Bytes(), nil
}

// FileExtension returns the on-disk extension for an output format.
func FileExtension(format string) string {
	switch strings.ToUpper(format) {
	case "JPEG", "JPG":
		return "jpg"
	case "WEBP":
		return "webp"
	case "GIF":
		return "gif"
	case "BMP":
		return "bmp"
	default:
		return "png"
	}
}

// ParseHexColor parses "#RRGGBB" (or "RRGGBB") into a color.
func ParseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		var v uint8
		if _, err := fmt.Sscanf(s[i*2:i*2+2], "%02x", &v); err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		rgb[i] = v
	}
	return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, nil
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package images

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// LetterboxMode selects how the padding around the resized image is computed.
type LetterboxMode int

const (
	// LetterboxStrideAligned pads only up to the next multiple of the stride,
	// so the output may be smaller than the target.
	LetterboxStrideAligned LetterboxMode = iota
	// LetterboxStretchFill ignores the aspect ratio and resizes straight to
	// the target with no padding.
	LetterboxStretchFill
	// LetterboxFixed pads all the way to the target size.
	LetterboxFixed
)

var letterboxModeNames = map[LetterboxMode]string{
	LetterboxStrideAligned: "stride_aligned",
	LetterboxStretchFill:   "stretch_fill",
	LetterboxFixed:         "fixed",
}

func (m LetterboxMode) String() string {
	if name, ok := letterboxModeNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseLetterboxMode maps a mode name to a LetterboxMode. An empty name
// selects LetterboxStrideAligned.
func ParseLetterboxMode(name string) (LetterboxMode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return LetterboxStrideAligned, nil
	}
	for m, n := range letterboxModeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidInput, "unknown letterbox mode %q", name)
}

// DefaultPadColor is the gray YOLO models are trained with.
var DefaultPadColor = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// LetterboxOptions configures Letterbox and PlanLetterbox.
type LetterboxOptions struct {
	Target       Size
	Mode         LetterboxMode
	Stride       int
	AllowUpscale bool
	Color        color.RGBA
	Filter       ResampleFilter
}

// DefaultLetterboxOptions returns 640x640 stride-aligned options with upscaling
// allowed.
func DefaultLetterboxOptions() LetterboxOptions {
	return LetterboxOptions{
		Target:       Size{Width: 640, Height: 640},
		Mode:         LetterboxStrideAligned,
		Stride:       32,
		AllowUpscale: true,
		Color:        DefaultPadColor,
		Filter:       ResampleBilinear,
	}
}

// Validate checks the target size and, for stride-aligned mode, the stride.
func (o LetterboxOptions) Validate() error {
	if err := o.Target.Validate(); err != nil {
		return errors.Wrap(err, "letterbox target")
	}
	if _, ok := letterboxModeNames[o.Mode]; !ok {
		return errors.Wrapf(ErrInvalidInput, "unknown letterbox mode %d", o.Mode)
	}
	if o.Mode == LetterboxStrideAligned && o.Stride <= 0 {
		return errors.Wrapf(ErrInvalidInput, "stride must be positive, got %d", o.Stride)
	}
	return nil
}

// LetterboxPlan is the pure geometry of a letterbox: how the original image is
// scaled and where it sits inside the padded canvas.
type LetterboxPlan struct {
	Original Size
	// Unpadded is the size of the resized image before padding.
	Unpadded Size
	// RatioX and RatioY are the resize factors per axis. They only differ in
	// stretch-fill mode.
	RatioX, RatioY           float32
	Top, Bottom, Left, Right int
}

// Padded returns the size of the final canvas.
func (p LetterboxPlan) Padded() Size {
	return Size{
		Width:  p.Unpadded.Width + p.Left + p.Right,
		Height: p.Unpadded.Height + p.Top + p.Bottom,
	}
}

// NeedsResize reports whether the original differs from the unpadded size in
// either dimension.
func (p LetterboxPlan) NeedsResize() bool {
	return p.Unpadded != p.Original
}

// PlanLetterbox computes the letterbox geometry for an image of size orig.
//
// The scale is min(target.h/orig.h, target.w/orig.w), capped at 1 when upscaling
// is disabled. The leftover space is split in half and distributed with
// asymmetric rounding: top/left take round(d-0.1) and bottom/right take
// round(d+0.1), so an odd remainder puts the extra pixel on the bottom/right.
//
// Arguments:
//   - orig: The original image size.
//   - opts: The letterbox options.
//
// Returns:
//   - LetterboxPlan: The computed geometry.
//   - error: ErrInvalidInput for non-positive sizes or an invalid stride.
func PlanLetterbox(orig Size, opts LetterboxOptions) (LetterboxPlan, error) {
	if err := orig.Validate(); err != nil {
		return LetterboxPlan{}, errors.Wrap(err, "letterbox source")
	}
	if err := opts.Validate(); err != nil {
		return LetterboxPlan{}, err
	}

	t := opts.Target
	r := math32.Min(float32(t.Height)/float32(orig.Height), float32(t.Width)/float32(orig.Width))
	if !opts.AllowUpscale {
		r = math32.Min(r, 1)
	}

	plan := LetterboxPlan{
		Original: orig,
		RatioX:   r,
		RatioY:   r,
		Unpadded: Size{
			// Degenerate aspect ratios still keep one pixel.
			Width:  max(1, int(math32.Round(float32(orig.Width)*r))),
			Height: max(1, int(math32.Round(float32(orig.Height)*r))),
		},
	}

	dw := float32(t.Width - plan.Unpadded.Width)
	dh := float32(t.Height - plan.Unpadded.Height)

	switch opts.Mode {
	case LetterboxStrideAligned:
		dw = float32(int(dw) % opts.Stride)
		dh = float32(int(dh) % opts.Stride)
	case LetterboxStretchFill:
		dw, dh = 0, 0
		plan.Unpadded = t
		plan.RatioX = float32(t.Width) / float32(orig.Width)
		plan.RatioY = float32(t.Height) / float32(orig.Height)
	case LetterboxFixed:
	}

	dw /= 2
	dh /= 2
	plan.Top = int(math32.Round(dh - 0.1))
	plan.Bottom = int(math32.Round(dh + 0.1))
	plan.Left = int(math32.Round(dw - 0.1))
	plan.Right = int(math32.Round(dw + 0.1))

	return plan, nil
}

// LetterboxResult is a letterboxed image together with the geometry needed to
// map coordinates back onto the original.
type LetterboxResult struct {
	Image *image.RGBA
	LetterboxPlan
}

// Letterbox resizes img preserving its aspect ratio (unless in stretch-fill
// mode) and pads it with opts.Color.
//
// Arguments:
//   - img: The source image.
//   - opts: The letterbox options.
//
// Returns:
//   - *LetterboxResult: The padded image and its geometry.
//   - error: ErrInvalidInput for empty images or invalid options.
func Letterbox(img image.Image, opts LetterboxOptions) (*LetterboxResult, error) {
	if img == nil {
		return nil, errors.Wrap(ErrInvalidInput, "nil image")
	}
	plan, err := PlanLetterbox(SizeOf(img), opts)
	if err != nil {
		return nil, err
	}

	src := Flatten(img)
	if plan.NeedsResize() {
		src, err = Resize(src, plan.Unpadded.Width, plan.Unpadded.Height, opts.Filter)
		if err != nil {
			return nil, err
		}
	}

	padded := plan.Padded()
	dst := image.NewRGBA(image.Rect(0, 0, padded.Width, padded.Height))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: opts.Color}, image.Point{}, draw.Src)

	inner := image.Rect(plan.Left, plan.Top, plan.Left+plan.Unpadded.Width, plan.Top+plan.Unpadded.Height)
	draw.Draw(dst, inner, src, src.Bounds().Min, draw.Src)

	return &LetterboxResult{Image: dst, LetterboxPlan: plan}, nil
}

// Flatten drops the alpha channel, keeping the color of translucent and fully
// transparent pixels the way a decoder that ignores alpha would. Opaque images
// are returned as is.
func Flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}

	b := img.Bounds()
	dst := image.NewRGBA(b)
	if src, ok := img.(*image.NRGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			si, di := src.PixOffset(b.Min.X, y), dst.PixOffset(b.Min.X, y)
			n := b.Dx() * 4
			copy(dst.Pix[di:di+n], src.Pix[si:si+n])
			for i := di + 3; i < di+n; i += 4 {
				dst.Pix[i] = 0xff
			}
		}
		return dst
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, b := straightRGB(img.At(x, y))
			i := dst.PixOffset(x, y)
			dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = r, g, b, 0xff
		}
	}
	return dst
}

// straightRGB returns the non-premultiplied color channels of c. Colors that
// are stored premultiplied have already lost them at zero alpha.
func straightRGB(c color.Color) (r, g, b uint8) {
	switch c := c.(type) {
	case color.NRGBA:
		return c.R, c.G, c.B
	case color.NRGBA64:
		return uint8(c.R >> 8), uint8(c.G >> 8), uint8(c.B >> 8)
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return n.R, n.G, n.B
}

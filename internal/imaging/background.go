package imaging

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"sync"
)

// Remover strips the background from an encoded image and returns a PNG with
// a transparent background. Implementations document whether they are safe
// for concurrent use; wrap unsafe ones with Serialized.
type Remover interface {
	RemoveBackground(ctx context.Context, data []byte) ([]byte, error)
}

// DefaultKeyTolerance is how far (per channel, 0-255) a pixel may be from
// pure white and still count as background.
const DefaultKeyTolerance = 24

// KeyRemover removes a near-white background by flood filling from the image
// border. Interior white regions not connected to the border are kept.
// It holds no mutable state and is safe for concurrent use.
type KeyRemover struct {
	Tolerance uint8
}

// NewKeyRemover returns a KeyRemover; tolerance 0 selects DefaultKeyTolerance.
func NewKeyRemover(tolerance int) *KeyRemover {
	if tolerance <= 0 || tolerance > 255 {
		tolerance = DefaultKeyTolerance
	}
	return &KeyRemover{Tolerance: uint8(tolerance)}
}

func (k *KeyRemover) RemoveBackground(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := Decode(data)
	if err != nil {
		return nil, err
	}
	img := toNRGBA(src)
	k.clearBackground(img)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return EncodePNG(img)
}

func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

func (k *KeyRemover) isBackground(c color.NRGBA) bool {
	if c.A == 0 {
		return true
	}
	floor := 255 - k.Tolerance
	return c.R >= floor && c.G >= floor && c.B >= floor
}

func (k *KeyRemover) clearBackground(img *image.NRGBA) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return
	}
	visited := make([]bool, w*h)
	stack := make([]int, 0, 2*(w+h))
	push := func(x, y int) {
		i := y*w + x
		if visited[i] {
			return
		}
		visited[i] = true
		if k.isBackground(img.NRGBAAt(b.Min.X+x, b.Min.Y+y)) {
			stack = append(stack, i)
		}
	}
	for x := 0; x < w; x++ {
		push(x, 0)
		push(x, h-1)
	}
	for y := 0; y < h; y++ {
		push(0, y)
		push(w-1, y)
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		img.SetNRGBA(b.Min.X+x, b.Min.Y+y, color.NRGBA{})
		if x > 0 {
			push(x-1, y)
		}
		if x < w-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < h-1 {
			push(x, y+1)
		}
	}
}

// Serialized guards a Remover whose runtime cannot run concurrent inference.
// Calls queue on a mutex, so throughput is one image at a time.
type Serialized struct {
	mu    sync.Mutex
	inner Remover
}

// Serialize wraps r.
func Serialize(r Remover) *Serialized {
	return &Serialized{inner: r}
}

func (s *Serialized) RemoveBackground(ctx context.Context, data []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.inner.RemoveBackground(ctx, data)
}

var (
	_ Remover = (*KeyRemover)(nil)
	_ Remover = (*Serialized)(nil)
)

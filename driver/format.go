// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

// PixelFormat describes the format of a texel or of a
// vertex attribute.
type PixelFormat int

// Pixel formats.
const (
	FormatUnknown PixelFormat = iota
	// Color, 8-bit channels.
	RGBA8un
	RGBA8n
	RGBA8ui
	RGBA8sRGB
	BGRA8un
	BGRA8sRGB
	RG8un
	R8un
	// Color, 16-bit channels.
	RGBA16f
	RG16f
	R16f
	R16ui
	// Color, 32-bit channels.
	RGBA32f
	RGB32f
	RG32f
	R32f
	RGBA32ui
	R32ui
	// Depth/Stencil.
	D16un
	D24unS8ui
	D32f
	D32fS8ui

	formatCount
)

// Formats returns every valid pixel format, in order.
// FormatUnknown is not included.
func Formats() []PixelFormat {
	s := make([]PixelFormat, 0, formatCount-1)
	for f := FormatUnknown + 1; f < formatCount; f++ {
		s = append(s, f)
	}
	return s
}

// Size returns the size in bytes of one element of the
// format.
// It returns 0 for FormatUnknown and for any value
// that is not a valid format.
func (f PixelFormat) Size() int {
	switch f {
	case R8un:
		return 1
	case RG8un, R16f, R16ui, D16un:
		return 2
	case RGBA8un, RGBA8n, RGBA8ui, RGBA8sRGB, BGRA8un, BGRA8sRGB,
		RG16f, R32f, R32ui, D24unS8ui, D32f:
		return 4
	case RGBA16f, RG32f, D32fS8ui:
		return 8
	case RGB32f:
		return 12
	case RGBA32f, RGBA32ui:
		return 16
	}
	return 0
}

// IsDepth returns whether f has a depth component.
func (f PixelFormat) IsDepth() bool {
	switch f {
	case D16un, D24unS8ui, D32f, D32fS8ui:
		return true
	}
	return false
}

// HasStencil returns whether f has a stencil component.
func (f PixelFormat) HasStencil() bool { return f == D24unS8ui || f == D32fS8ui }

// IsValid returns whether f is a valid, known format.
func (f PixelFormat) IsValid() bool { return f > FormatUnknown && f < formatCount }

var formatNames = [formatCount]string{
	"Unknown",
	"RGBA8un", "RGBA8n", "RGBA8ui", "RGBA8sRGB", "BGRA8un", "BGRA8sRGB", "RG8un", "R8un",
	"RGBA16f", "RG16f", "R16f", "R16ui",
	"RGBA32f", "RGB32f", "RG32f", "R32f", "RGBA32ui", "R32ui",
	"D16un", "D24unS8ui", "D32f", "D32fS8ui",
}

func (f PixelFormat) String() string {
	if f < 0 || f >= formatCount {
		return "PixelFormat(?)"
	}
	return formatNames[f]
}

// Package render defines the graphics device and drawing surface the globe
// renders into, together with headless implementations of both.
package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"adisglobe/pkg/vec"
)

var (
	// ErrDisposed is returned by a device after Dispose.
	ErrDisposed = errors.New("render: device disposed")
	// ErrUnknownResource is returned when releasing an id the device does not own.
	ErrUnknownResource = errors.New("render: unknown resource")
)

// Color is a 24-bit RGB color (0xRRGGBB).
type Color uint32

// Hex returns the CSS form, e.g. "#ff7e00".
func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

// RGB splits the color into channels.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// MarshalText encodes the color as hex so JSON payloads carry "#rrggbb".
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// ParseColor reads "#rrggbb", "rrggbb" or "0xrrggbb".
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "#"), "0x")
	if len(s) != 6 {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color(v), nil
}

// Kind identifies a class of device resource.
type Kind int

const (
	KindGeometry Kind = iota
	KindMaterial
	KindTexture
)

func (k Kind) String() string {
	switch k {
	case KindGeometry:
		return "geometry"
	case KindMaterial:
		return "material"
	case KindTexture:
		return "texture"
	}
	return "unknown"
}

// ResourceID is an opaque handle to a device allocation. Zero is never issued.
type ResourceID uint64

// GeometryDesc describes a UV sphere mesh.
type GeometryDesc struct {
	Radius         float64
	WidthSegments  int
	HeightSegments int
}

// Blending selects how a material composites with the frame buffer.
type Blending int

const (
	BlendNormal Blending = iota
	BlendAdditive
)

// Shading selects the lighting model.
type Shading int

const (
	ShadingBasic Shading = iota // unlit
	ShadingPhong
)

// MaterialDesc describes a surface material.
type MaterialDesc struct {
	Shading     Shading
	Color       Color
	Opacity     float64
	Transparent bool
	Blending    Blending
	DepthWrite  bool
	Map         ResourceID // diffuse texture
	BumpMap     ResourceID
	BumpScale   float64
	SpecularMap ResourceID
	Specular    Color
}

// TextureDesc describes an image texture.
type TextureDesc struct {
	Source string
}

// CameraView is the camera state a frame is drawn with.
type CameraView struct {
	Position vec.Vec3
	Target   vec.Vec3
	Up       vec.Vec3
	FOV      float64 // vertical, degrees
	Aspect   float64
	Near     float64
	Far      float64
}

// DrawItem is one mesh instance in a frame.
type DrawItem struct {
	Geometry ResourceID
	Material ResourceID
	Position vec.Vec3
	Scale    float64
	Layer    string
}

// Frame is an immutable snapshot handed to Device.Draw.
type Frame struct {
	Seq        uint64
	Time       time.Time
	Width      int
	Height     int
	Background Color
	Camera     CameraView
	Items      []DrawItem
}

// Device allocates graphics resources and draws frames. Every Create must be
// paired with a Release; nothing is reclaimed implicitly.
type Device interface {
	CreateGeometry(desc GeometryDesc) (ResourceID, error)
	CreateMaterial(desc MaterialDesc) (ResourceID, error)
	CreateTexture(desc TextureDesc) (ResourceID, error)
	Release(id ResourceID) error
	SetSize(width, height int)
	Draw(f *Frame) error
	Dispose() error
}

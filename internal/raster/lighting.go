package raster

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// LightConfig is a two-light rig with hemisphere fill, evaluated once per face.
type LightConfig struct {
	Key      mgl64.Vec3
	Rim      mgl64.Vec3
	Half     mgl64.Vec3 // Blinn-Phong half vector of Key and the view direction
	Ambient  float64
	Hemi     float64
	Direct   float64
	RimGain  float64
	SpecInt  float64
	SpecPow  float64
	Exposure float64
	InvGamma float64
}

func DefaultLightConfig() LightConfig {
	key := mgl64.Vec3{180, 260, 140}.Normalize()
	view := mgl64.Vec3{0, 0, -1}
	return LightConfig{
		Key:      key,
		Rim:      mgl64.Vec3{-160, 130, -210}.Normalize(),
		Half:     key.Sub(view).Normalize(),
		Ambient:  0.45,
		Hemi:     0.40,
		Direct:   1.10,
		RimGain:  0.40,
		SpecInt:  0.25,
		SpecPow:  12,
		Exposure: 1.0,
		InvGamma: 1 / 2.2,
	}
}

// Shade returns the light scalar for a unit face normal. Faces are lit from
// both sides.
func (lc *LightConfig) Shade(n mgl64.Vec3) float64 {
	hemi := ((1-math.Abs(n[1]))*0.5 + 0.5) * lc.Hemi
	spec := math.Pow(math.Max(n.Dot(lc.Half), 0), lc.SpecPow) * lc.SpecInt
	return lc.Ambient + hemi +
		math.Abs(n.Dot(lc.Key))*lc.Direct +
		math.Abs(n.Dot(lc.Rim))*lc.RimGain +
		spec
}

var srgbToLinear [256]float64

func init() {
	for i := range srgbToLinear {
		srgbToLinear[i] = math.Pow(float64(i)/255, 2.2)
	}
}

// ACESTonemap is the filmic curve applied before re-encoding to sRGB.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

// apply lights one sRGB texel.
func (lc *LightConfig) apply(c uint8, shade float64) uint8 {
	return clamp255(math.Pow(ACESTonemap(srgbToLinear[c]*shade*lc.Exposure), lc.InvGamma) * 255)
}

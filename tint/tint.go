package tint

import (
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/humboldt-xie/blockmesh/world"
)

type Family int

const (
	None Family = iota
	Redstone
	Foliage
	Water
	Stem
)

// White is the neutral multiplier.
var White = mgl32.Vec3{1, 1, 1}

const (
	GrassColor    = 0x91BD59
	FoliageColor  = 0x48B518
	SpruceColor   = 0x619961
	BirchColor    = 0x80A755
	LilyPadColor  = 0x208030
	MangroveColor = 0x92C648
)

type entry struct {
	family Family
	color  uint32
}

var table = map[string]entry{
	"redstone_wire": {family: Redstone},

	"grass_block":     {Foliage, GrassColor},
	"grass":           {Foliage, GrassColor},
	"short_grass":     {Foliage, GrassColor},
	"tall_grass":      {Foliage, GrassColor},
	"fern":            {Foliage, GrassColor},
	"large_fern":      {Foliage, GrassColor},
	"potted_fern":     {Foliage, GrassColor},
	"sugar_cane":      {Foliage, GrassColor},
	"oak_leaves":      {Foliage, FoliageColor},
	"jungle_leaves":   {Foliage, FoliageColor},
	"acacia_leaves":   {Foliage, FoliageColor},
	"dark_oak_leaves": {Foliage, FoliageColor},
	"vine":            {Foliage, FoliageColor},
	"spruce_leaves":   {Foliage, SpruceColor},
	"birch_leaves":    {Foliage, BirchColor},
	"mangrove_leaves": {Foliage, MangroveColor},
	"lily_pad":        {Foliage, LilyPadColor},

	"water":          {family: Water},
	"flowing_water":  {family: Water},
	"bubble_column":  {family: Water},
	"water_cauldron": {family: Water},

	"pumpkin_stem":          {family: Stem},
	"melon_stem":            {family: Stem},
	"attached_pumpkin_stem": {family: Stem},
	"attached_melon_stem":   {family: Stem},
}

// Calculator maps blocks to a color multiplier. It has no state.
type Calculator struct{}

func New() *Calculator { return &Calculator{} }

// FamilyOf reports the tint family of a block id (namespaced or not).
func FamilyOf(id string) Family {
	_, name := world.SplitNamespace(id)
	return table[name].family
}

// Tint returns the multiplier for a block. Biome only affects water.
func (c *Calculator) Tint(id string, props map[string]string, biome world.Biome) mgl32.Vec3 {
	_, name := world.SplitNamespace(id)
	e, ok := table[name]
	if !ok {
		return White
	}
	switch e.family {
	case Redstone:
		return RedstoneColor(intProp(props, "power", 0, 15))
	case Foliage:
		return RGB(e.color)
	case Water:
		return RGB(biome.Water())
	case Stem:
		return StemColor(intProp(props, "age", 0, 7))
	}
	return White
}

// Redstone wire colors at power 0 and 15.
var (
	RedstoneOff = mgl32.Vec3{0.3, 0, 0}
	RedstoneOn  = mgl32.Vec3{1, 0.2, 0.1}
)

// RedstoneColor interpolates linearly from RedstoneOff to RedstoneOn.
func RedstoneColor(power int) mgl32.Vec3 {
	f := float32(power) / 15
	return RedstoneOff.Mul(1 - f).Add(RedstoneOn.Mul(f))
}

// StemColor goes from green at age 0 to orange at 7.
func StemColor(age int) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(age*32) / 255,
		float32(255-age*8) / 255,
		float32(age*4) / 255,
	}
}

// RGB converts 0xRRGGBB to a unit vector.
func RGB(c uint32) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(c>>16&0xFF) / 255,
		float32(c>>8&0xFF) / 255,
		float32(c&0xFF) / 255,
	}
}

func intProp(props map[string]string, name string, lo, hi int) int {
	v, err := strconv.Atoi(props[name])
	if err != nil {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

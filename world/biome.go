package world

// Biome is a constant-color stand-in for biome sampling. Zero colors
// mean "not set" and let callers fall back to their defaults.
type Biome struct {
	Name       string
	WaterColor uint32
}

// Vanilla water colors for the biomes that override the default.
var biomeWater = map[string]uint32{
	"swamp":               0x617B64,
	"mangrove_swamp":      0x3A7A6A,
	"warm_ocean":          0x43D5EE,
	"lukewarm_ocean":      0x45ADF2,
	"deep_lukewarm_ocean": 0x45ADF2,
	"cold_ocean":          0x3D57D6,
	"deep_cold_ocean":     0x3D57D6,
	"frozen_ocean":        0x3938C9,
	"deep_frozen_ocean":   0x3938C9,
	"frozen_river":        0x3938C9,
	"meadow":              0x0E4ECF,
	"cherry_grove":        0x5DB7EF,
}

// LookupBiome returns the stand-in for a biome name. Unknown names get a
// Biome with no color overrides.
func LookupBiome(name string) Biome {
	if name == "" {
		return Biome{}
	}
	_, n := SplitNamespace(name)
	return Biome{Name: n, WaterColor: biomeWater[n]}
}

// DefaultWaterColor is the vanilla water tint outside overriding biomes.
const DefaultWaterColor = 0x3F76E4

// Water returns the biome water color or DefaultWaterColor.
func (b Biome) Water() uint32 {
	if b.WaterColor == 0 {
		return DefaultWaterColor
	}
	return b.WaterColor
}

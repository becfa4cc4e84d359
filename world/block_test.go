package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Identifier
	}{
		{"minecraft:oak_log[axis=y]", Identifier{"minecraft", "oak_log", map[string]string{"axis": "y"}}},
		{"stone", Identifier{"minecraft", "stone", map[string]string{}}},
		{"create:shaft[ axis = x , waterlogged=false]", Identifier{"create", "shaft", map[string]string{"axis": "x", "waterlogged": "false"}}},
		{"  grass_block[] ", Identifier{"minecraft", "grass_block", map[string]string{}}},
		{":dirt", Identifier{"minecraft", "dirt", map[string]string{}}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "stone[axis=y", "stone]", "stone[axis]", "minecraft:", "stone[=y]"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrBadIdentifier, in)
	}
}

func TestIdentifierString(t *testing.T) {
	id, err := Parse("oak_stairs[half=bottom,facing=east,shape=straight]")
	require.NoError(t, err)
	assert.Equal(t, "minecraft:oak_stairs[facing=east,half=bottom,shape=straight]", id.String())
	assert.Equal(t, "minecraft:oak_stairs", id.ID())

	assert.Equal(t, "facing=east", JoinProperties(id.Properties, map[string]bool{"facing": true}))
}

func TestLiquid(t *testing.T) {
	assert.Equal(t, Water, NewIdentifier("water").Liquid())
	assert.Equal(t, Lava, NewIdentifier("minecraft:lava").Liquid())
	assert.Equal(t, NoLiquid, NewIdentifier("stone").Liquid())
}

func TestDirection(t *testing.T) {
	for _, d := range Directions {
		assert.Equal(t, d, d.Opposite().Opposite())
		p, ok := ParseDirection(d.String())
		assert.True(t, ok)
		assert.Equal(t, d, p)
	}
	assert.Equal(t, Vec3{0, 0, -1}, North.Offset())
	assert.Equal(t, AxisY, Up.Axis())

	d, ok := ParseDirection("bottom")
	assert.True(t, ok)
	assert.Equal(t, Down, d)

	assert.NoError(t, d.UnmarshalText([]byte("none")))
	assert.Equal(t, NoDirection, d)
	assert.Error(t, d.UnmarshalText([]byte("sideways")))
}

func TestLiquidText(t *testing.T) {
	for _, l := range []Liquid{NoLiquid, Water, Lava} {
		b, err := l.MarshalText()
		assert.NoError(t, err)
		var got Liquid
		assert.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, l, got)
	}
	var l Liquid
	assert.Error(t, l.UnmarshalText([]byte("honey")))
}

func TestLookupBiome(t *testing.T) {
	assert.Equal(t, uint32(0x617B64), LookupBiome("minecraft:swamp").WaterColor)
	assert.Equal(t, Biome{Name: "plains"}, LookupBiome("plains"))
	assert.Equal(t, Biome{}, LookupBiome(""))
}

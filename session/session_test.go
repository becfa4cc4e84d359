package session

import (
	"context"
	"testing"

	"github.com/humboldt-xie/blockmesh/pack"
	"github.com/humboldt-xie/blockmesh/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPack(t *testing.T) []byte {
	a := pack.NewMemArchive("vanilla", map[string]string{
		"assets/minecraft/blockstates/stone.json": `{"variants":{"":{"model":"block/stone"}}}`,
		"assets/minecraft/models/block/cube_all.json": `{"parent":"block/cube","textures":{"particle":"#all"}}`,
		"assets/minecraft/models/block/cube.json": `{"elements":[{"from":[0,0,0],"to":[16,16,16],"faces":{
			"down":{"texture":"#down","cullface":"down"},"up":{"texture":"#up","cullface":"up"},
			"north":{"texture":"#north","cullface":"north"},"south":{"texture":"#south","cullface":"south"},
			"west":{"texture":"#west","cullface":"west"},"east":{"texture":"#east","cullface":"east"}}}]}`,
		"assets/minecraft/models/block/stone.json": `{"parent":"block/cube_all","textures":{"all":"block/stone",
			"down":"#all","up":"#all","north":"#all","south":"#all","west":"#all","east":"#all"}}`,
		"assets/minecraft/blockstates/fence.json": `{"multipart":[{"apply":{"model":"block/fence_post"}},
			{"when":{"north":"true"},"apply":{"model":"block/fence_side","uvlock":true}},
			{"when":{"east":"true"},"apply":{"model":"block/fence_side","y":90,"uvlock":true}}]}`,
		"assets/minecraft/models/block/fence_post.json": `{"textures":{"t":"block/oak_planks"},"elements":[{"from":[6,0,6],"to":[10,16,10],"faces":{"up":{"texture":"#t"}}}]}`,
		"assets/minecraft/models/block/fence_side.json": `{"textures":{"t":"block/oak_planks"},"elements":[{"from":[7,12,0],"to":[9,15,9],"faces":{"north":{"texture":"#t"}}}]}`,
	})
	data, err := a.ZipBytes()
	require.NoError(t, err)
	return data
}

func TestNoPackGivesPlaceholder(t *testing.T) {
	s := New(Config{})
	obj := s.Build(context.Background(), "minecraft:stone", world.Biome{})
	require.NotNil(t, obj)
	assert.True(t, obj.IsPlaceholder())
	assert.NotEmpty(t, s.ID())
}

func TestBuild(t *testing.T) {
	s := New(Config{CacheSize: 128, Registerer: prometheus.NewRegistry()})
	require.NoError(t, s.Load("vanilla.zip", testPack(t)))

	obj := s.Build(context.Background(), "stone", world.Biome{})
	assert.False(t, obj.IsPlaceholder())
	require.Len(t, obj.Children, 1)
	assert.Equal(t, "block/stone", obj.Children[0].Name)
	groups := obj.Bake()
	assert.Len(t, groups, 6)
	for _, g := range groups {
		assert.Equal(t, "block/stone", g.Material.Texture)
	}

	obj = s.Build(context.Background(), "fence[north=true,east=true]", world.Biome{})
	require.Len(t, obj.Children, 3)
	assert.Equal(t, "block/fence_post", obj.Children[0].Name)
	assert.NotEqual(t, obj.Children[1].Transform, obj.Children[2].Transform)
}

func TestBuildFallbacks(t *testing.T) {
	s := New(Config{})
	require.NoError(t, s.Load("vanilla.zip", testPack(t)))

	for _, q := range []string{"unknown_block", "stone[", "mod:thing[a=b]"} {
		obj := s.Build(context.Background(), q, world.Biome{})
		require.Len(t, obj.Children, 1, q)
		assert.Equal(t, pack.DefaultCube, obj.Children[0].Name, q)
		g := obj.Bake()
		require.NotEmpty(t, g, q)
		assert.Equal(t, pack.MissingTexture, g[0].Material.Texture, q)
	}

	refs := s.Resolve("water[level=2]")
	require.Len(t, refs, 1)
	assert.Equal(t, "block/water_level_2", refs[0].Model)
	obj := s.Build(context.Background(), "water[level=2]", world.LookupBiome("swamp"))
	assert.False(t, obj.IsPlaceholder())
}

func TestLoadRejectsBadArchive(t *testing.T) {
	s := New(Config{})
	err := s.Load("bad.zip", []byte("garbage"))
	var ae *pack.ArchiveError
	require.ErrorAs(t, err, &ae)
	assert.True(t, s.Pack().Empty())
}

func TestDispose(t *testing.T) {
	s := New(Config{})
	require.NoError(t, s.Load("vanilla.zip", testPack(t)))
	assert.False(t, s.Build(context.Background(), "stone", world.Biome{}).IsPlaceholder())
	s.Dispose()
	assert.True(t, s.Build(context.Background(), "stone", world.Biome{}).IsPlaceholder())
}

func TestBuildMany(t *testing.T) {
	s := New(Config{Concurrency: 2})
	s.LoadArchive(pack.NewMemArchive("empty", nil))
	require.NoError(t, s.Load("vanilla.zip", testPack(t)))

	queries := []string{"stone", "fence[north=true]", "unknown", "stone", "water"}
	res, err := s.BuildMany(context.Background(), queries, world.Biome{})
	require.NoError(t, err)
	require.Len(t, res, len(queries))
	for i, r := range res {
		assert.Equal(t, queries[i], r.Query)
		assert.NotNil(t, r.Object)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.BuildMany(ctx, queries, world.Biome{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSessionsShareRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	var a, b *Session
	require.NotPanics(t, func() {
		a = New(Config{Registerer: reg})
		b = New(Config{Registerer: reg})
	})
	require.NoError(t, a.Load("vanilla.zip", testPack(t)))
	assert.NotEqual(t, a.ID(), b.ID())

	n, err := testutil.GatherAndCount(reg, "blockmesh_pack_archives")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, float64(1), testutil.ToFloat64(a.Pack().Metrics().Archives))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.Pack().Metrics().Archives))
}

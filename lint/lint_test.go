package lint

import (
	"testing"

	"github.com/humboldt-xie/blockmesh/pack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidPack(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	a := pack.NewMemArchive("ok", map[string]string{
		"assets/minecraft/blockstates/stone.json": `{"variants":{"":{"model":"block/stone"}}}`,
		"assets/minecraft/blockstates/grass.json": `{"variants":{"snowy=false":[{"model":"block/grass"},{"model":"block/grass","y":90}]}}`,
		"assets/minecraft/blockstates/fence.json": `{"multipart":[{"apply":{"model":"block/post"}},{"when":{"OR":[{"north":"true"},{"up":true}]},"apply":{"model":"block/side","uvlock":true}}]}`,
		"assets/minecraft/models/block/stone.json": `{"parent":"block/cube_all","textures":{"all":"block/stone"}}`,
		"assets/minecraft/models/block/cube.json": `{"elements":[{"from":[0,0,0],"to":[16,16,16],
			"rotation":{"origin":[8,8,8],"axis":"y","angle":22.5},
			"faces":{"bottom":{"texture":"#down","cullface":"down","uv":[0,0,16,16],"rotation":90,"tintindex":0}}}]}`,
		"assets/minecraft/textures/block/stone.png": "not json",
		"pack.mcmeta": `{}`,
	})
	assert.Empty(t, l.Lint(a))
}

func TestProblems(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	a := pack.NewMemArchive("bad", map[string]string{
		"assets/minecraft/blockstates/empty.json":   `{}`,
		"assets/minecraft/blockstates/rot.json":     `{"variants":{"":{"model":"block/a","x":45}}}`,
		"assets/minecraft/blockstates/broken.json":  `{"variants":`,
		"assets/minecraft/models/block/axis.json":   `{"elements":[{"from":[0,0,0],"to":[16,16,16],"rotation":{"origin":[8,8,8],"axis":"w","angle":45},"faces":{}}]}`,
		"assets/minecraft/models/block/face.json":   `{"elements":[{"from":[0,0],"to":[16,16,16],"faces":{"side":{"texture":"#all"}}}]}`,
		"assets/minecraft/models/block/texture.json": `{"textures":{"all":5}}`,
	})
	problems := l.Lint(a)
	paths := map[string]bool{}
	for _, p := range problems {
		paths[p.Path] = true
		assert.NotEmpty(t, p.Message, p.String())
	}
	assert.Len(t, paths, 6)

	broken := l.Check("assets/minecraft/blockstates/broken.json", []byte(`{"variants":`))
	require.Len(t, broken, 1)
	assert.Contains(t, broken[0].Message, "invalid json")
}

func TestClassify(t *testing.T) {
	assert.Equal(t, blockstate, classify("assets/minecraft/blockstates/stone.json"))
	assert.Equal(t, model, classify("assets/create/models/block/gear/small.json"))
	assert.Equal(t, other, classify("assets/minecraft/textures/block/stone.png"))
	assert.Equal(t, other, classify("assets/minecraft/models/block/stone.png"))
	assert.Equal(t, other, classify("data/minecraft/blockstates/x.json"))
	assert.Nil(t, (&Linter{}).Check("pack.mcmeta", []byte("{")))
}

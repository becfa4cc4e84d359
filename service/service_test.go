package service

import (
	"net"
	"testing"
	"time"

	"github.com/humboldt-xie/blockmesh/lint"
	"github.com/humboldt-xie/blockmesh/pack"
	"github.com/humboldt-xie/blockmesh/render"
	"github.com/humboldt-xie/blockmesh/session"
	"github.com/humboldt-xie/blockmesh/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPack(t *testing.T) []byte {
	a := pack.NewMemArchive("vanilla", map[string]string{
		"assets/minecraft/blockstates/stone.json": `{"variants":{"":{"model":"block/stone"}}}`,
		"assets/minecraft/models/block/stone.json": `{"textures":{"all":"block/stone"},"elements":[{"from":[0,0,0],"to":[16,16,16],"faces":{
			"up":{"texture":"#all","cullface":"up"},"down":{"texture":"#all","cullface":"down"}}}]}`,
		"assets/minecraft/blockstates/broken.json": `{}`,
	})
	data, err := a.ZipBytes()
	require.NoError(t, err)
	return data
}

func pipe(t *testing.T) (*Server, *Client) {
	l, err := lint.New()
	require.NoError(t, err)
	srv := NewServer(session.New(session.Config{}), l)
	a, b := net.Pipe()
	go srv.ServeConn(a)
	c, err := NewClient(b)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return srv, c
}

func TestHandshake(t *testing.T) {
	srv, c := pipe(t)
	assert.Equal(t, int32(1), c.ClientID)
	assert.Equal(t, srv.session.ID(), c.Session)
	assert.Eventually(t, func() bool { return srv.Peers() == 1 }, time.Second, 10*time.Millisecond)

	c.Close()
	assert.Eventually(t, func() bool { return srv.Peers() == 0 }, time.Second, 10*time.Millisecond)
}

func TestBuildOverRPC(t *testing.T) {
	_, c := pipe(t)

	rep, err := c.Build("stone", "")
	require.NoError(t, err)
	assert.True(t, rep.Placeholder)

	archives, err := c.Load("vanilla.zip", testPack(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"vanilla.zip"}, archives)

	refs, err := c.Resolve("minecraft:stone")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "block/stone", refs[0].Model)

	rep, err = c.Build("stone", "plains")
	require.NoError(t, err)
	assert.False(t, rep.Placeholder)
	assert.Equal(t, []string{"block/stone"}, rep.Models)
	require.Len(t, rep.Groups, 2)
	for _, g := range rep.Groups {
		assert.Equal(t, "block/stone", g.Material.Texture)
		assert.Equal(t, render.Opaque, g.Material.Transparency)
		assert.Len(t, g.Indices, 6)
		assert.Len(t, g.Positions, 12)
	}
	assert.Equal(t, world.Down, rep.Groups[0].Material.Key.Cullface)
	assert.Equal(t, world.Up, rep.Groups[1].Material.Key.Cullface)

	many, err := c.BuildMany([]string{"stone", "nope", "water[level=3]"}, "swamp")
	require.NoError(t, err)
	require.Len(t, many, 3)
	assert.Equal(t, "nope", many[1].Query)
	assert.Equal(t, []string{pack.DefaultCube}, many[1].Models)
	require.NotEmpty(t, many[2].Groups)
	assert.Equal(t, world.Water, many[2].Groups[0].Material.Liquid)

	require.NoError(t, c.Dispose())
	rep, err = c.Build("stone", "")
	require.NoError(t, err)
	assert.True(t, rep.Placeholder)
}

func TestRPCErrors(t *testing.T) {
	_, c := pipe(t)
	_, err := c.Load("bad.zip", []byte("not a zip"))
	assert.Error(t, err)

	problems, err := c.Lint("vanilla.zip", testPack(t))
	require.NoError(t, err)
	require.NotEmpty(t, problems)
	for _, p := range problems {
		assert.Equal(t, "assets/minecraft/blockstates/broken.json", p.Path)
	}

	_, err = c.Lint("bad.zip", []byte("x"))
	assert.Error(t, err)
}

func TestServeListener(t *testing.T) {
	srv := NewServer(session.New(session.Config{}), nil)
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(l) }()

	c, err := Dial(l.Addr().String())
	require.NoError(t, err)
	_, err = c.Lint("x.zip", nil)
	assert.Error(t, err)
	c.Close()

	l.Close()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return")
	}
}

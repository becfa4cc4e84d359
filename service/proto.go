package service

import (
	"github.com/humboldt-xie/blockmesh/lint"
	"github.com/humboldt-xie/blockmesh/render"
	"github.com/humboldt-xie/blockmesh/resolve"
)

type InitClientRequest struct {
	ClientID int32
	Session  string
}
type InitClientResponse struct {
}

type LoadRequest struct {
	Name string
	Data []byte
}
type LoadResponse struct {
	Archives []string
}

type DisposeRequest struct {
}
type DisposeResponse struct {
}

type LintRequest struct {
	Name string
	Data []byte
}
type LintResponse struct {
	Problems []lint.Problem
}

type ResolveRequest struct {
	Query string
}
type ResolveResponse struct {
	Models []resolve.ModelRef
}

type BuildRequest struct {
	Query string
	Biome string
}

// BuildResponse carries the baked groups of one block, world-space
// transforms already applied.
type BuildResponse struct {
	Query       string
	Models      []string
	Placeholder bool
	Groups      []*render.MeshGroup
}

type BuildManyRequest struct {
	Queries []string
	Biome   string
}
type BuildManyResponse struct {
	Results []BuildResponse
}

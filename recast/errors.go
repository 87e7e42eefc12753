package recast

import "errors"

var (
	ErrInvalidParam      = errors.New("recast: invalid parameter")
	ErrBuildFailed       = errors.New("recast: build failed")
	ErrTooManyVertices   = errors.New("recast: too many vertices")
	ErrBadTriangulation  = errors.New("recast: bad triangulation")
	ErrTooManyRegions    = errors.New("recast: region id overflow")
	ErrDetailMeshOverrun = errors.New("recast: detail mesh buffer overrun")
)

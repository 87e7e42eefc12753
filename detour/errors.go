package detour

import "errors"

var (
	ErrWrongMagic       = errors.New("detour: input data is not recognized")
	ErrWrongVersion     = errors.New("detour: input data is in wrong version")
	ErrOutOfMemory      = errors.New("detour: no free tile slot")
	ErrInvalidParam     = errors.New("detour: invalid parameter")
	ErrAlreadyOccupied  = errors.New("detour: tile location already occupied")
	ErrTruncated        = errors.New("detour: truncated tile data")
	ErrTooManyPolygons  = errors.New("detour: tile has more polygons than the mesh poly bits allow")
	ErrVertsPerPolygon  = errors.New("detour: too many vertices per polygon")
	ErrTooManyVertices  = errors.New("detour: too many vertices")
	ErrEmptyPolygonMesh = errors.New("detour: polygon mesh has no vertices or polygons")
)

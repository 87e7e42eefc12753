package navigation

import (
	"errors"

	"github.com/gorustyt/gonavtile/recast"
)

var (
	// ErrTooManyVertices is returned when a tile's polygon mesh needs more
	// vertices than 16 bit indices can address.
	ErrTooManyVertices = recast.ErrTooManyVertices
	// ErrCorruptPolyData is returned when an encoded polygon mesh is truncated
	// or its header is inconsistent.
	ErrCorruptPolyData = errors.New("navigation: corrupt polygon mesh data")
	ErrInvalidParams   = errors.New("navigation: invalid build parameters")
	ErrPackFailed      = errors.New("navigation: packing navigation data failed")
	ErrNoStore         = errors.New("navigation: no tile store")
	ErrNotBuilt        = errors.New("navigation: navigation mesh not built")
)

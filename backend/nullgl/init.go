package nullgl

import (
	"github.com/gogpu/camtex"
	"github.com/gogpu/camtex/backend"
)

// init registers the in-memory device on package import. Each Open call
// returns a fresh device so sessions never share object tables.
func init() {
	backend.Register(backend.BackendNull, func() (camtex.GL, camtex.Platform, error) {
		d := New()
		return d, d, nil
	})
}

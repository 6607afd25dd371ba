package simkern

import (
	_ "embed"
	"sync"
)

// The default design is embedded at build time so the driver binary
// is self-contained: with no manifest on the command line it still
// has something real to simulate.
//
//go:embed default_design.yaml
var embeddedDesign []byte

var defaultOnce sync.Once
var defaultDesign *Design
var defaultErr error

// DefaultDesign parses the embedded design on first call; subsequent
// calls return the cached result.
func DefaultDesign() (*Design, error) {
	defaultOnce.Do(func() {
		defaultDesign, defaultErr = Parse(embeddedDesign)
	})
	return defaultDesign, defaultErr
}

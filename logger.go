package wad

import "github.com/rs/zerolog"

var logger = zerolog.Nop()

// SetLogger sets the logger used while reading, scanning and writing archives. Nothing is
// logged by default.
func SetLogger(l zerolog.Logger) {
	logger = l
}

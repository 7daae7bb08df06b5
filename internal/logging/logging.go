// Package logging builds the logr.Logger handed to every component.
package logging

import (
	"io"
	"log"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// New returns a logger writing to w. Messages logged with V(n) are shown
// when n is at most verbosity.
func New(w io.Writer, verbosity int) logr.Logger {
	stdr.SetVerbosity(verbosity)
	return stdr.NewWithOptions(log.New(w, "trackkit ", log.LstdFlags), stdr.Options{LogCaller: stdr.Error})
}

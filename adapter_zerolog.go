package stash

import (
	"bytes"

	"github.com/rs/zerolog"
)

// ZerologAdapter forwards encoded events into an existing zerolog
// pipeline, so a service already wired to zerolog can receive buffered
// event lines alongside its regular log output. Events pass through at
// zerolog's no-level; leveling happened upstream when the buffer was
// composed.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter wraps the given logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

func (a *ZerologAdapter) Write(line []byte) error {
	a.logger.Log().Msg(string(bytes.TrimRight(line, "\n")))
	return nil
}

func (a *ZerologAdapter) Close() error  { return nil }
func (a *ZerologAdapter) Reopen() error { return nil }

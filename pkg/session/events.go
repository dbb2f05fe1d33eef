package session

import (
	"context"

	"github.com/kinglabs/go-king/pkg/live"
)

type eventKind int

const (
	evStart eventKind = iota
	evStop
	evAudio
	evTranscript
	evInterrupted
	evToolCall
	evDrained
	evFrame
	evRemoteClosed
)

// event is the single message type flowing into the controller's run
// loop. Commands (start/stop) carry a reply channel; session-scoped
// events carry the generation they were produced under so the loop can
// drop anything from a torn-down session.
type event struct {
	kind eventKind
	gen  uint64

	ctx   context.Context
	start StartConfig
	reply chan error

	data     string
	mimeType string

	calls []live.FunctionCall
	frame []byte
	err   error
}

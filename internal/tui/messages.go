package tui

import "go.trai.ch/pathline/internal/engine/pathline"

// MsgSeedStarted is sent when a seed begins integrating.
type MsgSeedStarted struct {
	Seed int
}

// MsgSeedFinished is sent when a seed's path ends, with Err set when tracing failed.
type MsgSeedFinished struct {
	Seed   int
	Reason pathline.Reason
	Err    error
}

// MsgTraceEnded is sent when the event stream has ended.
type MsgTraceEnded struct{}

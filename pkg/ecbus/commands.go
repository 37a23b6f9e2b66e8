// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ecbus

// Action is what the dispatcher does for a recognized opcode
type Action uint8

// Actions
const (
	ActionReply  Action = iota // transmit Frames in order
	ActionReinit               // rerun the session handshake
)

// String returns the action name
func (a Action) String() string {
	switch a {
	case ActionReply:
		return "REPLY"
	case ActionReinit:
		return "REINIT"
	default:
		return "UNKNOWN"
	}
}

// Command is one entry of the command table
type Command struct {
	Opcode uint32
	Name   string
	Action Action
	Frames []Frame
}

// CommandTable is an ordered list of commands keyed by opcode
type CommandTable []Command

// Lookup returns the first command whose opcode matches
func (t CommandTable) Lookup(opcode uint32) (*Command, bool) {
	for i := range t {
		if t[i].Opcode == opcode {
			return &t[i], true
		}
	}
	return nil, false
}

// Name returns the command name for opcode, or "UNKNOWN"
func (t CommandTable) Name(opcode uint32) string {
	if cmd, ok := t.Lookup(opcode); ok {
		return cmd.Name
	}
	return "UNKNOWN"
}

// Frames shared by several replies
var (
	frameTapeLoaded  = Frame{0x0030C602, 21}
	frameTapeReady   = Frame{0x0030C064, 21}
	frameTapeStopped = Frame{0x0030C075, 21}
	frameSeekBusy    = Frame{0x000C301C, 19}
	frameSeekDone    = Frame{0x000C301F, 19}
	frameSeekStatus  = Frame{0x0030C703, 21}
	framePlaying     = Frame{0x0030C643, 21}
)

// InitFrames is the handshake sent at power-on and on OpInitCassette
var InitFrames = [2]Frame{
	{0x00C31082, 23},
	{0x00C3108B, 23},
}

// DefaultTable answers the head unit the way the original changer does
var DefaultTable = CommandTable{
	{
		Opcode: OpInitCassette,
		Name:   "INIT_CASSETTE",
		Action: ActionReinit,
	},
	{
		Opcode: OpColdStart,
		Name:   "COLD_START",
		Frames: []Frame{frameTapeLoaded, frameTapeReady, frameTapeStopped},
	},
	{
		Opcode: OpTapePresent,
		Name:   "TAPE_PRESENT",
		Frames: []Frame{frameTapeLoaded, frameTapeReady, frameTapeStopped},
	},
	{
		Opcode: OpSeekForward,
		Name:   "SEEK_FORWARD",
		Frames: []Frame{{0x0030C692, 21}, frameSeekBusy, frameSeekStatus, frameSeekDone},
	},
	{
		Opcode: OpSeekReverse,
		Name:   "SEEK_REVERSE",
		Frames: []Frame{{0x0030C68A, 21}, frameSeekBusy, frameSeekStatus, frameSeekDone},
	},
	{
		Opcode: OpFastForward,
		Name:   "FAST_FORWARD",
		Frames: []Frame{{0x0030C613, 21}, frameSeekBusy, framePlaying},
	},
	{
		Opcode: OpRewind,
		Name:   "REWIND",
		Frames: []Frame{{0x0030C60B, 21}, frameSeekBusy, framePlaying},
	},
	{
		Opcode: OpPlayFlip,
		Name:   "PLAY_FLIP",
		Frames: []Frame{{0x000C305D, 19}, framePlaying},
	},
	{
		Opcode: OpTapeQuery,
		Name:   "TAPE_QUERY",
		Frames: []Frame{{0x00030C26, 17}},
	},
	{
		Opcode: OpPlayAck,
		Name:   "PLAY_ACK",
		Frames: []Frame{{0x000C309D, 19}},
	},
	{
		Opcode: OpStop,
		Name:   "STOP",
		Frames: []Frame{frameTapeStopped, frameTapeReady},
	},
}

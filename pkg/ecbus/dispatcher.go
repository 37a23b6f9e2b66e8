// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ecbus

// Session sends the power-on handshake.
type Session struct {
	tx    Sender
	delay Delayer
}

// NewSession creates a session initializer
func NewSession(tx Sender, delay Delayer) *Session {
	return &Session{tx: tx, delay: delay}
}

// Init sends both InitFrames with a short gap. Results are not checked; the
// head unit repeats its init opcode if it missed them.
func (s *Session) Init() {
	_ = s.tx.Transmit(InitFrames[0])
	s.delay.Delay(InitFrameGap)
	_ = s.tx.Transmit(InitFrames[1])
}

// Dispatcher answers completed opcodes from a command table.
type Dispatcher struct {
	table   CommandTable
	tx      Sender
	session *Session
}

// NewDispatcher creates a dispatcher. session may be nil, in which case
// re-init commands are ignored.
func NewDispatcher(table CommandTable, tx Sender, session *Session) *Dispatcher {
	return &Dispatcher{
		table:   table,
		tx:      tx,
		session: session,
	}
}

// Table returns the command table in use
func (d *Dispatcher) Table() CommandTable {
	return d.table
}

// Dispatch runs the command registered for opcode, if any. Every frame of a
// reply is attempted even when an earlier one timed out.
func (d *Dispatcher) Dispatch(opcode uint32) {
	cmd, ok := d.table.Lookup(opcode)
	if !ok {
		return
	}

	switch cmd.Action {
	case ActionReinit:
		if d.session != nil {
			d.session.Init()
		}
	case ActionReply:
		for _, f := range cmd.Frames {
			_ = d.tx.Transmit(f)
		}
	}
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/golang/glog"

	"github.com/Thermoquad/cemu/pkg/ecbus"
)

// logObserver traces emulator activity through glog. Pulses are logged at
// -v=2, packets and transmissions at -v=1.
type logObserver struct {
	table ecbus.CommandTable
}

func (l logObserver) OnPulse(w ecbus.PulseWidth, class ecbus.BitClass) {
	if glog.V(2) {
		glog.Infof("pulse %s", ecbus.FormatPulse(w))
	}
}

func (l logObserver) OnPacket(opcode uint32, bits int, cmd *ecbus.Command) {
	if cmd == nil {
		glog.Warningf("RX %s, %d bits, no table entry", ecbus.FormatOpcode(l.table, opcode), bits)
		return
	}
	glog.V(1).Infof("RX %s, %d bits, %s", ecbus.FormatOpcode(l.table, opcode), bits, cmd.Action)
}

func (l logObserver) OnTransmit(f ecbus.Frame, err error) {
	if err != nil {
		glog.Warning(ecbus.FormatTransmit(f, err))
		return
	}
	glog.V(1).Info(ecbus.FormatTransmit(f, nil))
}

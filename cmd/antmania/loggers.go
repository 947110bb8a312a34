package main

import "antmania.io/internal/sim/engine"

// multiDestructionLogger fans every destruction out to all sinks. Sink errors
// are ignored so one broken output never stops the run.
type multiDestructionLogger []engine.DestructionLogger

func (m multiDestructionLogger) WriteDestruction(entry engine.DestructionEntry) error {
	for _, l := range m {
		if l != nil {
			_ = l.WriteDestruction(entry)
		}
	}
	return nil
}

type multiTickLogger []engine.TickLogger

func (m multiTickLogger) WriteTick(entry engine.TickLogEntry) error {
	for _, l := range m {
		if l != nil {
			_ = l.WriteTick(entry)
		}
	}
	return nil
}

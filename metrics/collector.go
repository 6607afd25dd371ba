// Package metrics accumulates per-session counters for the summary
// artifact.
//
// The Collector is a leaf with no internal dependencies. Command and
// message codes are the single-byte protocol opcodes, kept as strings
// so map keys read naturally in the artifact.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of a session's counters.
// Safe to read concurrently after creation.
type Snapshot struct {
	Commands       int64
	Messages       int64
	CommandsByCode map[string]int64
	MessagesByCode map[string]int64
	CyclesTicked   int64
	StepsAdvanced  int64
	LogBytes       int64
	Errors         int64

	// Design is the kernel's design name, set at construction.
	Design string
}

// Collector accumulates counters during a single session. Thread-safe
// via sync.Mutex; all methods are nil-receiver safe so an unmetered
// session carries a nil collector.
type Collector struct {
	mu sync.Mutex

	commands       int64
	messages       int64
	commandsByCode map[string]int64
	messagesByCode map[string]int64
	cyclesTicked   int64
	stepsAdvanced  int64
	logBytes       int64
	errors         int64

	design string
}

// NewCollector creates a Collector labeled with the design name.
func NewCollector(design string) *Collector {
	return &Collector{
		commandsByCode: make(map[string]int64),
		messagesByCode: make(map[string]int64),
		design:         design,
	}
}

// IncCommand records one received command by its opcode.
func (c *Collector) IncCommand(code string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.commands++
	c.commandsByCode[code]++
	c.mu.Unlock()
}

// IncMessage records one emitted message by its opcode.
func (c *Collector) IncMessage(code string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.messages++
	c.messagesByCode[code]++
	c.mu.Unlock()
}

// AddCycles records clock cycles executed by a Tick command.
func (c *Collector) AddCycles(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.cyclesTicked += n
	c.mu.Unlock()
}

// AddSteps records simulation time steps advanced.
func (c *Collector) AddSteps(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.stepsAdvanced += n
	c.mu.Unlock()
}

// AddLogBytes records simulation log bytes shipped by ReadLog.
func (c *Collector) AddLogBytes(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.logBytes += n
	c.mu.Unlock()
}

// IncError records a fatal session error.
func (c *Collector) IncError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.errors++
	c.mu.Unlock()
}

// Snapshot returns an immutable view of all counters. The maps are
// copies; the Collector can keep mutating independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byCommand := make(map[string]int64, len(c.commandsByCode))
	for k, v := range c.commandsByCode {
		byCommand[k] = v
	}
	byMessage := make(map[string]int64, len(c.messagesByCode))
	for k, v := range c.messagesByCode {
		byMessage[k] = v
	}

	return Snapshot{
		Commands:       c.commands,
		Messages:       c.messages,
		CommandsByCode: byCommand,
		MessagesByCode: byMessage,
		CyclesTicked:   c.cyclesTicked,
		StepsAdvanced:  c.stepsAdvanced,
		LogBytes:       c.logBytes,
		Errors:         c.errors,
		Design:         c.design,
	}
}

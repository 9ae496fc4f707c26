// Package config carries the constructor-supplied settings record described
// in spec §6. There is no process-wide mutable configuration state: every
// stateful type in this module takes a Settings value at construction time.
package config

import (
	"fmt"
	"time"
)

// ConnectMode selects which side of the TCP connection this stack takes.
type ConnectMode int

const (
	// Active dials a fixed host:port, retrying every T5 until connected.
	Active ConnectMode = iota
	// Passive binds once and accepts a single peer.
	Passive
	// MultiPassive binds once and demultiplexes accepted sockets by remote
	// address into independent per-peer Sessions.
	MultiPassive
)

func (m ConnectMode) String() string {
	switch m {
	case Active:
		return "active"
	case Passive:
		return "passive"
	case MultiPassive:
		return "multi-passive"
	default:
		return "unknown"
	}
}

// Role distinguishes the GEM "host" and "equipment" ends of a connection;
// they exchange the same SECS-II bodies but disagree on who initiates
// Establish Communications and who owns the control state machine.
type Role int

const (
	Equipment Role = iota
	Host
)

// Settings is the immutable configuration record of spec §6. A Settings
// value should be constructed once, validated, and then shared read-only
// across Connection, Session, TransactionManager, Handler and the GEM state
// machines it parameterizes.
type Settings struct {
	ConnectMode ConnectMode
	Address     string
	Port        int
	SessionID   uint16
	Role        Role

	// HSMS timers, spec §4.5.
	T3 time.Duration // reply timeout, default 45s
	T5 time.Duration // connect separation, default 10s
	T6 time.Duration // control transaction timeout, default 5s
	T7 time.Duration // NotSelected timeout, default 10s
	T8 time.Duration // network intercharacter timeout, default 5s

	// LinktestInterval is the period between proactive Linktest.req sends
	// while Selected. Zero disables proactive linktest.
	LinktestInterval time.Duration

	// EstablishCommunicationTimeout bounds WaitCRA before the GEM
	// communication state machine falls back to WaitDelay and retries.
	EstablishCommunicationTimeout time.Duration

	// SelectTimeout bounds each readiness/writability poll of the
	// underlying socket; spec requires it to be <= 500ms so that shutdown
	// is always observed promptly.
	SelectTimeout time.Duration

	// MaxMessageSize is the largest accepted HSMS frame, measured as the
	// value of its length prefix (header + body). Zero selects
	// hsms.DefaultMaxMessageSize.
	MaxMessageSize int

	// DeviceID identifies the equipment/host device for data items that
	// require one (distinct from the HSMS SessionID).
	DeviceID int

	// DefaultOfflineSubstate is the GEM control-state-machine substate a
	// newly enabled equipment initializes to, one of
	// gem.DefaultEquipmentOffline or gem.DefaultHostOffline. Stored as a
	// string to avoid an import cycle with package gem.
	DefaultOfflineSubstate string

	// ModelName and SoftwareRevision are the equipment identification
	// reported in the S1F14 Establish Communications reply body
	// (<MDLN>, <SOFTREV>), spec §4.9 end-to-end scenario 2.
	ModelName       string
	SoftwareRevision string
}

// Default returns a Settings populated with the standard-recommended timer
// defaults from spec §4.5, for a Host operating in Active connect mode.
// Callers still must set Address, Port and SessionID.
func Default() Settings {
	return Settings{
		ConnectMode:                   Active,
		Role:                          Host,
		T3:                            45 * time.Second,
		T5:                            10 * time.Second,
		T6:                            5 * time.Second,
		T7:                            10 * time.Second,
		T8:                            5 * time.Second,
		EstablishCommunicationTimeout: 10 * time.Second,
		SelectTimeout:                 500 * time.Millisecond,
		MaxMessageSize:                1 << 24,
		DefaultOfflineSubstate:        "equipment-offline",
	}
}

// Validate rejects settings that would violate the concurrency contract of
// spec §5 (an unbounded wait) or the timer family of §4.5.
func (s Settings) Validate() error {
	type namedDuration struct {
		name string
		d    time.Duration
	}
	positive := []namedDuration{
		{"T3", s.T3}, {"T5", s.T5}, {"T6", s.T6}, {"T7", s.T7}, {"T8", s.T8},
		{"EstablishCommunicationTimeout", s.EstablishCommunicationTimeout},
	}
	for _, nd := range positive {
		if nd.d <= 0 {
			return fmt.Errorf("config: %s must be positive, got %v", nd.name, nd.d)
		}
	}

	if s.SelectTimeout <= 0 || s.SelectTimeout > 500*time.Millisecond {
		return fmt.Errorf("config: SelectTimeout must be in (0, 500ms], got %v", s.SelectTimeout)
	}

	if s.MaxMessageSize < 0 {
		return fmt.Errorf("config: MaxMessageSize must not be negative")
	}

	if s.SessionID == 0xFFFF {
		return fmt.Errorf("config: session id 0xFFFF is reserved for Linktest")
	}

	return nil
}

// Package devicestate holds the simulated device settings the
// assistant can read and mutate through tool calls.
package devicestate

import (
	"fmt"
	"sync"
)

// State is a snapshot of every device setting.
type State struct {
	WiFi         bool `json:"wifi"`
	Bluetooth    bool `json:"bluetooth"`
	MobileData   bool `json:"mobileData"`
	AirplaneMode bool `json:"airplaneMode"`
	Flashlight   bool `json:"flashlight"`
	SilentMode   bool `json:"silentMode"`
	GamingMode   bool `json:"gamingMode"`
	Brightness   int  `json:"brightness"`
	Volume       int  `json:"volume"`
}

// DefaultState returns the settings a freshly booted device reports.
func DefaultState() State {
	return State{
		WiFi:       true,
		Bluetooth:  true,
		Brightness: 80,
		Volume:     50,
	}
}

// Toggle setting names accepted by SetToggle.
const (
	SettingWiFi         = "wifi"
	SettingBluetooth    = "bluetooth"
	SettingMobileData   = "mobileData"
	SettingAirplaneMode = "airplaneMode"
	SettingFlashlight   = "flashlight"
	SettingSilentMode   = "silentMode"
	SettingGamingMode   = "gamingMode"
)

// Level setting names accepted by SetLevel.
const (
	SettingBrightness = "brightness"
	SettingVolume     = "volume"
)

// Store is a concurrency-safe settings store with change
// notifications. Subscribers receive a snapshot after every mutation.
type Store struct {
	mu    sync.RWMutex
	state State
	subs  map[chan State]struct{}
}

// NewStore creates a store seeded with DefaultState.
func NewStore() *Store {
	return &Store{
		state: DefaultState(),
		subs:  make(map[chan State]struct{}),
	}
}

// Snapshot returns the current settings.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers for change notifications. The returned cancel
// function must be called to release the subscription. Slow consumers
// miss intermediate snapshots rather than blocking mutations.
func (s *Store) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 8)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Store) notifyLocked() {
	for ch := range s.subs {
		select {
		case ch <- s.state:
		default:
		}
	}
}

// SetToggle switches a boolean setting. Unknown names are an error.
func (s *Store) SetToggle(name string, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch name {
	case SettingWiFi:
		s.state.WiFi = on
	case SettingBluetooth:
		s.state.Bluetooth = on
	case SettingMobileData:
		s.state.MobileData = on
	case SettingAirplaneMode:
		s.state.AirplaneMode = on
	case SettingFlashlight:
		s.state.Flashlight = on
	case SettingSilentMode:
		s.state.SilentMode = on
	case SettingGamingMode:
		s.state.GamingMode = on
	default:
		return fmt.Errorf("devicestate: unknown toggle %q", name)
	}

	s.notifyLocked()
	return nil
}

// SetLevel sets a numeric setting, clamped to 0-100. Unknown names
// are an error.
func (s *Store) SetLevel(name string, value int) error {
	if value < 0 {
		value = 0
	} else if value > 100 {
		value = 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch name {
	case SettingBrightness:
		s.state.Brightness = value
	case SettingVolume:
		s.state.Volume = value
	default:
		return fmt.Errorf("devicestate: unknown level %q", name)
	}

	s.notifyLocked()
	return nil
}

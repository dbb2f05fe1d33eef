package devicestate

import "testing"

func TestDefaults(t *testing.T) {
	s := NewStore().Snapshot()

	if !s.WiFi || !s.Bluetooth {
		t.Error("wifi and bluetooth should default on")
	}
	if s.MobileData || s.AirplaneMode || s.Flashlight || s.SilentMode || s.GamingMode {
		t.Error("remaining toggles should default off")
	}
	if s.Brightness != 80 {
		t.Errorf("brightness default = %d, want 80", s.Brightness)
	}
	if s.Volume != 50 {
		t.Errorf("volume default = %d, want 50", s.Volume)
	}
}

func TestSetToggle(t *testing.T) {
	store := NewStore()

	if err := store.SetToggle(SettingWiFi, false); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if store.Snapshot().WiFi {
		t.Error("wifi still on after toggle")
	}

	if err := store.SetToggle("hyperdrive", true); err == nil {
		t.Error("expected error for unknown toggle")
	}
}

func TestSetLevelClamps(t *testing.T) {
	store := NewStore()

	tests := []struct {
		in, want int
	}{
		{30, 30},
		{150, 100},
		{-5, 0},
	}
	for _, tt := range tests {
		if err := store.SetLevel(SettingVolume, tt.in); err != nil {
			t.Fatalf("set level %d failed: %v", tt.in, err)
		}
		if got := store.Snapshot().Volume; got != tt.want {
			t.Errorf("volume after set %d = %d, want %d", tt.in, got, tt.want)
		}
	}

	if err := store.SetLevel("bass", 10); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSubscribe(t *testing.T) {
	store := NewStore()
	ch, cancel := store.Subscribe()
	defer cancel()

	if err := store.SetToggle(SettingFlashlight, true); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	select {
	case snap := <-ch:
		if !snap.Flashlight {
			t.Error("snapshot missing the change")
		}
	default:
		t.Fatal("no notification delivered")
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}

	// Cancelling twice must not panic.
	cancel()
}

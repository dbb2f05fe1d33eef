package toolbridge

import (
	"testing"

	"github.com/kinglabs/go-king/pkg/devicestate"
	"github.com/kinglabs/go-king/pkg/live"
)

func newTestBridge() (*Bridge, *devicestate.Store) {
	store := devicestate.NewStore()
	return NewBridge(store, nil), store
}

func TestToggleDeviceSetting(t *testing.T) {
	bridge, store := newTestBridge()

	resp := bridge.Handle(live.FunctionCall{
		ID:   "fc-1",
		Name: ToolToggleDeviceSetting,
		Args: map[string]any{"setting": "wifi", "value": false},
	})

	if resp.ID != "fc-1" {
		t.Errorf("response id = %q, want fc-1", resp.ID)
	}
	if resp.Response["result"] != "ok" {
		t.Errorf("result = %v, want ok", resp.Response["result"])
	}
	if store.Snapshot().WiFi {
		t.Error("wifi still on after toggle call")
	}
}

func TestSetDeviceValue(t *testing.T) {
	bridge, store := newTestBridge()

	// JSON numbers arrive as float64.
	resp := bridge.Handle(live.FunctionCall{
		ID:   "fc-2",
		Name: ToolSetDeviceValue,
		Args: map[string]any{"setting": "brightness", "value": float64(30)},
	})

	if resp.Response["result"] != "ok" {
		t.Errorf("result = %v, want ok", resp.Response["result"])
	}
	if got := store.Snapshot().Brightness; got != 30 {
		t.Errorf("brightness = %d, want 30", got)
	}
}

func TestSetAlarm(t *testing.T) {
	bridge, _ := newTestBridge()

	resp := bridge.Handle(live.FunctionCall{
		ID:   "fc-3",
		Name: ToolSetAlarm,
		Args: map[string]any{"time": "06:00 AM"},
	})

	if got := resp.Response["result"]; got != "Alarm confirmed for 06:00 AM." {
		t.Errorf("result = %v", got)
	}
}

func TestGetWeatherUpdate(t *testing.T) {
	bridge, _ := newTestBridge()

	resp := bridge.Handle(live.FunctionCall{
		ID:   "fc-4",
		Name: ToolGetWeatherUpdate,
		Args: map[string]any{"location": "Lagos"},
	})

	if got := resp.Response["result"]; got != "Temperature is 22°C and sunny." {
		t.Errorf("result = %v", got)
	}
}

func TestUnknownToolDegradesToOK(t *testing.T) {
	bridge, store := newTestBridge()
	before := store.Snapshot()

	resp := bridge.Handle(live.FunctionCall{
		ID:   "fc-5",
		Name: "self_destruct",
		Args: map[string]any{},
	})

	if resp.ID != "fc-5" {
		t.Errorf("response id = %q, want fc-5", resp.ID)
	}
	if resp.Response["result"] != "ok" {
		t.Errorf("result = %v, want ok", resp.Response["result"])
	}
	if store.Snapshot() != before {
		t.Error("unknown tool mutated device state")
	}
}

func TestMalformedArgsDegradeToOK(t *testing.T) {
	bridge, store := newTestBridge()
	before := store.Snapshot()

	resp := bridge.Handle(live.FunctionCall{
		ID:   "fc-6",
		Name: ToolToggleDeviceSetting,
		Args: map[string]any{"setting": 42, "value": "yes"},
	})

	if resp.Response["result"] != "ok" {
		t.Errorf("result = %v, want ok", resp.Response["result"])
	}
	if store.Snapshot() != before {
		t.Error("malformed call mutated device state")
	}
}

func TestHandleBatchPreservesOrderAndIDs(t *testing.T) {
	bridge, _ := newTestBridge()

	calls := []live.FunctionCall{
		{ID: "a", Name: ToolGetWeatherUpdate, Args: map[string]any{"location": "x"}},
		{ID: "b", Name: "nonsense"},
		{ID: "c", Name: ToolSetAlarm, Args: map[string]any{"time": "07:30 PM"}},
	}

	responses := bridge.HandleBatch(calls)
	if len(responses) != len(calls) {
		t.Fatalf("expected %d responses, got %d", len(calls), len(responses))
	}
	for i, resp := range responses {
		if resp.ID != calls[i].ID {
			t.Errorf("response %d id = %q, want %q", i, resp.ID, calls[i].ID)
		}
	}
}

func TestDeclarationsCoverEveryTool(t *testing.T) {
	names := make(map[string]bool)
	for _, d := range Declarations() {
		names[d.Name] = true
	}

	for _, want := range []string{
		ToolToggleDeviceSetting, ToolSetDeviceValue, ToolSetAlarm, ToolGetWeatherUpdate,
	} {
		if !names[want] {
			t.Errorf("missing declaration for %s", want)
		}
	}
}

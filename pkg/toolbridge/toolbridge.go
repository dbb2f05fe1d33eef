// Package toolbridge executes the model's function calls against the
// device state store and produces the responses to send back. Tool
// failures never escalate: an unrecognized or malformed call degrades
// to the neutral "ok" result so the conversation keeps flowing.
package toolbridge

import (
	"fmt"
	"log/slog"

	"github.com/kinglabs/go-king/pkg/devicestate"
	"github.com/kinglabs/go-king/pkg/live"
)

// Tool names understood by the bridge.
const (
	ToolToggleDeviceSetting = "toggle_device_setting"
	ToolSetDeviceValue      = "set_device_value"
	ToolSetAlarm            = "set_alarm"
	ToolGetWeatherUpdate    = "get_weather_update"
)

const defaultResult = "ok"

// Bridge routes function calls to the device state store.
type Bridge struct {
	devices *devicestate.Store
	logger  *slog.Logger
}

// NewBridge creates a bridge mutating the given store.
func NewBridge(devices *devicestate.Store, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{devices: devices, logger: logger}
}

// Declarations returns the function declarations advertised to the
// model at session setup.
func Declarations() []live.FunctionDeclaration {
	return []live.FunctionDeclaration{
		{
			Name: ToolToggleDeviceSetting,
			Parameters: map[string]any{
				"type":        "OBJECT",
				"description": "Toggle a device setting on or off.",
				"properties": map[string]any{
					"setting": map[string]any{
						"type":        "STRING",
						"description": "The setting to toggle (wifi, bluetooth, mobileData, airplaneMode, flashlight, silentMode, gamingMode)",
					},
					"value": map[string]any{
						"type":        "BOOLEAN",
						"description": "True for on, false for off",
					},
				},
				"required": []string{"setting", "value"},
			},
		},
		{
			Name: ToolSetDeviceValue,
			Parameters: map[string]any{
				"type":        "OBJECT",
				"description": "Set a specific level for brightness or volume (0-100).",
				"properties": map[string]any{
					"setting": map[string]any{
						"type":        "STRING",
						"description": "The setting to adjust (brightness, volume)",
					},
					"value": map[string]any{
						"type":        "NUMBER",
						"description": "Level from 0 to 100",
					},
				},
				"required": []string{"setting", "value"},
			},
		},
		{
			Name: ToolSetAlarm,
			Parameters: map[string]any{
				"type":        "OBJECT",
				"description": "Set a new alarm or timer.",
				"properties": map[string]any{
					"time": map[string]any{
						"type":        "STRING",
						"description": "The time for the alarm (e.g., \"06:00 AM\")",
					},
					"label": map[string]any{
						"type":        "STRING",
						"description": "Optional label for the alarm",
					},
				},
				"required": []string{"time"},
			},
		},
		{
			Name: ToolGetWeatherUpdate,
			Parameters: map[string]any{
				"type":        "OBJECT",
				"description": "Get current weather for a location.",
				"properties": map[string]any{
					"location": map[string]any{
						"type":        "STRING",
						"description": "City or area name",
					},
				},
				"required": []string{"location"},
			},
		},
	}
}

// Handle executes one call. The response id always echoes the call id.
func (b *Bridge) Handle(call live.FunctionCall) live.FunctionResponse {
	result := defaultResult

	switch call.Name {
	case ToolToggleDeviceSetting:
		setting, _ := call.Args["setting"].(string)
		value, _ := call.Args["value"].(bool)
		if err := b.devices.SetToggle(setting, value); err != nil {
			b.logger.Warn("toggle tool call rejected", "setting", setting, "error", err)
		}

	case ToolSetDeviceValue:
		setting, _ := call.Args["setting"].(string)
		value, _ := call.Args["value"].(float64)
		if err := b.devices.SetLevel(setting, int(value)); err != nil {
			b.logger.Warn("level tool call rejected", "setting", setting, "error", err)
		}

	case ToolSetAlarm:
		alarmTime, _ := call.Args["time"].(string)
		result = fmt.Sprintf("Alarm confirmed for %s.", alarmTime)

	case ToolGetWeatherUpdate:
		result = "Temperature is 22°C and sunny."

	default:
		b.logger.Warn("unknown tool call", "name", call.Name, "id", call.ID)
	}

	return live.FunctionResponse{
		ID:       call.ID,
		Name:     call.Name,
		Response: map[string]any{"result": result},
	}
}

// HandleBatch executes a batch in order, one response per call.
func (b *Bridge) HandleBatch(calls []live.FunctionCall) []live.FunctionResponse {
	responses := make([]live.FunctionResponse, 0, len(calls))
	for _, call := range calls {
		responses = append(responses, b.Handle(call))
	}
	return responses
}

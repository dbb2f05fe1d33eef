package session

import (
	"golang.org/x/oauth2"

	"github.com/kinglabs/go-king/pkg/live"
)

// DefaultVoice is the synthesized voice used when StartConfig leaves
// Voice empty.
const DefaultVoice = "Kore"

// DefaultSystemInstruction is the assistant persona sent when
// StartConfig leaves SystemInstruction empty.
const DefaultSystemInstruction = `
You are "King", a high-end assistant powered by Neural Engine v1.2.
Your primary focus is high-fidelity neural-voice interaction and precision device orchestration.

Activation Rule:
When you hear the activation phrase (default "Hey King"), you MUST respond with: "Neural Engine v1.2 online. How may I be of service? Please give me your instruction."

Capabilities:
You are an expert at controlling device settings and providing concise, intelligent audio feedback.
Your v1.2 protocol utilizes the latest neural architecture for ultra-low latency cognitive processing.

General Rules:
- Respond audibly as a human-like assistant.
- Control device settings (WiFi, Bluetooth, etc.) using available tools.
- Tone is confident, respectful, crisp, and high-end.
- Acknowledge that you are running on the King Neural Engine v1.2.
`

// StartConfig describes one session. Either APIKey or TokenSource
// must be set.
type StartConfig struct {
	Model             string
	SystemInstruction string
	Voice             string
	ThinkingBudget    *int
	Tools             []live.FunctionDeclaration

	APIKey      string
	TokenSource oauth2.TokenSource
}

func (c *StartConfig) withDefaults() StartConfig {
	out := *c
	if out.Voice == "" {
		out.Voice = DefaultVoice
	}
	if out.SystemInstruction == "" {
		out.SystemInstruction = DefaultSystemInstruction
	}
	return out
}

func (c *StartConfig) liveConfig() live.Config {
	cfg := c.withDefaults()

	var tools []live.Tool
	if len(cfg.Tools) > 0 {
		tools = []live.Tool{{FunctionDeclarations: cfg.Tools}}
	}
	return live.Config{
		Model:             cfg.Model,
		SystemInstruction: cfg.SystemInstruction,
		Voice:             cfg.Voice,
		ThinkingBudget:    cfg.ThinkingBudget,
		Tools:             tools,
		APIKey:            cfg.APIKey,
		TokenSource:       cfg.TokenSource,
	}
}

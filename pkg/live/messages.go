// Package live implements a client for the Gemini Live
// BidiGenerateContent websocket API: bidirectional realtime audio,
// image frames, and tool calling over a single connection.
package live

import (
	"encoding/json"

	"github.com/kinglabs/go-king/pkg/pcm"
)

// Part is a single content part in a turn. Exactly one field is set.
type Part struct {
	Text       string    `json:"text,omitempty"`
	InlineData *pcm.Blob `json:"inlineData,omitempty"`
}

// Content is an ordered sequence of parts with an optional role.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// FunctionDeclaration describes one callable function exposed to the
// model in the session setup.
type FunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Tool groups function declarations.
type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"function_declarations"`
}

// PrebuiltVoiceConfig selects a named synthesized voice.
type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voice_name"`
}

// VoiceConfig wraps voice selection.
type VoiceConfig struct {
	PrebuiltVoiceConfig PrebuiltVoiceConfig `json:"prebuilt_voice_config"`
}

// SpeechConfig configures audio synthesis for the session.
type SpeechConfig struct {
	VoiceConfig VoiceConfig `json:"voice_config"`
}

// ThinkingConfig bounds the model's reasoning effort per turn.
type ThinkingConfig struct {
	ThinkingBudget int `json:"thinking_budget"`
}

// GenerationConfig configures response generation for the session.
type GenerationConfig struct {
	ResponseModalities []string        `json:"response_modalities"`
	SpeechConfig       *SpeechConfig   `json:"speech_config,omitempty"`
	ThinkingConfig     *ThinkingConfig `json:"thinking_config,omitempty"`
}

// Setup is the first client message on a new connection. The server
// acknowledges it with setupComplete before any media flows.
type Setup struct {
	Model             string            `json:"model"`
	GenerationConfig  *GenerationConfig `json:"generation_config,omitempty"`
	SystemInstruction *Content          `json:"system_instruction,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
}

// MediaChunk is one base64 media payload in a realtime input message.
type MediaChunk struct {
	Data     string `json:"data"`
	MIMEType string `json:"mime_type"`
}

// RealtimeInput streams media chunks to the model mid-turn.
type RealtimeInput struct {
	MediaChunks []MediaChunk `json:"media_chunks"`
}

// FunctionResponse returns one tool result to the model. The ID must
// echo the ID of the originating function call.
type FunctionResponse struct {
	ID       string         `json:"id"`
	Name     string         `json:"name,omitempty"`
	Response map[string]any `json:"response"`
}

// ToolResponse batches function responses back to the model.
type ToolResponse struct {
	FunctionResponses []FunctionResponse `json:"function_responses"`
}

// ClientMessage is the envelope for every outbound message after
// setup. Exactly one field is set.
type ClientMessage struct {
	Setup         *Setup         `json:"setup,omitempty"`
	RealtimeInput *RealtimeInput `json:"realtime_input,omitempty"`
	ToolResponse  *ToolResponse  `json:"tool_response,omitempty"`
}

// FunctionCall is one tool invocation requested by the model.
type FunctionCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolCall carries a batch of function calls from the model.
type ToolCall struct {
	FunctionCalls []FunctionCall `json:"functionCalls"`
}

// InlineData is a base64 media part in a server turn.
type InlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// ServerPart is one part of a model turn. Audio arrives as InlineData
// with an "audio/pcm" mime type.
type ServerPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// ModelTurn is the model's in-progress response content.
type ModelTurn struct {
	Parts []ServerPart `json:"parts"`
}

// Transcription carries speech-to-text output for one side of the
// conversation.
type Transcription struct {
	Text string `json:"text"`
}

// ServerContent is incremental model output plus turn-level signals.
// Interrupted is set when the user barged in over model speech.
type ServerContent struct {
	ModelTurn           *ModelTurn     `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	InputTranscription  *Transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *Transcription `json:"outputTranscription,omitempty"`
}

// ServerMessage is the envelope for every inbound message. Exactly one
// field is set.
type ServerMessage struct {
	SetupComplete *json.RawMessage `json:"setupComplete,omitempty"`
	ServerContent *ServerContent   `json:"serverContent,omitempty"`
	ToolCall      *ToolCall        `json:"toolCall,omitempty"`
}

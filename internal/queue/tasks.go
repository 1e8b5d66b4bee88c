package queue

import "github.com/nikhilbhutani/genservices/internal/voice"

const (
	TypeVoiceSave = "voice:save"

	// QueueVoice is the only queue the voice worker consumes.
	QueueVoice = "voice"
)

// VoiceSavePayload carries a request already passed through
// voice.Service.PrepareSave, so the worker never sees unvalidated input.
type VoiceSavePayload struct {
	Request voice.SaveRequest `json:"request"`
}

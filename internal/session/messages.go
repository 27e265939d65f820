package session

import "github.com/google/uuid"

// inboundEnvelope is the discriminated union every inbound text frame
// decodes into before its data payload is parsed against the concrete type
// named by Type.
type inboundEnvelope struct {
	Type string          `json:"type"`
	Data inboundDataJSON `json:"data"`
}

type inboundDataJSON struct {
	Cid              string `json:"cid"`
	AudioBytesBase64 string `json:"audio_bytes_base64"`
}

const (
	inboundVoiceChatInit   = "VoiceChatInit"
	inboundVoiceChatPrompt = "VoiceChatPrompt"
)

// outboundKind enumerates every reply the loop can send.
type outboundKind string

const (
	outVoiceChatInitOk       outboundKind = "VoiceChatInitOk"
	outInvalid               outboundKind = "Invalid"
	outInvalidAudioBase64    outboundKind = "InvalidAudioBase64"
	outZeroCharge            outboundKind = "ZeroCharge"
	outInvalidSorroundAudio  outboundKind = "InvalidSorroundAudio"
	outInternalError         outboundKind = "InternalError"
	outEmptyPrompt           outboundKind = "EmptyPrompt"
	outLongPrompt            outboundKind = "LongPrompt"
	outNotFoundConversation  outboundKind = "NotFoundConversation"
	outUnauthorized          outboundKind = "Unauthorized"
	outVoiceChatAiReply      outboundKind = "VoiceChatAiReply"
)

type outboundEnvelope struct {
	Type string           `json:"type"`
	Data *outboundDataJSON `json:"data,omitempty"`
}

type outboundDataJSON struct {
	AudioBytesBase64 string `json:"audio_bytes_base64"`
}

func simpleReply(kind outboundKind) outboundEnvelope {
	return outboundEnvelope{Type: string(kind)}
}

func audioReply(kind outboundKind, audioBase64 string) outboundEnvelope {
	return outboundEnvelope{Type: string(kind), Data: &outboundDataJSON{AudioBytesBase64: audioBase64}}
}

// chatmateID parses the cid field of a VoiceChatInit payload.
func (d inboundDataJSON) chatmateID() (uuid.UUID, error) {
	return uuid.Parse(d.Cid)
}

package span

import (
	"encoding/json"
	"fmt"
)

// InputKind discriminates the LlmInput sum type.
type InputKind string

const (
	InputKindText       InputKind = "text"
	InputKindChat       InputKind = "chat"
	InputKindMultimodal InputKind = "multimodal"
)

// ChatMessage is one turn of a chat-style prompt.
type ChatMessage struct {
	Role    string  `json:"role"`
	Content string  `json:"content"`
	Name    *string `json:"name,omitempty"`
}

// ContentPartKind discriminates ContentPart.
type ContentPartKind string

const (
	ContentPartText  ContentPartKind = "text"
	ContentPartImage ContentPartKind = "image"
	ContentPartAudio ContentPartKind = "audio"
)

// ContentPart is one piece of a multimodal input. Exactly one of Text or
// Source is populated depending on Kind.
type ContentPart struct {
	Kind   ContentPartKind `json:"type"`
	Text   string          `json:"text,omitempty"`
	Source string          `json:"source,omitempty"`
}

// Input is the tagged union of prompt shapes a span can carry: a bare text
// prompt, a chat message list, or multimodal content parts. Exactly one of
// the three fields is meaningful, selected by Kind; processors must switch
// on Kind rather than check field presence.
type Input struct {
	Kind     InputKind     `json:"type"`
	Prompt   string        `json:"prompt,omitempty"`
	Messages []ChatMessage `json:"messages,omitempty"`
	Parts    []ContentPart `json:"parts,omitempty"`
}

// TextInput builds a Text-kind Input.
func TextInput(prompt string) Input {
	return Input{Kind: InputKindText, Prompt: prompt}
}

// ChatInput builds a Chat-kind Input.
func ChatInput(messages []ChatMessage) Input {
	return Input{Kind: InputKindChat, Messages: messages}
}

// MultimodalInput builds a Multimodal-kind Input.
func MultimodalInput(parts []ContentPart) Input {
	return Input{Kind: InputKindMultimodal, Parts: parts}
}

// UnmarshalJSON validates the discriminator and clears fields that don't
// belong to the resolved Kind, so a caller inspecting Prompt/Messages/Parts
// never sees stale data from a hand-built JSON payload.
func (i *Input) UnmarshalJSON(data []byte) error {
	type alias Input
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	switch a.Kind {
	case InputKindText:
		a.Messages, a.Parts = nil, nil
	case InputKindChat:
		a.Prompt, a.Parts = "", nil
	case InputKindMultimodal:
		a.Prompt, a.Messages = "", nil
	default:
		return fmt.Errorf("span: unknown input type %q", a.Kind)
	}
	*i = Input(a)
	return nil
}

// Output is the response side of a span.
type Output struct {
	Content      string                 `json:"content"`
	FinishReason *string                `json:"finish_reason,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

package internal

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies the author of a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole validates a raw role string. Unknown roles are rejected.
func ParseRole(s string) (Role, error) {
	switch Role(strings.TrimSpace(s)) {
	case RoleUser:
		return RoleUser, nil
	case RoleAssistant:
		return RoleAssistant, nil
	default:
		return "", fmt.Errorf("unknown role %q (expected user or assistant)", s)
	}
}

// TurnID is the position of a turn within its ledger
type TurnID int

// Turn is one message in a conversation.
//
// DisplayContent is what the user sees. CanonicalContent is what gets resent
// to the model and exported; for assistant turns it is the unrendered reply.
// AttachmentPath is only ever set on user turns.
type Turn struct {
	Role             Role   `json:"role" yaml:"role"`
	DisplayContent   string `json:"display_content" yaml:"display_content"`
	CanonicalContent string `json:"canonical_content" yaml:"canonical_content"`
	AttachmentPath   string `json:"attachment_path,omitempty" yaml:"attachment_path,omitempty"`
}

// NewUserTurn builds a user turn; display and canonical forms are identical.
func NewUserTurn(text, attachmentPath string) Turn {
	return Turn{
		Role:             RoleUser,
		DisplayContent:   text,
		CanonicalContent: text,
		AttachmentPath:   attachmentPath,
	}
}

// NewAssistantTurn builds an assistant turn, rendering the display form.
func NewAssistantTurn(canonical string, render RenderFunc) Turn {
	if render == nil {
		render = RenderMarkdown
	}
	return Turn{
		Role:             RoleAssistant,
		DisplayContent:   render(canonical),
		CanonicalContent: canonical,
	}
}

// HasAttachment reports whether the turn references an image
func (t Turn) HasAttachment() bool {
	return t.Role == RoleUser && t.AttachmentPath != ""
}

// Metadata describes an exported or stored conversation
type Metadata struct {
	CreatedAt time.Time
	Model     string
	TurnCount int
}

// ProviderMessage is one role/content entry sent to the model endpoint
type ProviderMessage struct {
	Role  Role
	Text  string
	Image *ImagePayload
}

// ImagePayload is a base64 encoded image attached to a provider message
type ImagePayload struct {
	MediaType string
	Data      string
}

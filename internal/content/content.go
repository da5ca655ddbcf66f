// Package content maps raw bridge payloads onto a closed set of message kinds
// and renders the short summary stored in the recency cache.
package content

import (
	"strings"

	"command-bot/backend/internal/store"
)

// Raw is the message payload as delivered by the bridge
type Raw struct {
	Kind    string `json:"kind"`
	Text    string `json:"text,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// Kind is one of Text, Caption, Audio, Sticker, Other or Empty
type Kind interface {
	kind()
}

// Media is what a Caption is attached to
type Media string

const (
	MediaImage    Media = "Image"
	MediaVideo    Media = "Video"
	MediaDocument Media = "Document"
)

type (
	// Text is a plain or extended text message
	Text struct{ Body string }
	// Caption is media carrying an optional caption
	Caption struct {
		Media Media
		Text  string
	}
	// Audio is a voice note or audio file
	Audio struct{}
	// Sticker is a sticker message
	Sticker struct{}
	// Other is any kind the bot does not model, tagged by its raw name
	Other struct{ Tag string }
	// Empty is a message without a body
	Empty struct{}
)

func (Text) kind()    {}
func (Caption) kind() {}
func (Audio) kind()   {}
func (Sticker) kind() {}
func (Other) kind()   {}
func (Empty) kind()   {}

// Classify builds the Kind for a raw payload
func Classify(raw Raw) Kind {
	switch strings.ToLower(strings.TrimSpace(raw.Kind)) {
	case "", "text", "conversation", "extended_text":
		if raw.Text == "" {
			return Empty{}
		}
		return Text{Body: raw.Text}
	case "image":
		return Caption{Media: MediaImage, Text: raw.Caption}
	case "video":
		return Caption{Media: MediaVideo, Text: raw.Caption}
	case "document":
		return Caption{Media: MediaDocument, Text: raw.Caption}
	case "audio", "voice":
		return Audio{}
	case "sticker":
		return Sticker{}
	default:
		return Other{Tag: strings.ToLower(strings.TrimSpace(raw.Kind))}
	}
}

// Describe renders the human readable summary of k
func Describe(k Kind) string {
	switch v := k.(type) {
	case Text:
		return v.Body
	case Caption:
		if v.Text == "" {
			return "[" + strings.ToLower(string(v.Media)) + "]"
		}
		return "[" + string(v.Media) + "] " + v.Text
	case Audio:
		return "[Audio Message]"
	case Sticker:
		return "[Sticker]"
	case Other:
		return "[" + v.Tag + "]"
	case Empty:
		return "Empty message"
	default:
		return "Empty message"
	}
}

// Body is the text a command may be parsed from: the message text or a media caption
func Body(k Kind) string {
	switch v := k.(type) {
	case Text:
		return v.Body
	case Caption:
		if v.Media == MediaImage || v.Media == MediaVideo {
			return v.Text
		}
	}
	return ""
}

// TypeOf returns the coarse classification tag for k
func TypeOf(k Kind) store.MessageType {
	switch v := k.(type) {
	case Text, Empty:
		return store.TypeConversation
	case Caption:
		switch v.Media {
		case MediaImage:
			return store.TypeImage
		case MediaVideo:
			return store.TypeVideo
		default:
			return store.TypeDocument
		}
	case Audio:
		return store.TypeAudio
	case Sticker:
		return store.TypeSticker
	default:
		return store.TypeOther
	}
}

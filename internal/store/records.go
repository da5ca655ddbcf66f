package store

import "strings"

// MessageType is the coarse classification tag of a cached message
type MessageType string

const (
	TypeConversation MessageType = "conversation"
	TypeImage        MessageType = "image"
	TypeVideo        MessageType = "video"
	TypeAudio        MessageType = "audio"
	TypeSticker      MessageType = "sticker"
	TypeDocument     MessageType = "document"
	TypeOther        MessageType = "other"
)

// CacheEntry is the message-kind record kept for deletion recovery
type CacheEntry struct {
	Key         string      `json:"key"`
	ChatID      string      `json:"chat_id"`
	MessageID   string      `json:"message_id"`
	Content     string      `json:"content"`
	Sender      string      `json:"sender"`
	Timestamp   string      `json:"timestamp"`
	MessageType MessageType `json:"message_type"`
}

// RiddleState is the game-kind record of an outstanding riddle
type RiddleState struct {
	Answer    string `json:"answer"`
	CreatedAt int64  `json:"created_at"`
	Solved    bool   `json:"solved"`
}

// chatEscaper keeps "_" out of the chat part so the first "_" of a message
// key always separates chat from message id
var chatEscaper = strings.NewReplacer("%", "%25", "_", "%5F")

// MessageKey builds the key of a message record. Chat ids without "_" or "%"
// keep the plain chat + "_" + message form.
func MessageKey(chatID, messageID string) string {
	return chatEscaper.Replace(chatID) + "_" + messageID
}

// RiddleKey builds the key of a conversation's riddle record
func RiddleKey(chatID string) string {
	return chatID + ":riddle"
}

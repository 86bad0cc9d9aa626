package models

import (
	"errors"
	"fmt"
	"time"
)

// Role is a closed set: conversation turns are either the end user's or the
// bot's. New messages can only be built from the two constants below;
// ParseRole exists for data read back from storage, which is untrusted.
type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

var ErrUnknownRole = errors.New("unknown message role")

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleHuman, RoleAssistant:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Message is one conversation turn inside a session's history array.
type Message struct {
	Role      Role      `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// ChatHistory is the per-session document in the chat_histories collection.
// LastActivityTimestamp drives the TTL index: idle sessions expire whole.
type ChatHistory struct {
	SessionID             string    `bson:"session_id" json:"session_id"`
	History               []Message `bson:"history" json:"history"`
	LastActivityTimestamp time.Time `bson:"last_activity_timestamp" json:"last_activity_timestamp"`
}

const ChatHistoryCollection = "chat_histories"

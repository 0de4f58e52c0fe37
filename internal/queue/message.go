package queue

import (
	"strings"

	json "github.com/goccy/go-json"
)

// MessageVersion is the current payload version written by producers.
const MessageVersion = 1

// Message is the payload sent to downstream queue consumers. It only points
// at an ingestion job; the job row holds everything else.
type Message struct {
	JobID      string `json:"jobId"`
	BidID      string `json:"bidId,omitempty"`
	RequestID  string `json:"requestId"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	if msg.Version == 0 {
		msg.Version = MessageVersion
	}
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	msg.JobID = strings.TrimSpace(msg.JobID)
	return msg, nil
}

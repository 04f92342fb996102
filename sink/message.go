package sink

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tapward/logtap/event"
	"github.com/tapward/logtap/internal/pipeline/jsoncodec"
)

// Metadata keys set on forwarded messages.
const (
	MetadataKeyCategory  = "logtap_category"
	MetadataKeyRequestID = "logtap_request_id"
)

// NewMessage converts an event into a Watermill message with the standard
// metadata, for sinks that forward events to an external broker.
func NewMessage(ev event.Event) (*message.Message, error) {
	payload, err := jsoncodec.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	msg := message.NewMessage(ev.ID, payload)
	msg.Metadata.Set(MetadataKeyCategory, string(ev.Category))
	msg.Metadata.Set(MetadataKeyRequestID, string(ev.RequestID))
	return msg, nil
}

// DefaultForwardTopic is the topic forwarding sinks publish to when none is
// configured.
const DefaultForwardTopic = "logtap.events"

// ForwardTopic returns the configured forwarding topic or the default.
func ForwardTopic(cfg Config) string {
	if topic := cfg.GetSinkTopic(); topic != "" {
		return topic
	}
	return DefaultForwardTopic
}

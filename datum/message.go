package datum

import (
	"github.com/tidepool-org/medical-data/config"
	"github.com/tidepool-org/medical-data/pointer"
)

// Message is one free-text note. ParentMessage is nil for thread roots.
type Message struct {
	Base
	UserID        string  `json:"userid"`
	GroupID       string  `json:"groupid"`
	MessageText   string  `json:"messageText"`
	ParentMessage *string `json:"parentMessage"`
}

// NormalizeMessage remaps the lowercase field names the message API uses
// (timestamp, messagetext, parentmessage, userid, groupid) before the common
// base normalization.
func NormalizeMessage(raw Raw, opts *config.Options) (*Message, error) {
	remapped := make(Raw, len(raw)+1)
	for key, value := range raw {
		remapped[key] = value
	}
	if timestamp, ok := raw["timestamp"]; ok {
		remapped["time"] = timestamp
	}

	base, err := normalizeBase(remapped, opts)
	if err != nil {
		return nil, err
	}

	var fields struct {
		UserID        string `json:"userid"`
		GroupID       string `json:"groupid"`
		MessageText   string `json:"messagetext"`
		ParentMessage string `json:"parentmessage"`
	}
	if err := decode(raw, &fields); err != nil {
		return nil, err
	}

	base.Type = TypeMessage
	message := &Message{
		Base:        base,
		UserID:      fields.UserID,
		GroupID:     fields.GroupID,
		MessageText: fields.MessageText,
	}
	if fields.ParentMessage != "" {
		message.ParentMessage = pointer.FromAny(fields.ParentMessage)
	}
	return message, nil
}

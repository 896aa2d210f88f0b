package models

import "time"

// Chat channels form a closed set; anything else is rejected at the edge.
const (
	ChannelGeneral = "general"
	ChannelPvP     = "pvp"
	ChannelTrading = "trading"
	ChannelHelp    = "help"
)

// ChatChannels lists the valid broadcast channels in display order.
var ChatChannels = []string{ChannelGeneral, ChannelPvP, ChannelTrading, ChannelHelp}

// ValidChannel reports whether name is one of the broadcast channels.
func ValidChannel(name string) bool {
	for _, c := range ChatChannels {
		if c == name {
			return true
		}
	}
	return false
}

// Message types.
const (
	MessageTypeText   = "text"
	MessageTypeSystem = "system"
)

// MaxMessageLen caps chat message bodies.
const MaxMessageLen = 1000

// ChannelRetention is how many non-deleted messages a channel keeps; older
// rows are marked deleted by the pruner, not erased.
const ChannelRetention = 1000

// Message is a chat message. A nil ReceiverID means a channel broadcast;
// a non-nil ReceiverID means a direct message and Channel is ignored.
type Message struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SenderID    uint      `gorm:"not null;index" json:"sender_id"`
	Sender      *User     `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	ReceiverID  *uint     `gorm:"index" json:"receiver_id,omitempty"`
	Receiver    *User     `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
	Channel     string    `gorm:"size:32;index" json:"channel,omitempty"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	MessageType string    `gorm:"size:16;not null;default:'text'" json:"message_type"`
	IsDeleted   bool      `gorm:"not null;default:false;index" json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
}

// DM reports whether the message is a direct message.
func (m *Message) DM() bool {
	return m.ReceiverID != nil
}

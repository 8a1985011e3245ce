package chatbot

// MessageType represents the type of update received
type MessageType string

const (
	MessageTypeCommand  MessageType = "command"
	MessageTypeText     MessageType = "text"
	MessageTypeCallback MessageType = "callback"
	MessageTypeOther    MessageType = "other"
)

// Command represents supported bot commands
type Command string

const (
	CommandStart Command = "/start"
	CommandHelp  Command = "/help"
	CommandShop  Command = "/shop"
)

// IsValid checks if the message type is valid
func (mt MessageType) IsValid() bool {
	switch mt {
	case MessageTypeCommand, MessageTypeText, MessageTypeCallback, MessageTypeOther:
		return true
	default:
		return false
	}
}

// IsValid checks if the command is valid
func (c Command) IsValid() bool {
	switch c {
	case CommandStart, CommandHelp, CommandShop:
		return true
	default:
		return false
	}
}

// Reply is what the bot sends back for an update.
type Reply struct {
	Text string
	// WithStorefront attaches the button that opens the Mini-App.
	WithStorefront bool
}

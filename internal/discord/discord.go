package discord

import "context"

type OptionType int

const (
	OptionString OptionType = iota + 1
	OptionInteger
)

type OptionChoice struct {
	Name  string
	Value string
}

type CommandOption struct {
	Name        string
	Description string
	Type        OptionType
	Required    bool
	Choices     []OptionChoice
}

type SlashCommandDefinition struct {
	Name        string
	Description string
	Options     []CommandOption
}

type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = iota + 1
	ButtonSecondary
	ButtonSuccess
	ButtonDanger
)

type Button struct {
	Label    string
	CustomID string
	Style    ButtonStyle
}

// Reply is a message with optional rows of buttons.
type Reply struct {
	Content   string
	Buttons   [][]Button
	Ephemeral bool
}

type SlashCommandEvent struct {
	GuildID     string
	ChannelID   string
	CommandName string
	UserID      string
	UserName    string
	// Options holds option values as strings, keyed by option name.
	Options map[string]string
	Respond func(reply Reply) error
}

// ComponentEvent is a button press. Update edits the message that carried
// the button; Respond posts a new message.
type ComponentEvent struct {
	GuildID   string
	ChannelID string
	UserID    string
	UserName  string
	CustomID  string
	Update    func(reply Reply) error
	Respond   func(reply Reply) error
}

type Client interface {
	Connect(ctx context.Context) error
	Close() error
	RegisterSlashCommandHandler(handler func(SlashCommandEvent))
	RegisterComponentHandler(handler func(ComponentEvent))
	UpsertGuildSlashCommands(guildID string, defs []SlashCommandDefinition) error
	GetBotUserID() (string, error)
	Run() error
}

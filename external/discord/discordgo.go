package discord

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/bwmarrin/discordgo"
	discordpkg "github.com/utyara3/TimeTracker/internal/discord"
)

type Client struct {
	session   *discordgo.Session
	token     string
	botUserID string
}

func NewClient(token string) discordpkg.Client {
	return &Client{
		token: token,
	}
}

func (c *Client) Connect(ctx context.Context) error {
	_ = ctx
	s, err := discordgo.New("Bot " + c.token)
	if err != nil {
		return err
	}
	c.session = s
	s.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsGuilds)
	if err := s.Open(); err != nil {
		return err
	}
	userID, err := c.GetBotUserID()
	if err != nil {
		return err
	}
	c.botUserID = userID
	return nil
}

func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

func (c *Client) RegisterSlashCommandHandler(handler func(discordpkg.SlashCommandEvent)) {
	c.session.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic == nil || ic.Type != discordgo.InteractionApplicationCommand {
			return
		}
		data := ic.ApplicationCommandData()
		if data.Name == "" {
			return
		}
		userID, userName := interactionUser(ic)
		if userID == "" {
			return
		}
		slog.Info("slash command interaction received", "guild_id", ic.GuildID, "channel_id", ic.ChannelID, "command", data.Name, "user_id", userID)
		handler(discordpkg.SlashCommandEvent{
			GuildID:     ic.GuildID,
			ChannelID:   ic.ChannelID,
			CommandName: data.Name,
			UserID:      userID,
			UserName:    userName,
			Options:     optionValues(data.Options),
			Respond: func(reply discordpkg.Reply) error {
				return s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
					Type: discordgo.InteractionResponseChannelMessageWithSource,
					Data: responseData(reply),
				})
			},
		})
	})
}

func (c *Client) RegisterComponentHandler(handler func(discordpkg.ComponentEvent)) {
	c.session.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic == nil || ic.Type != discordgo.InteractionMessageComponent {
			return
		}
		data := ic.MessageComponentData()
		userID, userName := interactionUser(ic)
		if userID == "" || data.CustomID == "" {
			return
		}
		slog.Debug("component interaction received", "guild_id", ic.GuildID, "custom_id", data.CustomID, "user_id", userID)
		respond := func(kind discordgo.InteractionResponseType) func(discordpkg.Reply) error {
			return func(reply discordpkg.Reply) error {
				return s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
					Type: kind,
					Data: responseData(reply),
				})
			}
		}
		handler(discordpkg.ComponentEvent{
			GuildID:   ic.GuildID,
			ChannelID: ic.ChannelID,
			UserID:    userID,
			UserName:  userName,
			CustomID:  data.CustomID,
			Update:    respond(discordgo.InteractionResponseUpdateMessage),
			Respond:   respond(discordgo.InteractionResponseChannelMessageWithSource),
		})
	})
}

func interactionUser(ic *discordgo.InteractionCreate) (string, string) {
	var u *discordgo.User
	if ic.Member != nil && ic.Member.User != nil {
		u = ic.Member.User
	}
	if u == nil && ic.User != nil {
		u = ic.User
	}
	if u == nil || u.ID == "" {
		return "", ""
	}
	name := preferredDiscordName(u.GlobalName, u.Username, u.ID)
	if ic.Member != nil && ic.Member.Nick != "" {
		name = ic.Member.Nick
	}
	return u.ID, name
}

func optionValues(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]string {
	values := make(map[string]string, len(opts))
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt.Type {
		case discordgo.ApplicationCommandOptionString:
			values[opt.Name] = opt.StringValue()
		case discordgo.ApplicationCommandOptionInteger:
			values[opt.Name] = strconv.FormatInt(opt.IntValue(), 10)
		default:
			values[opt.Name] = fmt.Sprint(opt.Value)
		}
	}
	return values
}

func responseData(reply discordpkg.Reply) *discordgo.InteractionResponseData {
	data := &discordgo.InteractionResponseData{
		Content:    reply.Content,
		Components: components(reply.Buttons),
	}
	if reply.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return data
}

// components always returns a non-nil slice so that an update clears
// buttons left over from the previous message.
func components(rows [][]discordpkg.Button) []discordgo.MessageComponent {
	out := make([]discordgo.MessageComponent, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		buttons := make([]discordgo.MessageComponent, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, discordgo.Button{
				Label:    b.Label,
				CustomID: b.CustomID,
				Style:    buttonStyle(b.Style),
			})
		}
		out = append(out, discordgo.ActionsRow{Components: buttons})
	}
	return out
}

func buttonStyle(style discordpkg.ButtonStyle) discordgo.ButtonStyle {
	switch style {
	case discordpkg.ButtonSecondary:
		return discordgo.SecondaryButton
	case discordpkg.ButtonSuccess:
		return discordgo.SuccessButton
	case discordpkg.ButtonDanger:
		return discordgo.DangerButton
	default:
		return discordgo.PrimaryButton
	}
}

func (c *Client) UpsertGuildSlashCommands(guildID string, defs []discordpkg.SlashCommandDefinition) error {
	appID := c.applicationID()
	if appID == "" {
		return fmt.Errorf("discord application id is not available")
	}
	existing, err := c.session.ApplicationCommands(appID, guildID)
	if err != nil {
		return err
	}
	existingByName := make(map[string]*discordgo.ApplicationCommand, len(existing))
	for _, cmd := range existing {
		if cmd == nil || cmd.Name == "" {
			continue
		}
		existingByName[cmd.Name] = cmd
	}
	for _, def := range defs {
		if err := c.upsertGuildSlashCommand(appID, guildID, def, existingByName); err != nil {
			return fmt.Errorf("upsert command %q: %w", def.Name, err)
		}
	}
	return nil
}

func (c *Client) upsertGuildSlashCommand(appID, guildID string, def discordpkg.SlashCommandDefinition, existingByName map[string]*discordgo.ApplicationCommand) error {
	if def.Name == "" {
		return nil
	}
	payload := &discordgo.ApplicationCommand{
		Name:        def.Name,
		Description: def.Description,
		Options:     commandOptions(def.Options),
	}
	cmd, ok := existingByName[def.Name]
	if !ok {
		_, err := c.session.ApplicationCommandCreate(appID, guildID, payload)
		return err
	}
	if cmd.Description == def.Description && sameOptions(cmd.Options, payload.Options) {
		return nil
	}
	_, err := c.session.ApplicationCommandEdit(appID, guildID, cmd.ID, payload)
	return err
}

func commandOptions(opts []discordpkg.CommandOption) []*discordgo.ApplicationCommandOption {
	if len(opts) == 0 {
		return nil
	}
	out := make([]*discordgo.ApplicationCommandOption, 0, len(opts))
	for _, o := range opts {
		opt := &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        o.Name,
			Description: o.Description,
			Required:    o.Required,
		}
		if o.Type == discordpkg.OptionInteger {
			opt.Type = discordgo.ApplicationCommandOptionInteger
		}
		for _, ch := range o.Choices {
			var value any = ch.Value
			if o.Type == discordpkg.OptionInteger {
				if n, err := strconv.ParseInt(ch.Value, 10, 64); err == nil {
					value = n
				}
			}
			opt.Choices = append(opt.Choices, &discordgo.ApplicationCommandOptionChoice{Name: ch.Name, Value: value})
		}
		out = append(out, opt)
	}
	return out
}

// sameOptions compares the option fields this client manages.
func sameOptions(a, b []*discordgo.ApplicationCommandOption) bool {
	return slices.EqualFunc(a, b, func(x, y *discordgo.ApplicationCommandOption) bool {
		if x == nil || y == nil {
			return x == y
		}
		return x.Type == y.Type &&
			x.Name == y.Name &&
			x.Description == y.Description &&
			x.Required == y.Required &&
			len(x.Choices) == len(y.Choices)
	})
}

func (c *Client) GetBotUserID() (string, error) {
	if c.botUserID != "" {
		return c.botUserID, nil
	}
	if c.session == nil {
		return "", fmt.Errorf("discord session is not initialized")
	}
	if c.session.State != nil && c.session.State.User != nil && c.session.State.User.ID != "" {
		c.botUserID = c.session.State.User.ID
		return c.botUserID, nil
	}
	u, err := c.session.User("@me")
	if err != nil {
		return "", err
	}
	c.botUserID = u.ID
	return c.botUserID, nil
}

func preferredDiscordName(globalName, username, fallback string) string {
	if globalName != "" {
		return globalName
	}
	if username != "" {
		return username
	}
	return fallback
}

func (c *Client) applicationID() string {
	if c.session == nil || c.session.State == nil {
		return ""
	}
	if c.session.State.Application != nil && c.session.State.Application.ID != "" {
		return c.session.State.Application.ID
	}
	if c.session.State.User != nil {
		return c.session.State.User.ID
	}
	return ""
}

func (c *Client) Run() error {
	select {}
}

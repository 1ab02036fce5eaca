package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/centlink/centlink/internal/config"
	"github.com/centlink/centlink/internal/lang"
)

// loginCommand is the slash command name. Kept as the name users of the
// original bot already know.
const loginCommand = "loggin"

// Discord is the discordgo-backed Gateway.
type Discord struct {
	cfg     config.DiscordConfig
	lang    *lang.Manager
	session *discordgo.Session
	handler LoginHandler
	ctx     context.Context
}

// NewDiscord creates a Discord gateway. Loc strings for the command
// definition come from the locale manager.
func NewDiscord(cfg config.DiscordConfig, l *lang.Manager) *Discord {
	return &Discord{cfg: cfg, lang: l}
}

// RegisterLogin installs the account-link handler. Must precede Open.
func (d *Discord) RegisterLogin(h LoginHandler) {
	d.handler = h
}

// Open connects the session and registers the login slash command on every
// configured guild.
func (d *Discord) Open(ctx context.Context) error {
	session, err := discordgo.New("Bot " + d.cfg.Token)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	d.ctx = ctx
	session.AddHandler(d.onInteraction)

	if err := session.Open(); err != nil {
		return fmt.Errorf("discord connect: %w", err)
	}
	d.session = session

	command := &discordgo.ApplicationCommand{
		Name:        loginCommand,
		Description: d.lang.Loc("loggin", "com_desc"),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "login",
				Description: d.lang.Loc("loggin", "arg_desc_login"),
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "password",
				Description: d.lang.Loc("loggin", "arg_desc_password"),
				Required:    true,
			},
		},
	}
	for _, guildID := range d.cfg.GuildIDs {
		if _, err := session.ApplicationCommandCreate(session.State.User.ID, guildID, command); err != nil {
			d.Close()
			return fmt.Errorf("register %s on guild %s: %w", loginCommand, guildID, err)
		}
	}

	slog.Info("Discord gateway ready", "user", session.State.User.Username, "guilds", len(d.cfg.GuildIDs))
	return nil
}

// Close disconnects the session.
func (d *Discord) Close() error {
	if d.session == nil {
		return nil
	}
	slog.Info("Discord gateway shutting down")
	return d.session.Close()
}

// Guilds returns every tracked guild with its full member list. Members are
// paged 1000 at a time, the gateway maximum.
func (d *Discord) Guilds(ctx context.Context) ([]Guild, error) {
	guildIDs := d.cfg.GuildIDs
	if len(guildIDs) == 0 {
		for _, g := range d.session.State.Guilds {
			guildIDs = append(guildIDs, g.ID)
		}
	}

	var guilds []Guild
	for _, guildID := range guildIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g := Guild{ID: guildID}
		if sg, err := d.session.State.Guild(guildID); err == nil {
			g.Name = sg.Name
		}
		after := ""
		for {
			page, err := d.session.GuildMembers(guildID, after, 1000)
			if err != nil {
				return nil, fmt.Errorf("list members of guild %s: %w", guildID, err)
			}
			for _, m := range page {
				g.Members = append(g.Members, Member{ID: m.User.ID, RoleIDs: m.Roles})
			}
			if len(page) < 1000 {
				break
			}
			after = page[len(page)-1].User.ID
		}
		guilds = append(guilds, g)
	}
	return guilds, nil
}

func (d *Discord) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != loginCommand || d.handler == nil {
		return
	}

	req := LoginRequest{CallerID: callerID(i)}
	for _, opt := range data.Options {
		switch opt.Name {
		case "login":
			req.Identifier = opt.StringValue()
		case "password":
			req.Secret = opt.StringValue()
		}
	}

	resp := &interactionResponder{session: s, interaction: i.Interaction}
	if err := d.handler(d.ctx, req, resp); err != nil {
		slog.Error("Login command failed", "caller", req.CallerID, "error", err)
		_ = resp.Reply(d.lang.Loc("loggin", "generic_error"), true)
	}
}

func callerID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// interactionResponder answers one interaction exactly once.
type interactionResponder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
	replied     bool
}

func (r *interactionResponder) Reply(text string, private bool) error {
	if r.replied {
		return nil
	}
	var flags discordgo.MessageFlags
	if private {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: text, Flags: flags},
	})
	if err == nil {
		r.replied = true
	}
	return err
}

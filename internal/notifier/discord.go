package notifier

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
	guildID   string
}

func NewDiscordNotifier(session *discordgo.Session, channelID, guildID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
		guildID:   guildID,
	}
}

func (n *DiscordNotifier) NotifyRegistrant(event Event) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	_, err := n.session.ChannelMessageSend(n.channelID, DiscordMessage(event))
	if err != nil {
		log.Error().Err(err).Str("channel_id", n.channelID).Msg("Failed to send discord message")
		return err
	}

	return nil
}

func DiscordMessage(event Event) string {
	status := "new registrant"
	if event.Updated {
		status = "registrant updated"
	}

	submitter := event.User.Username
	if event.User.DiscordID != "" {
		submitter = fmt.Sprintf("%s (<@%s>)", event.User.Username, event.User.DiscordID)
	}

	return fmt.Sprintf("📝 **Registration Update**\n**Submitted by:** %s\n**Status:** %s\n%s",
		submitter,
		status,
		Summary(event),
	)
}

// HasRole reports whether the guild member holds a role with the given name.
func (n *DiscordNotifier) HasRole(discordUserID, roleName string) (bool, error) {
	if n.session == nil {
		return false, fmt.Errorf("discord session is nil")
	}
	if n.guildID == "" {
		return false, fmt.Errorf("discord guild ID is empty")
	}

	member, err := n.session.GuildMember(n.guildID, discordUserID)
	if err != nil {
		return false, fmt.Errorf("get guild member: %w", err)
	}

	roles, err := n.session.GuildRoles(n.guildID)
	if err != nil {
		return false, fmt.Errorf("get guild roles: %w", err)
	}

	for _, role := range roles {
		if role.Name != roleName {
			continue
		}
		for _, id := range member.Roles {
			if id == role.ID {
				return true, nil
			}
		}
	}

	return false, nil
}

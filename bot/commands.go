package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

var (
	minStakeValue = float64(1)
	minOddsValue  = float64(1)
)

func adminSubcommand(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: description,
		Options:     options,
	}
}

func usernameOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "username",
		Description: "Registered username",
		Required:    true,
	}
}

// commandDefinitions returns every slash command the bot serves
func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "balance",
			Description: "Check your current balance",
		},
		{
			Name:        "history",
			Description: "Show bets from the last 24 hours",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "mine",
					Description: "Your own bets",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "all",
					Description: "Every player's bets (admins only)",
				},
			},
		},
		{
			Name:        "results",
			Description: "Show the latest round results",
		},
		{
			Name:        "roll",
			Description: "Roll one die for the current round (admins only)",
		},
		{
			Name:        "admin",
			Description: "Operate the game",
			Options: []*discordgo.ApplicationCommandOption{
				adminSubcommand("open", "Open betting and start a round"),
				adminSubcommand("stop", "Stop accepting bets"),
				adminSubcommand("limits", "Set the stake limits",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "min",
						Description: "Minimum stake per bet",
						Required:    true,
						MinValue:    &minStakeValue,
					},
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "max",
						Description: "Maximum stake per bet",
						Required:    true,
						MinValue:    &minStakeValue,
					},
				),
				adminSubcommand("odds", "Set a payout multiplier",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "name",
						Description: "Which odds to change",
						Required:    true,
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "daxiao (big/small/odd/even)", Value: "daxiao"},
							{Name: "hezhi (sum)", Value: "hezhi"},
							{Name: "baozi (triple)", Value: "baozi"},
						},
					},
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "value",
						Description: "Multiplier",
						Required:    true,
						MinValue:    &minOddsValue,
					},
				),
				adminSubcommand("chat", "Allow or forbid chatter in the game channel",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        "allow",
						Description: "Keep messages that are not game actions",
						Required:    true,
					},
				),
				adminSubcommand("grant", "Make a user an admin (super admin only)", usernameOption()),
				adminSubcommand("revoke", "Remove a user's admin role (super admin only)", usernameOption()),
				adminSubcommand("clear", "Set every balance to zero (super admin only)"),
				adminSubcommand("deduct", "Deduct from a user's balance", usernameOption(),
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "amount",
						Description: "Amount to deduct",
						Required:    true,
						MinValue:    &minStakeValue,
					},
				),
				adminSubcommand("media", "Set the image shown with results",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "kind",
						Description: "Shown when the round has winners or not",
						Required:    true,
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "win", Value: "win"},
							{Name: "lose", Value: "lose"},
						},
					},
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "url",
						Description: "Image or animation URL",
						Required:    true,
					},
				),
				adminSubcommand("settings", "Show the current game settings"),
				adminSubcommand("totals", "Show ledger totals"),
				adminSubcommand("lowbalances", "List players who are nearly out of funds"),
			},
		},
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	for _, cmd := range commandDefinitions() {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}
	return nil
}

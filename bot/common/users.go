package common

import (
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// AuthorName returns the best display name available on a message without an API call
func AuthorName(m *discordgo.Message) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}

// ParseUserID converts a Discord user ID string to int64
func ParseUserID(userID string) (int64, error) {
	return strconv.ParseInt(userID, 10, 64)
}

// FormatUserID converts an int64 user ID to string
func FormatUserID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// GetUserMention returns a Discord mention string for a user
func GetUserMention(userID int64) string {
	return "<@" + FormatUserID(userID) + ">"
}

// InteractionUser returns the invoking user for guild and DM interactions alike
func InteractionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// InteractionUserID returns the invoking user's ID string, or empty when unknown
func InteractionUserID(i *discordgo.InteractionCreate) string {
	if u := InteractionUser(i); u != nil {
		return u.ID
	}
	return ""
}

package common

import (
	"errors"
	"fmt"

	"sicbo/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// BotError represents a structured error with user-facing and internal messages
type BotError struct {
	UserMessage string // Message shown to Discord user
	LogMessage  string // Internal message for logging
	Ephemeral   bool   // Whether the error message should be ephemeral
	Err         error  // Underlying error
	Context     any    // Additional context for logging
}

// Error implements the error interface
func (e *BotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.LogMessage, e.Err)
	}
	return e.LogMessage
}

// Unwrap returns the underlying error
func (e *BotError) Unwrap() error {
	return e.Err
}

// IsUserError returns true when the error was caused by the user rather than the system
func (e *BotError) IsUserError() bool {
	return e.Err == nil || !errors.Is(e.Err, service.ErrIntegrity) && isClassified(e.Err)
}

// NewUserError creates an error for user-caused issues (validation, insufficient funds, etc)
func NewUserError(userMessage string, logMessage string) *BotError {
	return &BotError{
		UserMessage: userMessage,
		LogMessage:  logMessage,
		Ephemeral:   true,
	}
}

// NewSystemError creates an error for system issues (database, unexpected state, etc)
func NewSystemError(err error, logMessage string) *BotError {
	return &BotError{
		UserMessage: "Something went wrong. Please try again later.",
		LogMessage:  logMessage,
		Ephemeral:   true,
		Err:         err,
	}
}

// FromServiceError turns an engine error into a BotError with a player-facing message.
// Validation, conflict and funds errors become user errors; everything else is a system error.
func FromServiceError(err error, logMessage string) *BotError {
	var limitErr *service.LimitExceededError
	var stakeErr *service.StakeOutOfRangeError
	var fundsErr *service.InsufficientFundsError

	var msg string
	switch {
	case errors.As(err, &limitErr):
		msg = fmt.Sprintf("Too many %s bets this round (limit %d).", bucketLabel(limitErr.Bucket), limitErr.Ceiling)
	case errors.As(err, &stakeErr):
		msg = fmt.Sprintf("Each stake must be between %s and %s.", FormatBalance(stakeErr.Min), FormatBalance(stakeErr.Max))
	case errors.As(err, &fundsErr):
		msg = fmt.Sprintf("Insufficient balance: you have %s, this needs %s.", FormatBalance(fundsErr.Balance), FormatBalance(fundsErr.Required))
	case errors.Is(err, service.ErrUnregistered):
		msg = "You are not registered yet. Send any message in the game channel first."
	case errors.Is(err, service.ErrNotAuthorized):
		msg = "You do not have permission to do that."
	case errors.Is(err, service.ErrUserNotFound):
		msg = "That user was not found."
	case errors.Is(err, service.ErrInvalidAmount):
		msg = "Amount must be a positive number."
	case errors.Is(err, service.ErrInvalidSetting):
		msg = "That setting value is not valid."
	case errors.Is(err, service.ErrMalformedBet):
		msg = "Could not understand that bet. Try `big 1000` or `11 2000`."
	case errors.Is(err, service.ErrNoBetsFound):
		msg = "No bets found in that message."
	case errors.Is(err, service.ErrConflictingSides):
		msg = "You cannot bet on both big and small, or both odd and even, in one round."
	case errors.Is(err, service.ErrInvalidDieValue):
		msg = "Dice values must be between 1 and 6."
	case errors.Is(err, service.ErrDiceSymbolCount):
		msg = "Exactly three dice are required."
	case errors.Is(err, service.ErrNothingToCancel):
		msg = "You have no matching bets to cancel."
	case errors.Is(err, service.ErrBettingDisabled):
		msg = "Betting is currently closed."
	case errors.Is(err, service.ErrNoActiveRound):
		msg = "There is no active round."
	case errors.Is(err, service.ErrRoundClosed), errors.Is(err, service.ErrRoundNotOpen):
		msg = "This round is closed for betting."
	case errors.Is(err, service.ErrRoundAlreadyOpen):
		msg = "A round is already running or waiting for its result."
	case errors.Is(err, service.ErrDailyRoundLimit):
		msg = "Every round number for today is used up. Betting resumes tomorrow."
	case errors.Is(err, service.ErrAlreadySettled):
		msg = "This round has already been settled."
	case isClassified(err):
		msg = "That action is not possible right now."
	default:
		return NewSystemError(err, logMessage)
	}

	return &BotError{
		UserMessage: msg,
		LogMessage:  logMessage,
		Ephemeral:   true,
		Err:         err,
	}
}

func isClassified(err error) bool {
	return errors.Is(err, service.ErrValidation) ||
		errors.Is(err, service.ErrConflict) ||
		errors.Is(err, service.ErrInsufficientFunds)
}

// RespondWithError sends an error message as an interaction response
func RespondWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("❌ %s", message),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Errorf("Error sending error response: %v", err)
	}
}

// FollowUpWithError sends an error message as a follow-up to a deferred interaction
func FollowUpWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	_, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: fmt.Sprintf("❌ %s", message),
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Errorf("Error sending follow-up error message: %v", err)
	}
}

// HandleError processes an error from a slash command and responds appropriately
func HandleError(s *discordgo.Session, i *discordgo.InteractionCreate, err error, deferred bool) {
	botErr, ok := err.(*BotError)
	if !ok {
		botErr = FromServiceError(err, "Unexpected error in bot command")
	}

	fields := log.Fields{
		"user_id":      InteractionUserID(i),
		"command":      i.ApplicationCommandData().Name,
		"error":        botErr.Error(),
		"user_message": botErr.UserMessage,
		"context":      botErr.Context,
	}
	if botErr.IsUserError() {
		log.WithFields(fields).Debug(botErr.LogMessage)
	} else {
		log.WithFields(fields).Error(botErr.LogMessage)
	}

	if deferred {
		FollowUpWithError(s, i, botErr.UserMessage)
	} else {
		RespondWithError(s, i, botErr.UserMessage)
	}
}

// ReplyWithError answers a chat message with an error, logging system errors
func ReplyWithError(s *discordgo.Session, m *discordgo.MessageCreate, err error, logMessage string) {
	botErr, ok := err.(*BotError)
	if !ok {
		botErr = FromServiceError(err, logMessage)
	}

	fields := log.Fields{
		"user_id":    m.Author.ID,
		"channel_id": m.ChannelID,
		"message_id": m.ID,
		"error":      botErr.Error(),
	}
	if botErr.IsUserError() {
		log.WithFields(fields).Debug(botErr.LogMessage)
	} else {
		log.WithFields(fields).Error(botErr.LogMessage)
	}

	ReplyToMessage(s, m, fmt.Sprintf("❌ %s", botErr.UserMessage))
}

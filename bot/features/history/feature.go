package history

import (
	"context"
	"fmt"

	"sicbo/bot/common"
	"sicbo/models"
	"sicbo/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature answers balance, bet history and result queries
type Feature struct {
	ledger  service.LedgerService
	history service.HistoryService
}

// New creates a new history feature instance
func New(ledger service.LedgerService, history service.HistoryService) *Feature {
	return &Feature{
		ledger:  ledger,
		history: history,
	}
}

// HandleCommand routes /balance, /history and /results
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate, actor *models.User) {
	embed, err := f.buildForCommand(i, actor)
	if err != nil {
		common.HandleError(s, i, err, false)
		return
	}
	if err := common.RespondWithEmbed(s, i, embed, true); err != nil {
		log.Errorf("Error responding to %s command: %v", i.ApplicationCommandData().Name, err)
	}
}

func (f *Feature) buildForCommand(i *discordgo.InteractionCreate, actor *models.User) (*discordgo.MessageEmbed, error) {
	data := i.ApplicationCommandData()
	switch data.Name {
	case "balance":
		return f.balanceEmbed(actor)
	case "results":
		return f.resultsEmbed()
	case "history":
		if len(data.Options) > 0 && data.Options[0].Name == "all" {
			return f.allBetsEmbed(actor)
		}
		return f.myBetsEmbed(actor)
	}
	return nil, fmt.Errorf("unknown history command %q", data.Name)
}

// HandleShortcut answers the "1", "22" and "33" chat shortcuts
func (f *Feature) HandleShortcut(s *discordgo.Session, m *discordgo.MessageCreate, actor *models.User, shortcut string) {
	var embed *discordgo.MessageEmbed
	var err error
	switch shortcut {
	case "1":
		embed, err = f.balanceEmbed(actor)
	case "22":
		embed, err = f.myBetsEmbed(actor)
	case "33":
		embed, err = f.allBetsEmbed(actor)
	default:
		return
	}
	if err != nil {
		common.ReplyWithError(s, m, err, "Shortcut failed")
		return
	}
	common.ReplyWithEmbed(s, m, embed)
}

func (f *Feature) balanceEmbed(actor *models.User) (*discordgo.MessageEmbed, error) {
	balance, err := f.ledger.Balance(context.Background(), actor.DiscordID)
	if err != nil {
		return nil, err
	}
	return &discordgo.MessageEmbed{
		Title:       "💰 Balance",
		Description: fmt.Sprintf("%s, your balance is **%s**", actor.Username, common.FormatBalance(balance)),
		Color:       common.ColorPrimary,
	}, nil
}

func (f *Feature) myBetsEmbed(actor *models.User) (*discordgo.MessageEmbed, error) {
	bets, err := f.history.MyBets(context.Background(), actor.DiscordID)
	if err != nil {
		return nil, err
	}
	return buildMyBetsEmbed(actor.Username, bets), nil
}

func (f *Feature) allBetsEmbed(actor *models.User) (*discordgo.MessageEmbed, error) {
	if !actor.IsAdmin() {
		return nil, service.ErrNotAuthorized
	}
	bets, err := f.history.AllBets(context.Background())
	if err != nil {
		return nil, err
	}
	return buildAllBetsEmbed(bets), nil
}

func (f *Feature) resultsEmbed() (*discordgo.MessageEmbed, error) {
	rounds, err := f.history.LatestResults(context.Background())
	if err != nil {
		return nil, err
	}
	return buildResultsEmbed(rounds), nil
}

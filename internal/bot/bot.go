package bot

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/asaskevich/EventBus"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/job-digest/internal/domain/events"
	"github.com/maxaizer/job-digest/internal/reporting"
	log "github.com/sirupsen/logrus"
	"strings"
)

type reportRepository interface {
	Latest(ctx context.Context) ([]byte, error)
}

// Bot posts run results to one chat and answers /latest there.
type Bot struct {
	tg      *botApi.BotAPI
	api     apiInterface
	chatID  int64
	reports reportRepository
}

func NewBot(token string, chatID int64, bus EventBus.Bus, reports reportRepository) (*Bot, error) {

	api, err := botApi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Infof("Authorized on account %s", api.Self.UserName)

	err = botApi.SetLogger(log.StandardLogger())
	if err != nil {
		return nil, err
	}

	createdBot, err := newBot(api, chatID, bus, reports)
	if err != nil {
		return nil, err
	}
	createdBot.tg = api
	return createdBot, nil
}

func newBot(api apiInterface, chatID int64, bus EventBus.Bus, reports reportRepository) (*Bot, error) {
	if bus == nil {
		return nil, errors.New("bus is nil")
	}

	if reports == nil {
		return nil, errors.New("report repository is nil")
	}

	createdBot := &Bot{api: api, chatID: chatID, reports: reports}

	if err := bus.Subscribe(events.RunCompletedTopic, createdBot.onRunCompleted); err != nil {
		return nil, err
	}
	if err := bus.Subscribe(events.RunFailedTopic, createdBot.onRunFailed); err != nil {
		return nil, err
	}
	return createdBot, nil
}

// Run handles commands until ctx is done.
func (b *Bot) Run(ctx context.Context) {
	if b.tg == nil {
		return
	}

	updateConfig := botApi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := b.tg.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.tg.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Chat.ID != b.chatID {
				continue
			}
			b.handleCommand(ctx, update.Message.Command())
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, command string) {

	var response string

	switch command {
	case startCommandName:
		response = "Daily job digests will be posted here. Use /latest for the last report."
	case latestCommandName:
		response = b.latestReport(ctx)
	case "":
		return
	default:
		response = "Unknown command!"
	}

	_, _ = sendWithLogError(b.api, botApi.NewMessage(b.chatID, response))
}

func (b *Bot) latestReport(ctx context.Context) string {
	data, err := b.reports.Latest(ctx)
	if err != nil {
		log.Errorf("failed to load latest report: %v", err)
		return "Internal error!"
	}
	if data == nil {
		return "No report yet."
	}

	var dashboard reporting.Dashboard
	if err := json.Unmarshal(data, &dashboard); err != nil {
		log.Errorf("failed to decode latest report: %v", err)
		return "Internal error!"
	}
	return formatDashboard(dashboard)
}

func (b *Bot) onRunCompleted(event events.RunCompleted) {
	_, _ = sendWithLogError(b.api, botApi.NewMessage(b.chatID, formatReport(event.Report)))
}

func (b *Bot) onRunFailed(event events.RunFailed) {
	text := strings.Join([]string{"Job digest run " + event.RunID + " failed during " + event.Stage, event.Error}, "\n")
	_, _ = sendWithLogError(b.api, botApi.NewMessage(b.chatID, text))
}

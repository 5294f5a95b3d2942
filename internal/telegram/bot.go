package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TriggerHandler procesa un evento /start entrante.
type TriggerHandler func(ctx context.Context, trigger Trigger)

// Bot consume updates de la API de Telegram por long polling y envía
// los códigos de acceso. Implementa Sender.
type Bot struct {
	logger      *zap.Logger
	token       string
	pollTimeout int
	handler     TriggerHandler
	recon       *Reconnector
	api         *tgbotapi.BotAPI
}

func NewBot(logger *zap.Logger, token string, pollTimeout int, handler TriggerHandler) *Bot {
	if pollTimeout <= 0 {
		pollTimeout = 30
	}
	return &Bot{
		logger:      logger,
		token:       token,
		pollTimeout: pollTimeout,
		handler:     handler,
		recon:       NewReconnector(5*time.Second, 30*time.Second),
	}
}

// Run sostiene el ciclo de polling hasta que el contexto se cancele.
// Las fallas de red pasan por la máquina de estados de reconexión.
func (b *Bot) Run(ctx context.Context) error {
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if b.recon.State() != Connected {
			b.recon.Connecting()
			api, err := tgbotapi.NewBotAPI(b.token)
			if err != nil {
				delay := b.recon.Failed()
				b.logger.Warn("telegram connect failed",
					zap.Error(err),
					zap.Duration("retry_in", delay),
				)
				if err := sleepCtx(ctx, delay); err != nil {
					return err
				}
				continue
			}
			b.api = api
			b.recon.Connected()
			b.logger.Info("telegram bot connected", zap.String("username", api.Self.UserName))
		}

		cfg := tgbotapi.NewUpdate(offset)
		cfg.Timeout = b.pollTimeout
		updates, err := b.api.GetUpdates(cfg)
		if err != nil {
			delay := b.recon.Failed()
			b.logger.Warn("telegram polling failed",
				zap.Error(err),
				zap.Duration("retry_in", delay),
			)
			if err := sleepCtx(ctx, delay); err != nil {
				return err
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			msg := update.Message
			if msg == nil || msg.From == nil || !msg.IsCommand() || msg.Command() != "start" {
				continue
			}
			b.handler(ctx, Trigger{
				TelegramID: msg.From.ID,
				ChatID:     msg.Chat.ID,
				Username:   msg.From.UserName,
				FirstName:  msg.From.FirstName,
			})
		}
	}
}

// SendCode entrega el código de acceso con sus instrucciones.
func (b *Bot) SendCode(_ context.Context, chatID int64, code string, displayName string, _ time.Time) error {
	if b.api == nil {
		return errors.New("telegram bot not connected")
	}

	out := tgbotapi.NewMessage(chatID, codeMessage(code, displayName))
	out.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(out)
	return err
}

// codeMessage arma el mensaje HTML del código. El nombre viene del usuario
// y se escapa para no romper el parse mode.
func codeMessage(code, displayName string) string {
	lines := []string{
		"🛍 <b>Parkent Market ga xush kelibsiz!</b>",
		"",
		"Sizning kirish kodingiz:",
		fmt.Sprintf("<code>%s</code>", code),
		"",
		"⏰ <i>Kod 5 daqiqa ichida amal qiladi.</i>",
		"📱 <i>Ushbu kodni nusxalab, saytga kiriting.</i>",
	}
	if displayName != "" {
		lines = append(lines, "", fmt.Sprintf("👤 Foydalanuvchi: <b>%s</b>", html.EscapeString(displayName)))
	}
	lines = append(lines,
		"──────────────",
		`🌐 <a href="https://t.me/parkent_markent">t.me/parkent_markent</a>`,
	)
	return strings.Join(lines, "\n")
}

// SendFailure avisa al usuario que la emisión del código falló.
func (b *Bot) SendFailure(_ context.Context, chatID int64) error {
	if b.api == nil {
		return errors.New("telegram bot not connected")
	}
	out := tgbotapi.NewMessage(chatID, "❌ Xatolik yuz berdi. Iltimos, qaytadan urinib ko'ring.")
	_, err := b.api.Send(out)
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

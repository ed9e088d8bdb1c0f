package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/flexipay/wallet-service/pkg/log"
)

// TelegramNotifier delivers user and admin messages through a Telegram bot.
// The bot here only sends; it never polls for updates.
type TelegramNotifier struct {
	bot          *bot.Bot
	adminChatIDs []int64
	logger       *zerolog.Logger
}

func NewTelegramNotifier(token string, adminChatIDs []int64) (*TelegramNotifier, error) {
	l := log.GetLogger()
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &TelegramNotifier{
		bot:          b,
		adminChatIDs: adminChatIDs,
		logger:       &l,
	}, nil
}

func (n *TelegramNotifier) NotifyUser(ctx context.Context, userID int64, text string) {
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: userID,
		Text:   text,
	})
	if err != nil {
		n.logger.Warn().Err(err).Int64("user_id", userID).Msg("Failed to notify user")
	}
}

func (n *TelegramNotifier) NotifyAdminWithdrawal(ctx context.Context, txID, userID int64, firstName string, net decimal.Decimal, pixKey string) {
	if len(n.adminChatIDs) == 0 {
		n.logger.Warn().Int64("tx_id", txID).Msg("No admins configured for withdrawal notification")
		return
	}

	text := fmt.Sprintf(
		"New withdrawal request pending review:\n\nUser: %s (%d)\nTransaction: %d\nNet payable: %s\nPix key: %s",
		firstName, userID, txID, net.StringFixed(2), pixKey,
	)
	for _, chatID := range n.adminChatIDs {
		_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   text,
		})
		if err != nil {
			n.logger.Warn().Err(err).Int64("admin_id", chatID).Int64("tx_id", txID).Msg("Failed to notify admin")
		}
	}
}

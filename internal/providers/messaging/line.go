package messaging

import (
	"context"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

type LineReplier struct {
	bot *linebot.Client
}

func NewLineReplier(bot *linebot.Client) *LineReplier {
	return &LineReplier{bot: bot}
}

func (r *LineReplier) ReplyText(ctx context.Context, replyToken, text string) error {
	_, err := r.bot.ReplyMessage(replyToken, linebot.NewTextMessage(text)).WithContext(ctx).Do()
	return err
}

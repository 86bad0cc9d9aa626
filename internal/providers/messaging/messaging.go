package messaging

import "context"

type Replier interface {
	// ReplyText delivers a text answer to the end user via the platform's
	// reply endpoint. Reply tokens are single-use and short-lived.
	ReplyText(ctx context.Context, replyToken, text string) error
}

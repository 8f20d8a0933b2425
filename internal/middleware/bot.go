package middleware

import (
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const botFailureText = "Something went wrong. Please try again later."

// BotLogger logs failed bot updates and tells the user about them
func BotLogger(logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender() == nil {
				return nil
			}

			err := next(c)
			if err != nil {
				logger.Error("Bot update failed",
					zap.Int64("user_id", c.Sender().ID),
					zap.String("text", c.Text()),
					zap.Error(err))
				if c.Callback() != nil {
					_ = c.Respond(&tele.CallbackResponse{Text: botFailureText})
					return nil
				}
				return c.Send(botFailureText)
			}
			return nil
		}
	}
}

package bot

import (
	"box-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

// лимит телеграма на подпись к фото
const captionLimit = 1024

// renderReply собирает сообщения телеграма из ответа движка.
// Фото с длинным текстом уходит двумя сообщениями: сначала фото,
// потом текст с клавиатурой.
func renderReply(chatID int64, reply *models.Reply) []tgbotapi.Chattable {
	markup := replyMarkup(reply)

	if reply.PhotoLink == "" {
		msg := tgbotapi.NewMessage(chatID, reply.Text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.ReplyMarkup = markup
		return []tgbotapi.Chattable{msg}
	}

	if len(reply.Text) <= captionLimit {
		photo := tgbotapi.NewPhotoShare(chatID, reply.PhotoLink)
		photo.Caption = reply.Text
		photo.ParseMode = tgbotapi.ModeMarkdown
		photo.ReplyMarkup = markup
		return []tgbotapi.Chattable{photo}
	}

	photo := tgbotapi.NewPhotoShare(chatID, reply.PhotoLink)
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = markup
	return []tgbotapi.Chattable{photo, msg}
}

func replyMarkup(reply *models.Reply) interface{} {
	if len(reply.Options) > 0 {
		return buildReplyKeyboard(reply.Options)
	}
	if reply.RemoveKeyboard {
		return tgbotapi.NewRemoveKeyboard(true)
	}
	return nil
}

// buildReplyKeyboard клавиатура быстрых ответов, по кнопке в ряд
func buildReplyKeyboard(options []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for _, option := range options {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(option)))
	}
	return tgbotapi.NewReplyKeyboard(rows...)
}

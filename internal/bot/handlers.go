package bot

import (
	"context"
	"fmt"
	"io"
	"strings"

	"box-bot/internal/models"
	"box-bot/internal/service/registration"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"go.uber.org/zap"
)

// handleUpdate обрабатывает одно обновление. Мьютекс чата держится на всю
// обработку: два сообщения одного пользователя не гоняются за curr_field.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.EditedMessage != nil {
		b.handleEdited(ctx, update.EditedMessage)
		return
	}
	if update.Message == nil {
		return
	}

	message := update.Message
	chatID := message.Chat.ID

	lock := b.acquireChat(chatID)
	defer b.releaseChat(chatID, lock)

	in, err := b.buildInbound(message)
	if err != nil {
		b.logger.Error("build inbound", zap.Int64("chat_id", chatID), zap.Error(err))
		b.send(ctx, chatID, b.registration.ErrorReply(ctx))
		return
	}

	var reply *models.Reply
	if message.IsCommand() {
		cmd := registration.ClassifyCommand(message.Command())
		reply, err = b.registration.HandleCommand(ctx, in, cmd)
	} else {
		reply, err = b.registration.HandleMessage(ctx, in)
	}
	if err != nil {
		b.logger.Error("handle message", zap.Int64("chat_id", chatID), zap.Error(err))
		b.send(ctx, chatID, b.registration.ErrorReply(ctx))
		return
	}

	b.send(ctx, chatID, reply)
}

func (b *Bot) handleEdited(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	reply, err := b.registration.HandleEdited(ctx, chatID)
	if err != nil {
		b.logger.Error("handle edited", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	b.send(ctx, chatID, reply)
}

// buildInbound переводит сообщение телеграма в транспортно-независимый вид;
// байты вложения скачиваются сразу
func (b *Bot) buildInbound(message *tgbotapi.Message) (models.Inbound, error) {
	in := models.Inbound{
		ChatID:   message.Chat.ID,
		Username: message.From.UserName,
		Kind:     models.PayloadText,
		Text:     message.Text,
	}

	fileID := attachmentFileID(message)
	if fileID == "" {
		if in.Text == "" {
			// стикер, голосовое, видео и т.п. - ответом не считается
			in.Kind = models.PayloadUnsupported
		}
		return in, nil
	}

	data, err := b.downloadFile(fileID)
	if err != nil {
		return in, fmt.Errorf("download attachment: %w", err)
	}
	in.Kind = models.PayloadAttachment
	in.Text = ""
	in.Data = data
	return in, nil
}

// attachmentFileID file_id документа или самого крупного фото
func attachmentFileID(message *tgbotapi.Message) string {
	if message.Document != nil {
		return message.Document.FileID
	}
	if message.Photo != nil && len(*message.Photo) > 0 {
		sizes := *message.Photo
		return sizes[len(sizes)-1].FileID
	}
	return ""
}

func (b *Bot) downloadFile(fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}
	resp, err := b.files.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("file download status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// send отправляет ответ пользователю; ошибка доставки с пометкой о
// блокировке бота выставляет have_banned_bot
func (b *Bot) send(ctx context.Context, chatID int64, reply *models.Reply) {
	if reply == nil || (reply.Text == "" && reply.PhotoLink == "") {
		return
	}

	for _, msg := range renderReply(chatID, reply) {
		if _, err := b.api.Send(msg); err != nil {
			b.logger.Error("send reply", zap.Int64("chat_id", chatID), zap.Error(err))
			if strings.Contains(err.Error(), "blocked by the user") {
				if banErr := b.registration.SetBannedBot(ctx, chatID, true); banErr != nil {
					b.logger.Error("set banned flag", zap.Int64("chat_id", chatID), zap.Error(banErr))
				}
			}
			return
		}
	}
}

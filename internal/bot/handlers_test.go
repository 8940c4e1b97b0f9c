package bot

import (
	"testing"

	"box-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage() *tgbotapi.Message {
	return &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 100},
		From: &tgbotapi.User{UserName: "tester"},
	}
}

func TestBuildInboundText(t *testing.T) {
	b := &Bot{}
	msg := testMessage()
	msg.Text = "Иванов Иван"

	in, err := b.buildInbound(msg)
	require.NoError(t, err)
	assert.Equal(t, models.PayloadText, in.Kind)
	assert.Equal(t, "Иванов Иван", in.Text)
	assert.Equal(t, int64(100), in.ChatID)
	assert.Equal(t, "tester", in.Username)
}

// Стикер не документ и не фото: такой апдейт не должен превращаться
// в пустой текстовый ответ
func TestBuildInboundSticker(t *testing.T) {
	b := &Bot{}
	msg := testMessage()
	msg.Sticker = &tgbotapi.Sticker{FileID: "sticker-id"}

	in, err := b.buildInbound(msg)
	require.NoError(t, err)
	assert.Equal(t, models.PayloadUnsupported, in.Kind)
	assert.Empty(t, in.Text)
	assert.Nil(t, in.Data)
}

func TestBuildInboundVoice(t *testing.T) {
	b := &Bot{}
	msg := testMessage()
	msg.Voice = &tgbotapi.Voice{FileID: "voice-id"}

	in, err := b.buildInbound(msg)
	require.NoError(t, err)
	assert.Equal(t, models.PayloadUnsupported, in.Kind)
}

func TestAttachmentFileID(t *testing.T) {
	assert.Empty(t, attachmentFileID(testMessage()))

	withDoc := testMessage()
	withDoc.Document = &tgbotapi.Document{FileID: "doc-id"}
	assert.Equal(t, "doc-id", attachmentFileID(withDoc))

	// у фото берётся самый крупный размер, он последний в списке
	sizes := []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "big"}}
	withPhoto := testMessage()
	withPhoto.Photo = &sizes
	assert.Equal(t, "big", attachmentFileID(withPhoto))
}

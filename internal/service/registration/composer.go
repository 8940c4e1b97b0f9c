package registration

import (
	"fmt"
	"strings"

	"box-bot/internal/models"
)

// templatePlaceholder место подстановки текущего вопроса в шаблонах настроек
const templatePlaceholder = "{template}"

// PromptReply приглашение ответить на поле: текст вопроса плюс клавиатура
// вариантов ответа, если они заданы
func PromptReply(field *models.Field) *models.Reply {
	return &models.Reply{
		Text:    field.QuestionMarkdown,
		Options: answerOptions(field),
	}
}

// TemplatedPromptReply то же, но вопрос завёрнут в шаблон из настроек
// (start_template, help_user_template и т.п.)
func TemplatedPromptReply(template string, field *models.Field) *models.Reply {
	return &models.Reply{
		Text:    RenderTemplate(template, field.QuestionMarkdown),
		Options: answerOptions(field),
	}
}

// CompletionReply сообщение о завершении ветки плюс клавиатура
// зарегистрированного пользователя
func CompletionReply(text string, keys []models.KeyboardKey) *models.Reply {
	return &models.Reply{
		Text:           text,
		Options:        keyboardOptions(keys),
		RemoveKeyboard: len(keys) == 0,
	}
}

// RenderTemplate подставляет вопрос в шаблон; шаблон без плейсхолдера
// возвращается как есть
func RenderTemplate(template, question string) string {
	return strings.ReplaceAll(template, templatePlaceholder, question)
}

// UserRecordReply запись пользователя для кнопки "обо мне"
func UserRecordReply(values []models.UserFieldData, keys []models.KeyboardKey) *models.Reply {
	lines := make([]string, 0, len(values))
	for _, v := range values {
		lines = append(lines, fmt.Sprintf("*%s*: %s", v.FieldKey, v.Value))
	}
	return &models.Reply{
		Text:    strings.Join(lines, "\n"),
		Options: keyboardOptions(keys),
	}
}

// answerOptions варианты ответа поля, по одному на строку
func answerOptions(field *models.Field) []string {
	if !field.AnswerOptions.Valid {
		return nil
	}
	var options []string
	for _, line := range strings.Split(field.AnswerOptions.String, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			options = append(options, line)
		}
	}
	return options
}

func keyboardOptions(keys []models.KeyboardKey) []string {
	options := make([]string, 0, len(keys))
	for _, k := range keys {
		options = append(options, k.Key)
	}
	return options
}

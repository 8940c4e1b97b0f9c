package registration

import (
	"strings"

	"box-bot/internal/models"

	"github.com/gabriel-vasile/mimetype"
)

// RejectReason причина отклонения ответа, пользователю переспрашивается
// тот же вопрос
type RejectReason string

const (
	RejectExpectedAttachment RejectReason = "expected attachment"
	RejectExpectedText       RejectReason = "expected text"
	RejectUnsupported        RejectReason = "unsupported payload"
)

// Rejection несовпадение вида ответа с ожиданием поля
type Rejection struct {
	Reason RejectReason
}

// экранирование под legacy-Markdown телеграма, чтобы сохранённый текст
// отображался так же, как был принят
var markdownEscaper = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
)

// Classify проверяет ответ против ожидаемого вида поля и строит сохраняемое
// значение. Чистая функция: docStem (основа имени файла документа) приходит
// снаружи. Для вложений значение - "<stem><.ext>" с расширением по
// содержимому файла.
func Classify(field *models.Field, in models.Inbound, docStem string) (string, *Rejection) {
	switch in.Kind {
	case models.PayloadText:
		if field.ExpectsDocument() {
			return "", &Rejection{Reason: RejectExpectedAttachment}
		}
		return markdownEscaper.Replace(in.Text), nil

	case models.PayloadAttachment:
		if !field.ExpectsDocument() {
			return "", &Rejection{Reason: RejectExpectedText}
		}
		// mimetype.Detect не ошибается - неизвестное содержимое
		// даёт application/octet-stream с пустым расширением
		ext := mimetype.Detect(in.Data).Extension()
		return docStem + ext, nil

	default:
		return "", &Rejection{Reason: RejectUnsupported}
	}
}

// SniffContentType content-type вложения для выгрузки в хранилище
func SniffContentType(data []byte) string {
	return mimetype.Detect(data).String()
}

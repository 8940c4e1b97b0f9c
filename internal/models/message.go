package models

// PayloadKind вид входящего сообщения
type PayloadKind string

const (
	PayloadText       PayloadKind = "text"
	PayloadAttachment PayloadKind = "attachment"
	// PayloadUnsupported стикеры, голосовые и прочие виды сообщений,
	// которые не принимаются в качестве ответа
	PayloadUnsupported PayloadKind = "unsupported"
)

// Inbound входящее сообщение пользователя, уже отвязанное от транспорта
type Inbound struct {
	ChatID   int64
	Username string
	Kind     PayloadKind
	Text     string
	Data     []byte // байты вложения, только для PayloadAttachment
}

// Command классифицированная команда пользователя
type Command string

const (
	CommandStart   Command = "start"
	CommandHelp    Command = "help"
	CommandUnknown Command = "unknown"
)

// Reply ответ бота, рендерится транспортом.
// Options - кнопки быстрых ответов, по одной в ряд.
// PhotoLink - ссылка или file_id фото, Text тогда идёт подписью
// (слишком длинная подпись отправляется отдельным сообщением).
type Reply struct {
	Text           string
	Options        []string
	RemoveKeyboard bool
	PhotoLink      string
}

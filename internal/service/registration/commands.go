package registration

import (
	"strings"

	"box-bot/internal/models"
)

// ClassifyCommand сводит суффикс команды к закрытому набору вариантов,
// дальше диспетчеризация идёт по таблице, а не по разбросанным условиям
func ClassifyCommand(command string) models.Command {
	switch strings.ToLower(command) {
	case "start":
		return models.CommandStart
	case "help":
		return models.CommandHelp
	default:
		return models.CommandUnknown
	}
}

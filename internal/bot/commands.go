package bot

import (
	"strings"

	"github.com/utyara3/TimeTracker/internal/config"
	"github.com/utyara3/TimeTracker/internal/discord"
)

const (
	commandStart   = "start"
	commandHelp    = "help"
	commandFix     = "fix"
	commandStats   = "stats"
	commandHistory = "history"
	commandPredict = "predict"
	commandTags    = "tags"
	commandTag     = "tag"
	commandCancel  = "cancel"

	optionTag  = "tag"
	optionArgs = "args"
	optionDate = "date"
	optionText = "text"
)

func reservedCommand(name string) bool {
	switch name {
	case commandStart, commandHelp, commandFix, commandStats, commandHistory,
		commandPredict, commandTags, commandTag, commandCancel:
		return true
	}
	return false
}

// SlashCommandDefinitions returns the fixed commands followed by one switch
// command per vocabulary state. States named like a fixed command are only
// reachable through /fix.
func SlashCommandDefinitions(vocab config.Vocabulary) []discord.SlashCommandDefinition {
	dateOption := discord.CommandOption{
		Name:        optionDate,
		Description: "День в формате ГГГГ-ММ-ДД, по умолчанию сегодня",
		Type:        discord.OptionString,
	}
	defs := []discord.SlashCommandDefinition{
		{Name: commandStart, Description: "Начать работу с ботом"},
		{Name: commandHelp, Description: "Список состояний и команд"},
		{
			Name:        commandFix,
			Description: "Исправить пропущенную смену состояния",
			Options: []discord.CommandOption{{
				Name:        optionArgs,
				Description: "Время, состояние и тег: 1h30m study математика или 14:30 work",
				Type:        discord.OptionString,
				Required:    true,
			}},
		},
		{Name: commandStats, Description: "Статистика за день", Options: []discord.CommandOption{dateOption}},
		{Name: commandHistory, Description: "История за день", Options: []discord.CommandOption{dateOption}},
		{Name: commandPredict, Description: "Прогноз следующего состояния"},
		{Name: commandTags, Description: "Ваши самые частые теги"},
		{
			Name:        commandTag,
			Description: "Задать тег выбранному состоянию",
			Options: []discord.CommandOption{{
				Name:        optionText,
				Description: "Новый тег",
				Type:        discord.OptionString,
				Required:    true,
			}},
		},
		{Name: commandCancel, Description: "Отменить ожидающий ввод"},
	}
	for _, s := range vocab.States {
		if reservedCommand(s.Name) {
			continue
		}
		label := s.Label
		if label == "" {
			label = s.Name
		}
		defs = append(defs, discord.SlashCommandDefinition{
			Name:        s.Name,
			Description: strings.TrimSpace(s.Emoji + " " + label),
			Options: []discord.CommandOption{{
				Name:        optionTag,
				Description: "Необязательный тег",
				Type:        discord.OptionString,
			}},
		})
	}
	return defs
}

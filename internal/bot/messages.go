package bot

import (
	"errors"

	"github.com/utyara3/TimeTracker/internal/tracker"
)

const (
	messageStart = "👋 **Привет! Это бот для трекинга времени.**\n\n" +
		"📊 Переключайся между состояниями командами вроде /work, /study, /sleep.\n" +
		"🔎 Полный список состояний и команд: /help"
	messageHelpTitle = "ℹ️ **Помощь по командам:**"
	messageHelpTail  = "🛠 `/fix 1h30m study тег` — исправить пропущенную смену состояния\n" +
		"📊 /stats — статистика за день\n" +
		"🗂 /history — история за день\n" +
		"🔮 /predict — прогноз следующего состояния\n" +
		"🏷️ /tags — ваши частые теги\n" +
		"❌ /cancel — отменить ввод"

	messageRateTitle     = "⭐ **Оцените прошлое состояние:**"
	messageRated         = "⭐ **Оценка сохранена!**"
	messageMoodUpdated   = "⭐ **Настроение обновлено!**"
	messageStateRenamed  = "✏️ **Состояние переименовано!**"
	messageTagUpdated    = "🏷️ **Тег обновлён!**"
	messageTagCleared    = "🏷️ **Тег удалён.**"
	messageEnterTag      = "🏷️ Отправьте новый тег командой `/tag текст` или /cancel для отмены."
	messageChooseState   = "✏️ **Выберите новое состояние:**"
	messageChooseMood    = "⭐ **Выберите настроение:**"
	messageCancelled     = "❌ **Действия были отменены.**"
	messageNothingCancel = "ℹ️ Нечего отменять."
	messageNoTags        = "❌ **У вас пока что нет тегов.**\n\nТег можно указать после состояния: `/work tag:проект`"
	messageUnknownAction = ":warning: **Неизвестное действие.**"

	messageErrUnknownUser    = ":warning: **Сначала выполните /start.**"
	messageErrUnknownState   = ":warning: **Неизвестное состояние.** Список состояний: /help"
	messageErrInvalidMood    = ":warning: **Оценка должна быть от 1 до 5.**"
	messageErrMissingArgs    = ":warning: **Неверные аргументы.** Пример: `/fix 1h30m study математика`"
	messageErrInvalidTime    = ":warning: **Указанное время выходит за пределы текущего состояния.**"
	messageErrNoOpenSession  = ":warning: **Сейчас нет активного состояния.**"
	messageErrSessionOpen    = ":warning: **Состояние ещё не завершено.**"
	messageErrAuthorization  = ":warning: **Это не ваше состояние.**"
	messageErrInsufficient   = ":warning: **Недостаточно данных для прогноза.** Нужна активность больше чем за 7 дней."
	messageErrNoSessions     = "📭 **За этот день нет состояний.**"
	messageErrNoPendingEdit  = ":warning: **Нет ожидающего изменения.** Выберите состояние в /history."
	messageErrStore          = ":warning: **Не удалось сохранить изменения, попробуйте позже.**"
	messageErrUnexpected     = ":warning: **Что-то пошло не так.**"
	messageErrInvalidDate    = ":warning: **Дата должна быть в формате ГГГГ-ММ-ДД.**"
	messageErrUnknownCommand = ":warning: **Неизвестная команда.**"
	messageErrUnreadableUser = ":warning: **Не удалось определить пользователя.**"
	messageErrWrongGuild     = ":warning: **На этом сервере бот недоступен.**"
)

var errorMessages = []struct {
	err     error
	message string
}{
	{tracker.ErrUnknownUser, messageErrUnknownUser},
	{tracker.ErrUnknownState, messageErrUnknownState},
	{tracker.ErrInvalidMood, messageErrInvalidMood},
	{tracker.ErrMissingArguments, messageErrMissingArgs},
	{tracker.ErrInvalidTimeRange, messageErrInvalidTime},
	{tracker.ErrNoOpenSession, messageErrNoOpenSession},
	{tracker.ErrSessionOpen, messageErrSessionOpen},
	{tracker.ErrAuthorization, messageErrAuthorization},
	{tracker.ErrInsufficientHistory, messageErrInsufficient},
	{tracker.ErrNoSessions, messageErrNoSessions},
	{tracker.ErrNoPendingEdit, messageErrNoPendingEdit},
	{tracker.ErrStore, messageErrStore},
}

func errorMessage(err error) string {
	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			return m.message
		}
	}
	return messageErrUnexpected
}

package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/utyara3/TimeTracker/internal/analytics"
	"github.com/utyara3/TimeTracker/internal/config"
	"github.com/utyara3/TimeTracker/internal/discord"
	"github.com/utyara3/TimeTracker/internal/repository"
	"github.com/utyara3/TimeTracker/internal/tracker"
)

const (
	displayDateLayout = "02/01/2006"
	clockLayout       = "15:04"
	maxButtonsPerRow  = 5
	maxButtonRows     = 5
)

func formatHelp(vocab config.Vocabulary) string {
	var b strings.Builder
	b.WriteString(messageHelpTitle)
	b.WriteString("\n")
	for _, s := range vocab.States {
		fmt.Fprintf(&b, "%s `/%s` — %s\n", vocab.Emoji(s.Name), s.Name, s.Label)
	}
	b.WriteString("\n")
	b.WriteString(messageHelpTail)
	return b.String()
}

func formatTransition(tr *tracker.Transition) string {
	var b strings.Builder
	b.WriteString("✨ **Смена состояния успешна!**\n\n")
	if tr.HasPrevious() {
		fmt.Fprintf(&b, "▫️ **Было:** %s\n", stateWithTag(tr.PreviousState, tr.PreviousTag))
	} else {
		fmt.Fprintf(&b, "▫️ **Было:** %s\n", analytics.NoData)
	}
	fmt.Fprintf(&b, "▫️ **Стало:** %s\n", stateWithTag(tr.NewState, tr.NewTag))
	if tr.HasPrevious() {
		fmt.Fprintf(&b, "\n🕐 **Интервал:** *%s*", analytics.FormatDuration(tr.PreviousSeconds))
	}
	return b.String()
}

func formatCorrection(c *tracker.Correction, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("🛠 **Состояние исправлено!**\n\n")
	fmt.Fprintf(&b, "▫️ `%s` %s–%s (%s)\n",
		c.HeadState,
		c.HeadStartTime.In(loc).Format(clockLayout),
		c.Boundary.In(loc).Format(clockLayout),
		analytics.FormatDuration(c.HeadSeconds))
	fmt.Fprintf(&b, "▫️ %s с %s", stateWithTag(c.NewState, c.NewTag), c.Boundary.In(loc).Format(clockLayout))
	return b.String()
}

func stateWithTag(state, tag string) string {
	if tag == "" {
		return fmt.Sprintf("`%s`", state)
	}
	return fmt.Sprintf("`%s` `%s`", state, tag)
}

func formatDayReport(vocab config.Vocabulary, r *analytics.DayReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 **Статистика за %s**\n\n", r.Day.Start.Format(displayDateLayout))

	status := "завершено"
	if r.CurrentOpen {
		status = "идёт"
	}
	fmt.Fprintf(&b, "%s **Последнее:** %s — %s (%s)\n",
		vocab.Emoji(r.CurrentState), stateWithTag(r.CurrentState, r.CurrentTag),
		analytics.FormatDuration(r.CurrentSeconds), status)
	fmt.Fprintf(&b, "🔢 **Состояний:** %d\n", r.SessionCount)
	fmt.Fprintf(&b, "🔗 %s\n", r.ChronologyString())

	if len(r.Shares) > 0 {
		b.WriteString("\n**Распределение:**\n")
		for _, s := range r.Shares {
			fmt.Fprintf(&b, "%s `%s` — %s (%.1f%%)\n", vocab.Emoji(s.State), s.State, analytics.FormatDuration(s.Seconds), s.Percent)
		}
	}

	b.WriteString("\n**Рекорды:**\n")
	fmt.Fprintf(&b, "⏫ Больше всего: %s (%s)\n", r.LongestTotal.Name(), r.LongestTotal.Duration())
	fmt.Fprintf(&b, "⏬ Меньше всего: %s (%s)\n", r.ShortestTotal.Name(), r.ShortestTotal.Duration())
	fmt.Fprintf(&b, "🏆 Самое длинное: %s (%s)\n", r.LongestSession.Name(), r.LongestSession.Duration())
	fmt.Fprintf(&b, "🐜 Самое короткое: %s (%s)\n", r.ShortestSession.Name(), r.ShortestSession.Duration())
	fmt.Fprintf(&b, "\n⚡ **Продуктивность:** %d%%\n", r.Productivity)
	fmt.Fprintf(&b, "⏱️ **Средняя длина:** %s", r.AverageSession())
	return b.String()
}

func formatHistory(vocab config.Vocabulary, sessions []repository.Session, day time.Time, now time.Time, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🗂 **История за %s:**\n\n", day.In(loc).Format(displayDateLayout))
	for i, s := range sessions {
		end := "…"
		if s.EndTime != nil {
			end = s.EndTime.In(loc).Format(clockLayout)
		}
		fmt.Fprintf(&b, "%d. %s **%s** %s–%s", i+1, vocab.Emoji(s.StateName), s.StateName, s.StartTime.In(loc).Format(clockLayout), end)
		if s.IsOpen() {
			fmt.Fprintf(&b, " ⏳ Активно (%s)\n", analytics.FormatDuration(s.Seconds(now)))
		} else {
			fmt.Fprintf(&b, " ⏱️ %s | %s\n", analytics.FormatDuration(s.Seconds(now)), formatMood(s.Mood))
		}
		if s.Tag != "" {
			fmt.Fprintf(&b, "    🏷️ %s\n", s.Tag)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSession(vocab config.Vocabulary, s *repository.Session, now time.Time, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s **%s**\n\n", vocab.Emoji(s.StateName), s.StateName)
	fmt.Fprintf(&b, "🕐 **Начало:** %s\n", s.StartTime.In(loc).Format(time.DateTime))
	if s.EndTime != nil {
		fmt.Fprintf(&b, "🕔 **Конец:** %s\n", s.EndTime.In(loc).Format(time.DateTime))
	} else {
		b.WriteString("🕔 **Конец:** сейчас\n")
	}
	fmt.Fprintf(&b, "⏱️ **Длительность:** %s\n", analytics.FormatDuration(s.Seconds(now)))
	tag := s.Tag
	if tag == "" {
		tag = analytics.NoData
	}
	fmt.Fprintf(&b, "🏷️ **Тег:** %s\n", tag)
	fmt.Fprintf(&b, "⭐ **Настроение:** %s", formatMood(s.Mood))
	return b.String()
}

func formatMood(mood *int) string {
	if mood == nil {
		return "❌"
	}
	return strings.Repeat("⭐", *mood)
}

func predictionBasis(level analytics.FallbackLevel) string {
	switch level {
	case analytics.LevelBucket:
		return "день недели и время начала состояния"
	case analytics.LevelWeekday:
		return "день недели"
	default:
		return "глобальные переходы состояний"
	}
}

func formatPrediction(p *analytics.Prediction) string {
	var b strings.Builder
	b.WriteString("🔮 **Прогноз следующего состояния**\n\n")
	fmt.Fprintf(&b, "Сейчас: `%s`\n\n", p.CurrentState)
	for i, c := range p.Candidates {
		fmt.Fprintf(&b, "%d. `%s` — %.2f%%\n", i+1, c.State, c.Percent)
	}
	fmt.Fprintf(&b, "\n-# Основа прогноза: %s", predictionBasis(p.Level))
	return b.String()
}

func formatTags(tags []analytics.TagCount) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏷️ **Топ %d ваших самых частых тегов:**\n\n", len(tags))
	for i, t := range tags {
		fmt.Fprintf(&b, "%d. `%s` — %d\n", i+1, t.Tag, t.Count)
	}
	return strings.TrimRight(b.String(), "\n")
}

func rateButtons(action string, sessionID int64) [][]discord.Button {
	row := make([]discord.Button, 0, 5)
	for mood := 1; mood <= 5; mood++ {
		row = append(row, discord.Button{
			Label:    strings.Repeat("⭐", mood),
			CustomID: newCustomID(action, sessionID, mood),
			Style:    discord.ButtonSecondary,
		})
	}
	return [][]discord.Button{row}
}

// dayNavButtons links the previous and next day of the same view plus the
// other view of the same day.
func dayNavButtons(action string, day time.Time) []discord.Button {
	other, otherLabel := actionHistory, "🗂 История"
	if action == actionHistory {
		other, otherLabel = actionStats, "📊 Статистика"
	}
	return []discord.Button{
		{Label: "◀", CustomID: newCustomID(action, day.AddDate(0, 0, -1)), Style: discord.ButtonSecondary},
		{Label: day.Format(displayDateLayout), CustomID: newCustomID(action, day), Style: discord.ButtonPrimary},
		{Label: "▶", CustomID: newCustomID(action, day.AddDate(0, 0, 1)), Style: discord.ButtonSecondary},
		{Label: otherLabel, CustomID: newCustomID(other, day), Style: discord.ButtonSecondary},
	}
}

func historyButtons(vocab config.Vocabulary, sessions []repository.Session, day time.Time) [][]discord.Button {
	var rows [][]discord.Button
	var row []discord.Button
	for i, s := range sessions {
		if len(rows) == maxButtonRows-1 {
			break
		}
		row = append(row, discord.Button{
			Label:    fmt.Sprintf("%d %s", i+1, vocab.Emoji(s.StateName)),
			CustomID: newCustomID(actionSession, s.ID),
			Style:    discord.ButtonSecondary,
		})
		if len(row) == maxButtonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 && len(rows) < maxButtonRows-1 {
		rows = append(rows, row)
	}
	return append(rows, dayNavButtons(actionHistory, day))
}

func sessionButtons(s *repository.Session, loc *time.Location) [][]discord.Button {
	edit := []discord.Button{
		{Label: "✏️ Состояние", CustomID: newCustomID(actionEditName, s.ID), Style: discord.ButtonPrimary},
		{Label: "🏷️ Тег", CustomID: newCustomID(actionEditTag, s.ID), Style: discord.ButtonPrimary},
	}
	if s.Tag != "" {
		edit = append(edit, discord.Button{Label: "🧹 Удалить тег", CustomID: newCustomID(actionClearTag, s.ID), Style: discord.ButtonDanger})
	}
	if !s.IsOpen() {
		edit = append(edit, discord.Button{Label: "⭐ Настроение", CustomID: newCustomID(actionEditMood, s.ID), Style: discord.ButtonPrimary})
	}
	back := []discord.Button{
		{Label: "◀ К истории", CustomID: newCustomID(actionHistory, s.StartTime.In(loc)), Style: discord.ButtonSecondary},
	}
	return [][]discord.Button{edit, back}
}

func stateChoiceButtons(vocab config.Vocabulary, sessionID int64) [][]discord.Button {
	var rows [][]discord.Button
	var row []discord.Button
	for _, s := range vocab.States {
		if len(rows) == maxButtonRows-1 {
			break
		}
		row = append(row, discord.Button{
			Label:    fmt.Sprintf("%s %s", vocab.Emoji(s.Name), s.Name),
			CustomID: newCustomID(actionSetName, sessionID, s.Name),
			Style:    discord.ButtonSecondary,
		})
		if len(row) == maxButtonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 && len(rows) < maxButtonRows-1 {
		rows = append(rows, row)
	}
	return append(rows, cancelRow(sessionID))
}

func cancelRow(sessionID int64) []discord.Button {
	return []discord.Button{
		{Label: "◀ Назад", CustomID: newCustomID(actionSession, sessionID), Style: discord.ButtonSecondary},
	}
}

package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	actionRate      = "rate"
	actionStats     = "stats"
	actionHistory   = "history"
	actionSession   = "session"
	actionEditName  = "edit_name"
	actionSetName   = "set_name"
	actionEditTag   = "edit_tag"
	actionClearTag  = "clear_tag"
	actionEditMood  = "edit_mood"
	actionSetMood   = "set_mood"
	actionCancel    = "cancel"
	customIDSep     = ":"
	customDateToken = time.DateOnly
)

// customID is a parsed button id of the form "action:arg:arg".
type customID struct {
	action string
	args   []string
}

func newCustomID(action string, args ...any) string {
	parts := []string{action}
	for _, a := range args {
		switch v := a.(type) {
		case time.Time:
			parts = append(parts, v.Format(customDateToken))
		default:
			parts = append(parts, fmt.Sprint(v))
		}
	}
	return strings.Join(parts, customIDSep)
}

func parseCustomID(raw string) customID {
	parts := strings.Split(raw, customIDSep)
	return customID{action: parts[0], args: parts[1:]}
}

func (c customID) int64Arg(i int) (int64, error) {
	if i >= len(c.args) {
		return 0, fmt.Errorf("custom id %q: missing argument %d", c.action, i)
	}
	return strconv.ParseInt(c.args[i], 10, 64)
}

func (c customID) intArg(i int) (int, error) {
	n, err := c.int64Arg(i)
	return int(n), err
}

func (c customID) stringArg(i int) (string, error) {
	if i >= len(c.args) || c.args[i] == "" {
		return "", fmt.Errorf("custom id %q: missing argument %d", c.action, i)
	}
	return c.args[i], nil
}

func (c customID) dateArg(i int, loc *time.Location) (time.Time, error) {
	raw, err := c.stringArg(i)
	if err != nil {
		return time.Time{}, err
	}
	return time.ParseInLocation(customDateToken, raw, loc)
}

package telegram

import (
	"fmt"
	"strconv"
	"strings"
)

// ChatTarget designates where a message is delivered: a numeric chat ID or a
// public channel username ("@name").
type ChatTarget struct {
	ID       int64
	Username string
}

func (t ChatTarget) String() string {
	if t.Username != "" {
		return t.Username
	}
	return strconv.FormatInt(t.ID, 10)
}

// ParseChatTargets parses a comma-separated list of chat IDs and @usernames.
func ParseChatTargets(s string) ([]ChatTarget, error) {
	var targets []ChatTarget
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "@") {
			targets = append(targets, ChatTarget{Username: part})
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat id %q: %w", part, err)
		}
		targets = append(targets, ChatTarget{ID: id})
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no chat id in %q", s)
	}
	return targets, nil
}

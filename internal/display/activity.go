package display

// ActivityLog keeps a newest-first log of user-visible command outcomes.
type ActivityLog struct {
	messages []string
}

// NewActivityLog constructs an empty log.
func NewActivityLog() *ActivityLog {
	return &ActivityLog{}
}

// Add prepends a new activity message.
func (l *ActivityLog) Add(message string) {
	l.messages = append([]string{message}, l.messages...)
}

// Latest returns the most recent activity message.
func (l *ActivityLog) Latest() (string, bool) {
	if len(l.messages) == 0 {
		return "", false
	}
	return l.messages[0], true
}

// Messages returns all messages, newest first.
func (l *ActivityLog) Messages() []string {
	out := make([]string, len(l.messages))
	copy(out, l.messages)
	return out
}

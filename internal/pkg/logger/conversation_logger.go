package logger

// ConversationLogger appends one JSON line per recorded conversation turn to
// its own rotating log file, separate from the application log. The designer
// team replays these files to audit what each session asked for.
type ConversationLogger struct {
	log *ZapLogger
}

func NewConversationLogger(logFilePath string) *ConversationLogger {
	return &ConversationLogger{log: NewIsolatedLogger(logFilePath)}
}

func (c *ConversationLogger) LogTurn(sessionID, styleID string, turn map[string]interface{}) {
	c.log.Info("Conversation", "turn recorded", map[string]interface{}{
		"sessionId": sessionID,
		"styleId":   styleID,
		"turn":      turn,
	})
}

func (c *ConversationLogger) Sync() error {
	return c.log.Sync()
}

package domain

type ToastState struct {
	Show     bool     `json:"show"`
	FadeMs   int64    `json:"fade_ms"`
	Messages []string `json:"messages"`
}

// LastMessage returns the newest message, or "" when the queue is empty.
func (t ToastState) LastMessage() string {
	if len(t.Messages) == 0 {
		return ""
	}
	return t.Messages[len(t.Messages)-1]
}

package core

type ChatMessageRole string

const (
	ChatMessageRoleUser      ChatMessageRole = "user"
	ChatMessageRoleAssistant ChatMessageRole = "assistant"
	ChatMessageRoleSystem    ChatMessageRole = "system"
)

// ChatTurn is one message of conversation history handed to a responder.
type ChatTurn struct {
	Role    ChatMessageRole `json:"role"`
	Message string          `json:"message"`
}

type ChatContext struct {
	Turns []ChatTurn
}

func (c *ChatContext) AddUserMessage(text string) {
	c.Turns = append(c.Turns, ChatTurn{Role: ChatMessageRoleUser, Message: text})
}

func (c *ChatContext) AddAssistantMessage(text string) {
	c.Turns = append(c.Turns, ChatTurn{Role: ChatMessageRoleAssistant, Message: text})
}

// Last returns at most n trailing turns.
func (c *ChatContext) Last(n int) []ChatTurn {
	if n <= 0 || len(c.Turns) <= n {
		return c.Turns
	}
	return c.Turns[len(c.Turns)-n:]
}

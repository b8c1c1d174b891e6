package spark

// ChatPayload is the single outbound message of a chat session.
type ChatPayload struct {
	Header    ChatHeader    `json:"header"`
	Parameter ChatParameter `json:"parameter"`
	Payload   ChatBody      `json:"payload"`
}

type ChatHeader struct {
	AppID string `json:"app_id"`
	UID   string `json:"uid"`
}

type ChatParameter struct {
	Chat ChatSampling `json:"chat"`
}

// ChatSampling carries the model selection and sampling parameters.
type ChatSampling struct {
	Domain      string  `json:"domain"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type ChatBody struct {
	Message ChatMessage `json:"message"`
}

type ChatMessage struct {
	Text []ChatText `json:"text"`
}

type ChatText struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are the session-wide values of a chat payload.
type Options struct {
	AppID       string
	UID         string
	Domain      string
	Temperature float64
	MaxTokens   int
}

// NewChatPayload builds a payload with a single user turn holding prompt.
func NewChatPayload(opts Options, prompt string) ChatPayload {
	return ChatPayload{
		Header: ChatHeader{AppID: opts.AppID, UID: opts.UID},
		Parameter: ChatParameter{Chat: ChatSampling{
			Domain:      opts.Domain,
			Temperature: opts.Temperature,
			MaxTokens:   opts.MaxTokens,
		}},
		Payload: ChatBody{Message: ChatMessage{
			Text: []ChatText{{Role: "user", Content: prompt}},
		}},
	}
}

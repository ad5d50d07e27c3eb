package whatsapp

// Cloud API webhook payload shapes (Meta webhook format).

type webhookPayload struct {
	Object string  `json:"object"`
	Entry  []entry `json:"entry"`
}

type entry struct {
	ID      string   `json:"id"`
	Changes []change `json:"changes"`
}

type change struct {
	Field string      `json:"field"`
	Value changeValue `json:"value"`
}

type changeValue struct {
	MessagingProduct string    `json:"messaging_product"`
	Contacts         []contact `json:"contacts,omitempty"`
	Messages         []message `json:"messages,omitempty"`
}

type contact struct {
	Profile contactProfile `json:"profile"`
	WaID    string         `json:"wa_id"`
}

type contactProfile struct {
	Name string `json:"name"`
}

type message struct {
	From      string        `json:"from"`
	ID        string        `json:"id"`
	Timestamp string        `json:"timestamp"`
	Type      string        `json:"type"`
	Text      *textContent  `json:"text,omitempty"`
	Image     *mediaContent `json:"image,omitempty"`
}

type textContent struct {
	Body string `json:"body"`
}

type mediaContent struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
}

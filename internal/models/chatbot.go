package models

// ChatbotRequest is the payload for asking the assistant a question.
type ChatbotRequest struct {
	Message string `json:"message" validate:"max=1000"`
}

// ChatbotResponse carries the canned reply.
type ChatbotResponse struct {
	Reply string `json:"reply"`
	Topic string `json:"topic"`
}

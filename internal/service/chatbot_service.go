package service

import (
	"math/rand"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/pawnics/pawnics-api/internal/models"
)

type chatbotTopic struct {
	name     string
	keywords []string
	replies  []string
}

// Topics are matched in order; the first keyword hit wins.
var chatbotTopics = []chatbotTopic{
	{
		name:     "greeting",
		keywords: []string{"hello", "hi", "hey", "good morning", "good evening"},
		replies: []string{
			"Hello! How can I help you today? I can answer questions about adoption, lost and found pets, or volunteering.",
			"Hi there! Ask me anything about adopting a pet, reporting a lost pet, or joining a volunteer event.",
		},
	},
	{
		name:     "adoption",
		keywords: []string{"adopt", "adoption", "pet", "dog", "cat"},
		replies: []string{
			"To adopt a pet, browse the listings and send an adoption request. The owner will review it and get back to you.",
			"Found a pet you love? Open its page and submit an adoption request. You can track it under your sent requests.",
		},
	},
	{
		name:     "lostfound",
		keywords: []string{"lost", "found", "missing", "report"},
		replies: []string{
			"If you lost or found a pet, file a report with a photo and location. Other users can then message you directly.",
			"Head to the lost and found section to file a report. Keep your contact details current so people can reach you.",
		},
	},
	{
		name:     "volunteer",
		keywords: []string{"volunteer", "event", "help", "shelter"},
		replies: []string{
			"Check the events page for upcoming volunteer opportunities and apply to the ones that fit your schedule.",
			"We always need volunteers! Browse events and send an application; the organizer will confirm your spot.",
		},
	},
}

var chatbotFallbacks = []string{
	"I'm not sure I follow. I can help with adoption, lost and found reports, and volunteer events.",
	"Could you rephrase that? Try asking about adopting a pet, reporting a lost pet, or volunteering.",
}

// ChatbotService answers common questions with canned replies.
type ChatbotService struct {
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewChatbotService builds a ChatbotService. A non-zero seed makes replies
// deterministic, useful in tests.
func NewChatbotService(seed int64, logger *zap.Logger) *ChatbotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	src := rand.NewSource(seed)
	if seed == 0 {
		src = rand.NewSource(rand.Int63())
	}
	return &ChatbotService{logger: logger, rng: rand.New(src)}
}

// Reply matches the message against the keyword table and returns a canned
// answer. An empty message gets a greeting.
func (s *ChatbotService) Reply(req models.ChatbotRequest) models.ChatbotResponse {
	message := strings.ToLower(strings.TrimSpace(req.Message))
	if message == "" {
		topic := chatbotTopics[0]
		return models.ChatbotResponse{Reply: s.pick(topic.replies), Topic: topic.name}
	}

	for _, topic := range chatbotTopics {
		for _, keyword := range topic.keywords {
			if strings.Contains(message, keyword) {
				return models.ChatbotResponse{Reply: s.pick(topic.replies), Topic: topic.name}
			}
		}
	}

	return models.ChatbotResponse{Reply: s.pick(chatbotFallbacks), Topic: "general"}
}

func (s *ChatbotService) pick(replies []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return replies[s.rng.Intn(len(replies))]
}

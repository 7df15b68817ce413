package service

import (
	"strings"

	appErrors "github.com/pawnics/pawnics-api/pkg/errors"
)

// ConversationID derives the canonical channel identifier for a report and a
// pair of users. The pair is order-insensitive: the lexicographically smaller
// user id always comes first, so both participants derive the same id.
func ConversationID(reportID, userA, userB string) (string, error) {
	reportID = strings.TrimSpace(reportID)
	userA = strings.TrimSpace(userA)
	userB = strings.TrimSpace(userB)
	if reportID == "" || userA == "" || userB == "" {
		return "", appErrors.Clone(appErrors.ErrInvalidIdentity, "conversation requires a report and two users")
	}

	lo, hi := userA, userB
	if lo > hi {
		lo, hi = hi, lo
	}
	return reportID + "_" + lo + "_" + hi, nil
}

// ParseConversationID splits a conversation id back into its components.
func ParseConversationID(conversationID string) (reportID, userLo, userHi string, err error) {
	parts := strings.Split(conversationID, "_")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", appErrors.Clone(appErrors.ErrInvalidIdentity, "malformed conversation id")
	}
	return parts[0], parts[1], parts[2], nil
}

// IsParticipant reports whether the user belongs to the conversation.
func IsParticipant(conversationID, userID string) bool {
	_, lo, hi, err := ParseConversationID(conversationID)
	if err != nil {
		return false
	}
	return userID == lo || userID == hi
}

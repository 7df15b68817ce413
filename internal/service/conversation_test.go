package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/pawnics/pawnics-api/pkg/errors"
)

func TestConversationIDOrderInsensitive(t *testing.T) {
	a, err := ConversationID("report-1", "user-b", "user-a")
	require.NoError(t, err)
	b, err := ConversationID("report-1", "user-a", "user-b")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, "report-1_user-a_user-b", a)
}

func TestConversationIDDistinctPerPeerAndReport(t *testing.T) {
	base, err := ConversationID("report-1", "user-a", "user-b")
	require.NoError(t, err)
	otherPeer, err := ConversationID("report-1", "user-a", "user-c")
	require.NoError(t, err)
	otherReport, err := ConversationID("report-2", "user-a", "user-b")
	require.NoError(t, err)

	assert.NotEqual(t, base, otherPeer)
	assert.NotEqual(t, base, otherReport)
}

func TestConversationIDTrimsWhitespace(t *testing.T) {
	id, err := ConversationID(" report-1 ", " user-a", "user-b ")
	require.NoError(t, err)
	assert.Equal(t, "report-1_user-a_user-b", id)
}

func TestConversationIDRejectsBlankComponents(t *testing.T) {
	cases := [][3]string{
		{"", "user-a", "user-b"},
		{"report-1", "  ", "user-b"},
		{"report-1", "user-a", ""},
	}
	for _, tc := range cases {
		_, err := ConversationID(tc[0], tc[1], tc[2])
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrInvalidIdentity.Code, appErrors.FromError(err).Code)
	}
}

func TestParseConversationID(t *testing.T) {
	reportID, lo, hi, err := ParseConversationID("report-1_user-a_user-b")
	require.NoError(t, err)
	assert.Equal(t, "report-1", reportID)
	assert.Equal(t, "user-a", lo)
	assert.Equal(t, "user-b", hi)

	for _, malformed := range []string{"", "report-1", "report-1_user-a", "report-1__user-b", "a_b_c_d"} {
		_, _, _, err := ParseConversationID(malformed)
		require.Error(t, err, "expected error for %q", malformed)
		assert.Equal(t, appErrors.ErrInvalidIdentity.Code, appErrors.FromError(err).Code)
	}
}

func TestIsParticipant(t *testing.T) {
	assert.True(t, IsParticipant("report-1_user-a_user-b", "user-a"))
	assert.True(t, IsParticipant("report-1_user-a_user-b", "user-b"))
	assert.False(t, IsParticipant("report-1_user-a_user-b", "user-c"))
	assert.False(t, IsParticipant("garbage", "user-a"))
}

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMentions(t *testing.T) {
	body := "ping @[Sam Agent](a0000000-0000-0000-0000-000000000002) and @[Vic](a0000000-0000-0000-0000-000000000003), " +
		"again @[Sam](a0000000-0000-0000-0000-000000000002). Not a mention: @Sam or [x](y) or @[broken\nname](id)"

	assert.Equal(t, []string{agentID, viewerID}, ParseMentions(body))
	assert.Nil(t, ParseMentions("no mentions here"))
}

func TestPlainMentions(t *testing.T) {
	got := PlainMentions("thanks @[Sam Agent](a0000000-0000-0000-0000-000000000002)!")
	assert.Equal(t, "thanks @Sam Agent!", got)
}

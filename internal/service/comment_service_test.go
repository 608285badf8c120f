package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellerdesk/support-portal/internal/events"
)

func newCommentFixture(t *testing.T) (*ticketFixture, *CommentService, *fakeComments, string) {
	t.Helper()
	f := newTicketFixture()
	ticket, err := f.svc.Create(context.Background(), f.agent, sellerInput())
	require.NoError(t, err)
	comments := &fakeComments{}
	svc := NewCommentService(CommentDependencies{
		Tickets:     f.svc,
		CommentRepo: comments,
		UserRepo:    f.users,
		Evaluator:   testEvaluator(),
		Dispatcher:  f.dispatcher,
	})
	return f, svc, comments, ticket.ID
}

func TestAddCommentResolvesMentions(t *testing.T) {
	f, svc, comments, ticketID := newCommentFixture(t)
	body := "@[Ada](" + adminID + ") @[Sam](" + agentID + ") @[Ghost](a0000000-0000-0000-0000-0000000000ff) @[Bad](not-a-uuid) @[Vic](" + viewerID + ")"

	comment, err := svc.Add(context.Background(), f.agent, ticketID, body)
	require.NoError(t, err)

	assert.Equal(t, []string{adminID, viewerID}, comment.Mentions)
	require.Len(t, comments.rows, 1)
	assert.Equal(t, agentID, comments.rows[0].AuthorID)
	assert.Equal(t,
		[]events.EventType{events.EventCaseCreated, events.EventCommentAdded, events.EventCommentMention},
		f.dispatcher.types())

	payload, ok := f.dispatcher.events[2].Payload.(events.CommentPayload)
	require.True(t, ok)
	assert.Equal(t, comment.ID, payload.CommentID)
	assert.Contains(t, payload.BodyPreview, "@Ada")
}

func TestAddCommentSkipsInactiveMentionsAndMentionEvent(t *testing.T) {
	f, svc, _, ticketID := newCommentFixture(t)
	require.NoError(t, f.users.SetActive(context.Background(), viewerID, false))

	comment, err := svc.Add(context.Background(), f.agent, ticketID, "fyi @[Vic]("+viewerID+")")
	require.NoError(t, err)

	assert.Empty(t, comment.Mentions)
	assert.Equal(t, []events.EventType{events.EventCaseCreated, events.EventCommentAdded}, f.dispatcher.types())
}

func TestAddCommentValidation(t *testing.T) {
	f, svc, _, ticketID := newCommentFixture(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, f.agent, ticketID, "   ")
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))

	long := make([]byte, maxCommentLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = svc.Add(ctx, f.agent, ticketID, string(long))
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))

	_, err = svc.Add(ctx, f.viewer, ticketID, "hello")
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))
}

func TestListCommentsRequiresVisibility(t *testing.T) {
	f, svc, _, ticketID := newCommentFixture(t)
	ctx := context.Background()
	_, err := svc.Add(ctx, f.agent, ticketID, "first")
	require.NoError(t, err)

	got, err := svc.List(ctx, f.admin, ticketID)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.List(ctx, f.viewer, ticketID)
	assert.Equal(t, "FORBIDDEN", errorCode(t, err))
}

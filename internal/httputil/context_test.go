package httputil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestActorContextRoundTrip(t *testing.T) {
	userID := uuid.New()
	ctx := WithActor(context.Background(), userID, "alice")

	gotID, ok := ActorID(ctx)
	assert.True(t, ok)
	assert.Equal(t, userID, gotID)

	gotUsername, ok := ActorUsername(ctx)
	assert.True(t, ok)
	assert.Equal(t, "alice", gotUsername)
}

func TestActorContextAbsent(t *testing.T) {
	_, ok := ActorID(context.Background())
	assert.False(t, ok)

	_, ok = ActorUsername(context.Background())
	assert.False(t, ok)
}

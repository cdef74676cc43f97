package greeter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/threadkeeper/internal/domain/event"
	"github.com/alanyang/threadkeeper/internal/domain/member"
	"github.com/alanyang/threadkeeper/internal/service/greeter"
	"github.com/alanyang/threadkeeper/internal/testutil"
)

const guildID = "900"

var nyx = member.Member{ID: "1", Username: "Nyx"}

func TestWelcome_PostsInWelcomeChannel(t *testing.T) {
	gw := testutil.NewFakeGateway()
	gw.AddTextChannel(guildID, "10", "general")
	gw.AddTextChannel(guildID, "11", "recruitment")
	audit := &testutil.CaptureRecorder{}
	svc := greeter.NewService(gw, gw, audit, "", "Rev3nants Wrath")

	require.NoError(t, svc.Welcome(context.Background(), guildID, nyx))

	msgs := gw.SentTo("11")
	require.Len(t, msgs, 1)
	assert.Equal(t, greeter.Message("Rev3nants Wrath", "<@1>"), msgs[0])
	assert.Contains(t, msgs[0], "👋 Welcome to **Rev3nants Wrath**, <@1>!")
	assert.Empty(t, gw.SentTo("10"))
	assert.True(t, audit.Logged("Nyx joined the server."))
	assert.Len(t, audit.OfType(event.TypeMemberJoined), 1)
}

func TestWelcome_NoChannelIsSilent(t *testing.T) {
	gw := testutil.NewFakeGateway()
	gw.AddTextChannel(guildID, "10", "general")
	audit := &testutil.CaptureRecorder{}
	svc := greeter.NewService(gw, gw, audit, "lobby", "")

	require.NoError(t, svc.Welcome(context.Background(), guildID, nyx))

	assert.Empty(t, gw.Sent())
	assert.Empty(t, audit.Events())
}

func TestWelcome_SendFailure(t *testing.T) {
	gw := testutil.NewFakeGateway()
	gw.AddTextChannel(guildID, "11", "recruitment")
	gw.FailSend["11"] = errors.New("missing access")
	audit := &testutil.CaptureRecorder{}
	svc := greeter.NewService(gw, gw, audit, "", "")

	err := svc.Welcome(context.Background(), guildID, nyx)
	assert.Error(t, err)
	assert.Empty(t, audit.Events())
}

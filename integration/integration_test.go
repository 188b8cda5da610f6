// Package integration contains tests that run against the live service and
// need X_AUTH_TOKEN and X_CSRF_TOKEN.
package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	grokit "github.com/roelfdiedericks/grokit-go"
)

// getClient creates a client from environment or skips the test.
func getClient(t *testing.T) *grokit.Client {
	t.Helper()
	if os.Getenv(grokit.EnvAuthToken) == "" || os.Getenv(grokit.EnvCSRFToken) == "" {
		t.Skip("X_AUTH_TOKEN/X_CSRF_TOKEN not set, skipping integration test")
	}
	client, err := grokit.FromEnv()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestCreateConversation(t *testing.T) {
	client := getClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id, err := client.CreateConversation(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	t.Logf("Conversation: %s", id)
}

func TestMultiTurn(t *testing.T) {
	client := getClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	res1, err := client.Generate(ctx, grokit.NewGenerateRequest("My name is Bob. Reply with 'ok'."))
	require.NoError(t, err)
	if res1.Limited {
		t.Skip("account is rate limited")
	}
	t.Logf("Turn 1: %s", res1.ResponseText)

	res2, err := client.Generate(ctx, grokit.NewGenerateRequest("What is my name?").
		WithConversationID(res1.ConversationID).
		WithHistory(res1.History))
	require.NoError(t, err)
	t.Logf("Turn 2: %s", res2.ResponseText)

	assert.Equal(t, 4, res2.History.Len())
	assert.Contains(t, res2.ResponseText, "Bob")
}

func TestImageURL(t *testing.T) {
	client := getClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
	defer cancel()

	url, err := client.ImageURL(ctx, "a red bicycle")
	require.NoError(t, err)
	assert.NotEmpty(t, url)
	t.Logf("Image: %s", url)
}

package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestPublisher_PublishesJSON(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close() //nolint:errcheck

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close() //nolint:errcheck

	client, err := pubsub.NewClient(ctx, "test-project", option.WithGRPCConn(conn))
	require.NoError(t, err)
	defer client.Close() //nolint:errcheck

	topic, err := client.CreateTopic(ctx, "listings")
	require.NoError(t, err)
	defer topic.Stop()

	id, err := New(topic).Publish(ctx, "listings", map[string]string{"identifier": "B0ABCDEFGH"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	var body map[string]string
	require.NoError(t, json.Unmarshal(msgs[0].Data, &body))
	require.Equal(t, "B0ABCDEFGH", body["identifier"])
	require.Equal(t, "application/json", msgs[0].Attributes["content_type"])
	require.Equal(t, "listings", msgs[0].Attributes["topic"])
}

func TestPublisher_Errors(t *testing.T) {
	t.Parallel()

	_, err := New(nil).Publish(context.Background(), "listings", "x")
	require.ErrorContains(t, err, "not configured")

	p := &Publisher{publish: func(context.Context, *pubsub.Message) (string, error) {
		return "", errors.New("deadline")
	}}
	_, err = p.Publish(context.Background(), "listings", "x")
	require.ErrorContains(t, err, "publish message")

	_, err = p.Publish(context.Background(), "listings", make(chan int))
	require.ErrorContains(t, err, "marshal payload")
}

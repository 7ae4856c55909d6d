package server

import (
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	pb "github.com/soundphilosopher/basic-grpc-service/api/proto/v1"
	"github.com/soundphilosopher/basic-grpc-service/internal/controller"
	"github.com/soundphilosopher/basic-grpc-service/internal/envelope"
	"github.com/soundphilosopher/basic-grpc-service/internal/registry"
	"github.com/soundphilosopher/basic-grpc-service/pkg/types"
)

func fastCoordinator(cfg controller.Config, opts ...controller.Option) *controller.Coordinator {
	opts = append([]controller.Option{
		controller.WithDelay(func() time.Duration { return time.Millisecond }),
	}, opts...)
	return controller.New(cfg, opts...)
}

func newTestClient(t *testing.T, coord *controller.Coordinator) pb.BasicServiceClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	pb.RegisterBasicServiceServer(srv, NewServer(coord, nil))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return pb.NewBasicServiceClient(conn)
}

func recvAll(t *testing.T, stream grpc.ServerStreamingClient[pb.BackgroundResponse]) []*types.Snapshot {
	t.Helper()
	var snaps []*types.Snapshot
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return snaps
		}
		require.NoError(t, err)
		snap, err := envelope.Decode(resp.CloudEvent.Envelope())
		require.NoError(t, err)
		snaps = append(snaps, snap)
	}
}

func TestHello(t *testing.T) {
	client := newTestClient(t, fastCoordinator(controller.Config{}))

	resp, err := client.Hello(context.Background(), &pb.HelloRequest{Message: "World"})
	require.NoError(t, err)
	require.NotNil(t, resp.CloudEvent)

	assert.Equal(t, envelope.HelloSource, resp.CloudEvent.Source)
	assert.Equal(t, envelope.HelloType, resp.CloudEvent.Type)
	assert.Equal(t, "1.0", resp.CloudEvent.SpecVersion)
	assert.NotEmpty(t, resp.CloudEvent.ID)

	greeting, err := envelope.DecodeGreeting(resp.CloudEvent.Envelope())
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", greeting)
}

func TestBackgroundStreamsEverySnapshot(t *testing.T) {
	client := newTestClient(t, fastCoordinator(controller.Config{}))

	stream, err := client.Background(context.Background(), &pb.BackgroundRequest{Processes: 3})
	require.NoError(t, err)

	snaps := recvAll(t, stream)
	require.Len(t, snaps, 5)
	for i, s := range snaps[:4] {
		assert.Equal(t, types.StateProcess, s.State)
		assert.Len(t, s.Results, i)
	}
	assert.Equal(t, types.StateComplete, snaps[4].State)
	assert.Len(t, snaps[4].Results, 3)
	require.NotNil(t, snaps[4].CompletedAt)
}

func TestBackgroundNegativeCount(t *testing.T) {
	client := newTestClient(t, fastCoordinator(controller.Config{}))

	stream, err := client.Background(context.Background(), &pb.BackgroundRequest{Processes: -2})
	require.NoError(t, err)

	snaps := recvAll(t, stream)
	require.Len(t, snaps, 2)
	assert.Equal(t, types.StateProcess, snaps[0].State)
	assert.Equal(t, types.StateComplete, snaps[1].State)
	assert.Empty(t, snaps[1].Results)
}

func TestBackgroundClientDisconnect(t *testing.T) {
	reg := registry.New(0)
	var calls atomic.Int64
	coord := controller.New(controller.Config{},
		controller.WithTracker(reg),
		controller.WithDelay(func() time.Duration {
			return time.Duration(calls.Add(1)) * 100 * time.Millisecond
		}))
	client := newTestClient(t, coord)

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := client.Background(ctx, &pb.BackgroundRequest{Processes: 4})
	require.NoError(t, err)

	_, err = stream.Recv()
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool {
		jobs := reg.List()
		return len(jobs) == 1 && len(jobs[0].Errors) == 1
	}, 2*time.Second, 10*time.Millisecond)

	jobs := reg.List()
	require.Len(t, jobs, 1)
	assert.Equal(t, types.StateProcess, jobs[0].State)
	assert.True(t, jobs[0].Abandoned)
	assert.NotNil(t, jobs[0].StoppedAt)
	assert.Equal(t, []string{"consumer disconnected"}, jobs[0].Errors)
}

func TestBackgroundResourceExhausted(t *testing.T) {
	coord := controller.New(controller.Config{MaxConcurrentJobs: 1},
		controller.WithDelay(func() time.Duration { return 500 * time.Millisecond }))
	client := newTestClient(t, coord)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := client.Background(ctx, &pb.BackgroundRequest{Processes: 1})
	require.NoError(t, err)
	_, err = first.Recv()
	require.NoError(t, err)

	second, err := client.Background(context.Background(), &pb.BackgroundRequest{Processes: 1})
	require.NoError(t, err)
	_, err = second.Recv()
	require.Error(t, err)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}

func TestTalkConversation(t *testing.T) {
	client := newTestClient(t, fastCoordinator(controller.Config{}))

	stream, err := client.Talk(context.Background())
	require.NoError(t, err)

	require.NoError(t, stream.Send(&pb.TalkRequest{Message: "I need a holiday"}))
	resp, err := stream.Recv()
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Answer)

	require.NoError(t, stream.Send(&pb.TalkRequest{Message: "bye"}))
	resp, err = stream.Recv()
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Answer)

	// Server ends the conversation after the goodbye.
	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestTalkClientCloses(t *testing.T) {
	client := newTestClient(t, fastCoordinator(controller.Config{}))

	stream, err := client.Talk(context.Background())
	require.NoError(t, err)

	require.NoError(t, stream.Send(&pb.TalkRequest{Message: "hello"}))
	_, err = stream.Recv()
	require.NoError(t, err)

	require.NoError(t, stream.CloseSend())
	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

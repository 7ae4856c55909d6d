package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	pb "github.com/soundphilosopher/basic-grpc-service/api/proto/v1"
	"github.com/soundphilosopher/basic-grpc-service/internal/envelope"
	"github.com/soundphilosopher/basic-grpc-service/internal/talk"
)

// dial connects to addr, over TLS verified against caFile when it is set.
func dial(addr, caFile string) (*grpc.ClientConn, error) {
	creds := insecure.NewCredentials()
	if caFile != "" {
		tlsCreds, err := credentials.NewClientTLSFromFile(caFile, "")
		if err != nil {
			return nil, fmt.Errorf("failed to load CA certificate: %w", err)
		}
		creds = tlsCreds
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return conn, nil
}

// runBackground requests count workers and prints one JSON line per snapshot.
func runBackground(ctx context.Context, client pb.BasicServiceClient, count int32, out io.Writer) error {
	stream, err := client.Background(ctx, &pb.BackgroundRequest{Processes: count})
	if err != nil {
		return fmt.Errorf("failed to start background job: %w", err)
	}

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("background stream: %w", err)
		}

		snap, err := envelope.Decode(resp.CloudEvent.Envelope())
		if err != nil {
			return fmt.Errorf("decode snapshot: %w", err)
		}
		line, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		fmt.Fprintln(out, string(line))
	}
}

// runHello calls Hello and prints the greeting.
func runHello(ctx context.Context, client pb.BasicServiceClient, name string, out io.Writer) error {
	resp, err := client.Hello(ctx, &pb.HelloRequest{Message: name})
	if err != nil {
		return fmt.Errorf("hello failed: %w", err)
	}
	greeting, err := envelope.DecodeGreeting(resp.CloudEvent.Envelope())
	if err != nil {
		return fmt.Errorf("decode greeting: %w", err)
	}
	fmt.Fprintln(out, greeting)
	return nil
}

// runTalk relays lines from in to the Talk stream and prints every answer.
// It returns when the server ends the conversation or in is exhausted.
func runTalk(ctx context.Context, client pb.BasicServiceClient, name string, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := client.Talk(ctx)
	if err != nil {
		return fmt.Errorf("failed to open talk stream: %w", err)
	}

	for _, line := range talk.Intro(name) {
		fmt.Fprintln(out, line)
	}

	recvErr := make(chan error, 1)
	go func() {
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				recvErr <- nil
				return
			}
			if err != nil {
				recvErr <- err
				return
			}
			fmt.Fprintln(out, resp.Answer)
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case err := <-recvErr:
			return err
		case line, ok := <-lines:
			if !ok {
				if err := stream.CloseSend(); err != nil {
					return fmt.Errorf("close talk stream: %w", err)
				}
				lines = nil
				continue
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := stream.Send(&pb.TalkRequest{Message: line}); err != nil {
				// The server already ended the stream; Recv reports why.
				return <-recvErr
			}
		}
	}
}

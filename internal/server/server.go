package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/soundphilosopher/basic-grpc-service/api/proto/v1"
	"github.com/soundphilosopher/basic-grpc-service/internal/controller"
	"github.com/soundphilosopher/basic-grpc-service/internal/envelope"
	"github.com/soundphilosopher/basic-grpc-service/internal/metrics"
	"github.com/soundphilosopher/basic-grpc-service/internal/talk"
	"github.com/soundphilosopher/basic-grpc-service/pkg/types"
)

// Server implements the gRPC server for BasicService.
type Server struct {
	pb.UnimplementedBasicServiceServer

	coordinator *controller.Coordinator
	adapter     *envelope.Adapter
	responder   *talk.Responder
	metrics     *metrics.Collector
	logger      *slog.Logger
}

// NewServer creates a new gRPC server instance. collector may be nil.
func NewServer(coord *controller.Coordinator, collector *metrics.Collector) *Server {
	return &Server{
		coordinator: coord,
		adapter:     envelope.NewAdapter(),
		responder:   talk.New(nil),
		metrics:     collector,
		logger:      slog.Default().With("component", "server"),
	}
}

// Hello answers with a greeting wrapped in a CloudEvent.
func (s *Server) Hello(ctx context.Context, req *pb.HelloRequest) (*pb.HelloResponse, error) {
	env, err := s.adapter.WrapGreeting(fmt.Sprintf("Hello, %s!", req.Message))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "wrap greeting: %v", err)
	}
	s.metrics.HelloServed()

	return &pb.HelloResponse{CloudEvent: pb.NewCloudEvent(env)}, nil
}

// Talk answers every inbound message with one reply. The stream ends when
// the client closes its side or says goodbye.
func (s *Server) Talk(stream grpc.BidiStreamingServer[pb.TalkRequest, pb.TalkResponse]) error {
	for {
		req, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if status.Code(err) == codes.Canceled {
				return nil
			}
			return status.Errorf(codes.Internal, "failed to receive message: %v", err)
		}

		answer, goodbye := s.responder.Reply(req.Message)
		if err := stream.Send(&pb.TalkResponse{Answer: answer}); err != nil {
			s.logger.Debug("talk client gone", "error", err)
			return nil
		}
		s.metrics.TalkAnswered()

		if goodbye {
			return nil
		}
	}
}

// Background streams job snapshots until the job completes or the client
// goes away.
func (s *Server) Background(req *pb.BackgroundRequest, stream grpc.ServerStreamingServer[pb.BackgroundResponse]) error {
	sink := controller.SinkFunc(func(env *types.Envelope) error {
		return stream.Send(&pb.BackgroundResponse{CloudEvent: pb.NewCloudEvent(env)})
	})

	err := s.coordinator.Stream(stream.Context(), types.JobRequest{RequestedCount: int(req.Processes)}, sink)
	if errors.Is(err, controller.ErrTooManyJobs) {
		return status.Error(codes.ResourceExhausted, err.Error())
	}
	if err != nil {
		return status.Errorf(codes.Internal, "background: %v", err)
	}
	return nil
}

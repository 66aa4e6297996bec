package rendezvouspb

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// CallbackServer adapts a pair of plain functions to RendezvousServer,
// for a checked binary that links this package to expose itself as a
// ProcessHandle target: it calls StepFunc/ResumeFunc rather than
// requiring an implementer to satisfy the interface directly.
type CallbackServer struct {
	StepFunc   func(ctx context.Context) (*structpb.Struct, error)
	ResumeFunc func(ctx context.Context) error
}

func (s *CallbackServer) Step(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.StepFunc(ctx)
}

func (s *CallbackServer) Resume(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.ResumeFunc(ctx); err != nil {
		return nil, err
	}
	return &emptypb.Empty{}, nil
}

// Serve registers srv on a fresh *grpc.Server and blocks serving
// connections accepted from lis. The caller runs it in its own
// goroutine and Stops the server to shut down.
func Serve(lis net.Listener, srv RendezvousServer) error {
	gs := grpc.NewServer()
	RegisterRendezvousServer(gs, srv)
	return gs.Serve(lis)
}

// Listen opens a TCP listener on network/addr suitable for Serve,
// returning the address to hand to DialProcessHandle (useful with
// addr = "127.0.0.1:0" to let the OS pick a free port).
func Listen(network, addr string) (net.Listener, error) {
	return net.Listen(network, addr)
}

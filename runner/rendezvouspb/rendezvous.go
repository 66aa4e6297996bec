// Package rendezvouspb implements the wire service a ProcessHandle's
// local gRPC connection speaks: a pair of unary RPCs standing in for
// the Step/Resume half of runner.Handle, written directly against the
// same grpc.ServiceDesc/grpc.ClientConnInterface shapes
// protoc-gen-go-grpc would emit from a .proto, using
// structpb.Struct (a stock well-known protobuf message) as the payload
// in place of a bespoke generated message type, the way the teacher's
// own grpc call sites (eventManager/grpcEventMangar.go) pass plain
// interface{} req/reply rather than defining custom protos either.
package rendezvouspb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// RendezvousServer is implemented by the small gRPC server a checked
// process runs inside itself, answering the engine's ProcessHandle.
type RendezvousServer interface {
	// Step reports the operation the process is currently suspended
	// before, encoded as a Struct (see runner's encodeDescriptor).
	Step(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
	// Resume lets the process perform that operation and run until its
	// next suspension.
	Resume(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error)
}

// RegisterRendezvousServer is the hand-written counterpart of a
// generated RegisterXxxServer function.
func RegisterRendezvousServer(s grpc.ServiceRegistrar, srv RendezvousServer) {
	s.RegisterService(&serviceDesc, srv)
}

func stepHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RendezvousServer).Step(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/dporcheck.rendezvous.Rendezvous/Step"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RendezvousServer).Step(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func resumeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RendezvousServer).Resume(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/dporcheck.rendezvous.Rendezvous/Resume"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RendezvousServer).Resume(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "dporcheck.rendezvous.Rendezvous",
	HandlerType: (*RendezvousServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Step", Handler: stepHandler},
		{MethodName: "Resume", Handler: resumeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rendezvous.proto",
}

// RendezvousClient is the hand-written counterpart of a generated
// client stub.
type RendezvousClient interface {
	Step(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	Resume(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type rendezvousClient struct {
	cc grpc.ClientConnInterface
}

// NewRendezvousClient returns a RendezvousClient invoking RPCs over cc.
func NewRendezvousClient(cc grpc.ClientConnInterface) RendezvousClient {
	return &rendezvousClient{cc: cc}
}

func (c *rendezvousClient) Step(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/dporcheck.rendezvous.Rendezvous/Step", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *rendezvousClient) Resume(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, "/dporcheck.rendezvous.Rendezvous/Resume", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

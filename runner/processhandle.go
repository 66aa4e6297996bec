package runner

import (
	"context"
	"fmt"
	"os/exec"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"dporcheck/object"
	"dporcheck/runner/rendezvouspb"
	"dporcheck/transition"
)

// ProcessHandle is a Handle backed by a forked OS process speaking
// rendezvouspb over a local gRPC connection, spec.md §4.6's alternative
// to ChannelHandle for checking a real compiled binary rather than a
// goroutine standing in for one.
type ProcessHandle struct {
	cmd    *exec.Cmd
	conn   *grpc.ClientConn
	client rendezvouspb.RendezvousClient
}

// DialProcessHandle starts cmd (already configured to listen for the
// rendezvous connection at target, typically via an environment
// variable the checked binary reads at startup) and dials it.
func DialProcessHandle(ctx context.Context, cmd *exec.Cmd, target string) (*ProcessHandle, error) {
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("runner: starting checked process: %w", err)
	}
	conn, err := grpc.DialContext(ctx, target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		_ = cmd.Process.Kill()
		return nil, fmt.Errorf("runner: dialing checked process at %s: %w", target, err)
	}
	return &ProcessHandle{cmd: cmd, conn: conn, client: rendezvouspb.NewRendezvousClient(conn)}, nil
}

func (h *ProcessHandle) Step(ctx context.Context) (Descriptor, error) {
	s, err := h.client.Step(ctx, &emptypb.Empty{})
	if err != nil {
		return Descriptor{}, err
	}
	return decodeDescriptor(s)
}

func (h *ProcessHandle) Resume(ctx context.Context) error {
	_, err := h.client.Resume(ctx, &emptypb.Empty{})
	return err
}

func (h *ProcessHandle) Kill() error {
	h.conn.Close()
	if h.cmd.Process != nil {
		return h.cmd.Process.Kill()
	}
	return nil
}

// encodeDescriptor builds the Struct a checked process's rendezvous
// server reports for d. Args.Value must be a type structpb.NewValue
// accepts (nil, bool, float64, string, []interface{},
// map[string]interface{}); ChannelHandle carries arbitrary Go values
// in-process and has no such restriction.
func encodeDescriptor(d Descriptor) (*structpb.Struct, error) {
	ids := make([]interface{}, len(d.ObjIDs))
	for i, id := range d.ObjIDs {
		ids[i] = float64(id)
	}
	m := map[string]interface{}{
		"discriminant": float64(d.Discriminant),
		"obj_ids":      ids,
		"count":        float64(d.Args.Count),
		"threshold":    float64(d.Args.Threshold),
		"name":         d.Args.Name,
	}
	if d.Args.Value != nil {
		m["value"] = d.Args.Value
	}
	return structpb.NewStruct(m)
}

func decodeDescriptor(s *structpb.Struct) (Descriptor, error) {
	fields := s.GetFields()
	discF, ok := fields["discriminant"]
	if !ok {
		return Descriptor{}, fmt.Errorf("runner: rendezvous struct missing discriminant field")
	}

	idValues := fields["obj_ids"].GetListValue().GetValues()
	ids := make([]object.ObjID, len(idValues))
	for i, v := range idValues {
		ids[i] = object.ObjID(int(v.GetNumberValue()))
	}

	args := transition.Args{
		Count:     uint32(fields["count"].GetNumberValue()),
		Threshold: uint32(fields["threshold"].GetNumberValue()),
		Name:      fields["name"].GetStringValue(),
	}
	if v, ok := fields["value"]; ok {
		args.Value = v.AsInterface()
	}

	return Descriptor{
		Discriminant: transition.Discriminant(discF.GetNumberValue()),
		ObjIDs:       ids,
		Args:         args,
	}, nil
}

package codec

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	pb "github.com/danielpatrickdp/analyst-eval/gen/analyst"
	"github.com/danielpatrickdp/analyst-eval/internal/model"
)

// #region server
// ModelServer serves a local model through its capability set.
type ModelServer struct {
	pb.UnimplementedModelServiceServer

	caps model.Capabilities
}

var _ pb.ModelServiceServer = (*ModelServer)(nil)

// NewModelServer exposes caps over the remote model service.
func NewModelServer(caps model.Capabilities) *ModelServer {
	return &ModelServer{caps: caps}
}

// Register attaches the server to s.
func (s *ModelServer) Register(r grpc.ServiceRegistrar) {
	pb.RegisterModelServiceServer(r, s)
}

func (s *ModelServer) Compute(ctx context.Context, in *structpb.ListValue) (*structpb.ListValue, error) {
	if s.caps.Regressor == nil {
		return nil, status.Error(codes.Unimplemented, "model does not regress")
	}
	input, err := decodeVector(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	out, err := s.caps.Regressor.Compute(ctx, input)
	if err != nil {
		return nil, status.Errorf(codes.FailedPrecondition, "compute: %v", err)
	}
	return encodeVector(out), nil
}

func (s *ModelServer) Classify(ctx context.Context, in *structpb.ListValue) (*structpb.ListValue, error) {
	if s.caps.Classifier == nil {
		return nil, status.Error(codes.Unimplemented, "model does not classify")
	}
	input, err := decodeVector(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	idx, err := s.caps.Classifier.Classify(ctx, input)
	if err != nil {
		return nil, status.Errorf(codes.FailedPrecondition, "classify: %v", err)
	}
	return encodeVector([]float64{float64(idx)}), nil
}

// #endregion server

package codec

import (
	"context"
	"errors"
	"fmt"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	pb "github.com/danielpatrickdp/analyst-eval/gen/analyst"
	"github.com/danielpatrickdp/analyst-eval/internal/field"
	"github.com/danielpatrickdp/analyst-eval/internal/model"
)

// #region errors
// ErrBadResponse is returned when the service answers with a non-numeric payload.
var ErrBadResponse = errors.New("malformed model response")

// #endregion errors

// #region client-struct
// RemoteModel wraps the gRPC connection to an external inference service.
type RemoteModel struct {
	conn     *grpc.ClientConn
	client   pb.ModelServiceClient
	classify bool
	regress  bool
}

// #endregion client-struct

// #region constructor
// NewRemoteModel connects to the model service at addr. The flags say
// which capabilities the service exposes.
func NewRemoteModel(addr string, classify, regress bool, opts ...grpc.DialOption) (*RemoteModel, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &RemoteModel{
		conn:     conn,
		client:   pb.NewModelServiceClient(conn),
		classify: classify,
		regress:  regress,
	}, nil
}

// NewRemoteModelWithService creates a RemoteModel with an injected service implementation.
// Used for testing without a real gRPC connection.
func NewRemoteModelWithService(svc pb.ModelServiceClient, classify, regress bool) *RemoteModel {
	return &RemoteModel{client: svc, classify: classify, regress: regress}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (m *RemoteModel) Close() error {
	if m.conn == nil {
		return nil
	}
	return m.conn.Close()
}

// #endregion close

// #region capabilities
// Capabilities returns only the capabilities the service was declared with.
func (m *RemoteModel) Capabilities() model.Capabilities {
	var c model.Capabilities
	if m.classify {
		c.Classifier = m
	}
	if m.regress {
		c.Regressor = m
	}
	return c
}

// #endregion capabilities

// #region compute
// Compute sends the input vector and returns the raw output vector.
func (m *RemoteModel) Compute(ctx context.Context, input field.Vector) (field.Vector, error) {
	resp, err := m.client.Compute(ctx, encodeVector(input))
	if err != nil {
		return nil, fmt.Errorf("compute rpc: %w", err)
	}
	out, err := decodeVector(resp)
	if err != nil {
		return nil, fmt.Errorf("compute rpc: %w", err)
	}
	return out, nil
}

// #endregion compute

// #region classify
// Classify sends the input vector and returns the class index chosen by the service.
func (m *RemoteModel) Classify(ctx context.Context, input field.Vector) (int, error) {
	resp, err := m.client.Classify(ctx, encodeVector(input))
	if err != nil {
		return -1, fmt.Errorf("classify rpc: %w", err)
	}
	out, err := decodeVector(resp)
	if err != nil {
		return -1, fmt.Errorf("classify rpc: %w", err)
	}
	if len(out) != 1 {
		return -1, fmt.Errorf("classify rpc: %d values: %w", len(out), ErrBadResponse)
	}
	v := out[0]
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return -1, fmt.Errorf("classify rpc: class %v: %w", v, ErrBadResponse)
	}
	return int(v), nil
}

// #endregion classify

// #region wire
func encodeVector(v field.Vector) *structpb.ListValue {
	lv := &structpb.ListValue{Values: make([]*structpb.Value, len(v))}
	for i, x := range v {
		lv.Values[i] = structpb.NewNumberValue(x)
	}
	return lv
}

func decodeVector(lv *structpb.ListValue) (field.Vector, error) {
	out := make(field.Vector, len(lv.GetValues()))
	for i, v := range lv.GetValues() {
		n, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, fmt.Errorf("value %d: %w", i, ErrBadResponse)
		}
		out[i] = n.NumberValue
	}
	return out, nil
}

// #endregion wire

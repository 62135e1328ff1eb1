package grpc

// proto.go defines the server interface and messages of bib.lending.v1.LoanDecisionService.
// Messages are plain structs carried by the JSON codec.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "bib.lending.v1.LoanDecisionService"

// Full method names, used by interceptors and clients.
const (
	PredictMethod    = "/" + ServiceName + "/Predict"
	ComputeDTIMethod = "/" + ServiceName + "/ComputeDTI"
)

// PredictRequest carries one loan application. Monetary fields are decimal strings.
type PredictRequest struct {
	LoanAmnt     string `json:"loan_amnt"`
	Term         string `json:"term"`
	AnnualInc    string `json:"annual_inc"`
	FicoRangeLow int32  `json:"fico_range_low"`
	Dti          string `json:"dti"`
}

// PredictResponse is the decision for one application.
type PredictResponse struct {
	Result         string  `json:"result"`
	Probability    float64 `json:"probability"`
	ProbabilityBad float64 `json:"probability_bad"`
	PredictionId   string  `json:"prediction_id"` //nolint:revive // generated-style field name
	ModelVersion   string  `json:"model_version"`
}

// ComputeDTIRequest carries annual income and monthly debt as decimal strings.
type ComputeDTIRequest struct {
	AnnualInc          string `json:"annual_inc"`
	MonthlyDebtPayment string `json:"monthly_debt_payment"`
}

// ComputeDTIResponse carries the ratio in percent.
type ComputeDTIResponse struct {
	Dti float64 `json:"dti"`
}

// LoanDecisionServiceServer is the server API for LoanDecisionService.
type LoanDecisionServiceServer interface {
	Predict(context.Context, *PredictRequest) (*PredictResponse, error)
	ComputeDTI(context.Context, *ComputeDTIRequest) (*ComputeDTIResponse, error)
	mustEmbedUnimplementedLoanDecisionServiceServer()
}

// UnimplementedLoanDecisionServiceServer provides forward-compatible default implementations.
type UnimplementedLoanDecisionServiceServer struct{}

func (UnimplementedLoanDecisionServiceServer) Predict(context.Context, *PredictRequest) (*PredictResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Predict not implemented")
}
func (UnimplementedLoanDecisionServiceServer) ComputeDTI(context.Context, *ComputeDTIRequest) (*ComputeDTIResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ComputeDTI not implemented")
}
func (UnimplementedLoanDecisionServiceServer) mustEmbedUnimplementedLoanDecisionServiceServer() {}

// RegisterLoanDecisionServiceServer registers the LoanDecisionServiceServer with the gRPC server.
func RegisterLoanDecisionServiceServer(s grpclib.ServiceRegistrar, srv LoanDecisionServiceServer) {
	s.RegisterService(&_LoanDecisionService_serviceDesc, srv) //nolint:revive // gRPC handler registration
}

//nolint:revive // gRPC handler registration
var _LoanDecisionService_serviceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LoanDecisionServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "Predict", Handler: _LoanDecisionService_Predict_Handler},       //nolint:revive // gRPC handler registration
		{MethodName: "ComputeDTI", Handler: _LoanDecisionService_ComputeDTI_Handler}, //nolint:revive // gRPC handler registration
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "bib/lending/v1/loan_decision.proto",
}

//nolint:revive,errcheck // gRPC handler registration
func _LoanDecisionService_Predict_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	in := new(PredictRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LoanDecisionServiceServer).Predict(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: PredictMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LoanDecisionServiceServer).Predict(ctx, req.(*PredictRequest))
	}
	return interceptor(ctx, in, info, handler)
}

//nolint:revive,errcheck // gRPC handler registration
func _LoanDecisionService_ComputeDTI_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	in := new(ComputeDTIRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LoanDecisionServiceServer).ComputeDTI(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{
		Server:     srv,
		FullMethod: ComputeDTIMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LoanDecisionServiceServer).ComputeDTI(ctx, req.(*ComputeDTIRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// LoanDecisionServiceClient calls LoanDecisionService over a connection using the JSON codec.
type LoanDecisionServiceClient struct {
	cc grpclib.ClientConnInterface
}

// NewLoanDecisionServiceClient creates a client.
func NewLoanDecisionServiceClient(cc grpclib.ClientConnInterface) *LoanDecisionServiceClient {
	return &LoanDecisionServiceClient{cc: cc}
}

// Predict requests a decision.
func (c *LoanDecisionServiceClient) Predict(ctx context.Context, in *PredictRequest, opts ...grpclib.CallOption) (*PredictResponse, error) {
	out := new(PredictResponse)
	opts = append([]grpclib.CallOption{grpclib.CallContentSubtype(jsonCodec{}.Name())}, opts...)
	if err := c.cc.Invoke(ctx, PredictMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ComputeDTI requests a debt-to-income ratio.
func (c *LoanDecisionServiceClient) ComputeDTI(ctx context.Context, in *ComputeDTIRequest, opts ...grpclib.CallOption) (*ComputeDTIResponse, error) {
	out := new(ComputeDTIResponse)
	opts = append([]grpclib.CallOption{grpclib.CallContentSubtype(jsonCodec{}.Name())}, opts...)
	if err := c.cc.Invoke(ctx, ComputeDTIMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Package grpcapi implements the gRPC Calculator service. Messages are
// protobuf well-known types, so clients need no generated code.
package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lemonberrylabs/rpncalc/pkg/calculator"
	"github.com/lemonberrylabs/rpncalc/pkg/expr"
	"github.com/lemonberrylabs/rpncalc/pkg/store"
	"github.com/lemonberrylabs/rpncalc/pkg/types"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "rpncalc.v1.Calculator"

// ErrorDomain is the ErrorInfo domain attached to calculation failures.
const ErrorDomain = "rpncalc"

// CalculatorServer is the server API for the Calculator service.
type CalculatorServer interface {
	Evaluate(context.Context, *wrapperspb.StringValue) (*wrapperspb.DoubleValue, error)
	Convert(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	Press(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// Server implements the Calculator gRPC service.
type Server struct {
	store *store.Store
	grpc  *grpc.Server
}

// New creates a new gRPC server wrapping the given store.
func New(s *store.Store) *Server {
	srv := &Server{store: s}

	gs := grpc.NewServer(grpc.UnaryInterceptor(logUnary))
	gs.RegisterService(&serviceDesc, srv)
	srv.grpc = gs

	return srv
}

// Serve starts listening on the given address and serves gRPC requests.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.ServeListener(lis)
}

// ServeListener serves gRPC requests on an existing listener.
func (s *Server) ServeListener(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// GracefulStop gracefully stops the gRPC server.
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

// --- Calculator Service ---

// Evaluate evaluates an infix expression and records the calculation.
func (s *Server) Evaluate(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.DoubleValue, error) {
	input := req.GetValue()
	res, err := expr.Calculate(input)

	out := calculator.Outcome{Expression: input}
	if res != nil {
		out.Postfix = expr.Join(res.Postfix)
	}
	if err != nil {
		var ce *types.CalcError
		if !errors.As(err, &ce) {
			ce = &types.CalcError{Message: err.Error(), Pos: -1}
		}
		out.Err = ce
	} else {
		out.Result = res.Value
	}
	s.store.RecordCalculation(out)

	if err != nil {
		return nil, calcStatus(err)
	}
	return wrapperspb.Double(res.Value), nil
}

// Convert returns the postfix tokens of an infix expression.
func (s *Server) Convert(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	postfix, err := expr.ToPostfix(req.GetValue())
	if err != nil {
		return nil, calcStatus(err)
	}
	values := make([]*structpb.Value, len(postfix))
	for i, tok := range postfix {
		values[i] = structpb.NewStringValue(tok.Value)
	}
	return &structpb.ListValue{Values: values}, nil
}

// Press applies key presses to a session. The request struct carries
// "session" (id or full name) and either "key" or "keys".
func (s *Server) Press(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	session := fields["session"].GetStringValue()
	if session == "" {
		return nil, status.Error(codes.InvalidArgument, "session is required")
	}
	if !strings.HasPrefix(session, "sessions/") {
		session = "sessions/" + session
	}

	var keys []string
	if k := fields["key"].GetStringValue(); k != "" {
		keys = append(keys, k)
	}
	for _, v := range fields["keys"].GetListValue().GetValues() {
		keys = append(keys, v.GetStringValue())
	}
	if len(keys) == 0 {
		return nil, status.Error(codes.InvalidArgument, "key or keys is required")
	}

	view, recorded, err := s.store.Press(session, keys...)
	if err != nil {
		if errors.Is(err, calculator.ErrUnknownKey) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.NotFound, err.Error())
	}

	calcs := make([]interface{}, len(recorded))
	for i, calc := range recorded {
		calcs[i] = calculationToMap(calc)
	}
	resp, err := structpb.NewStruct(map[string]interface{}{
		"name":         view.Name,
		"expression":   view.Expression,
		"display":      view.Display,
		"error":        view.Error,
		"calculations": calcs,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// --- Helpers ---

func calculationToMap(calc *store.Calculation) map[string]interface{} {
	m := map[string]interface{}{
		"name":       calc.Name,
		"expression": calc.Expression,
		"state":      string(calc.State),
		"display":    expr.FormatResult(calc.Result),
	}
	if calc.State == store.CalculationFailed {
		m["errorKind"] = string(calc.ErrorKind)
		m["error"] = calc.Error
		delete(m, "display")
	}
	return m
}

// calcStatus maps a calculation error to InvalidArgument with an ErrorInfo
// detail whose reason is the error kind.
func calcStatus(err error) error {
	kind, ok := types.KindOf(err)
	if !ok {
		return status.Error(codes.Internal, err.Error())
	}
	info := &errdetails.ErrorInfo{
		Reason: string(kind),
		Domain: ErrorDomain,
	}
	var ce *types.CalcError
	if errors.As(err, &ce) && ce.Pos >= 0 {
		info.Metadata = map[string]string{"position": fmt.Sprint(ce.Pos)}
	}
	st, derr := status.New(codes.InvalidArgument, err.Error()).WithDetails(info)
	if derr != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return st.Err()
}

// KindFromError extracts the calculation error kind from a gRPC error.
func KindFromError(err error) (types.Kind, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return "", false
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == ErrorDomain {
			return types.ParseKind(info.GetReason())
		}
	}
	return "", false
}

func logUnary(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		log.Printf("grpc %s %s (%v): %v", info.FullMethod, status.Code(err), time.Since(start), err)
	}
	return resp, err
}

// --- Service Descriptor ---

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CalculatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: evaluateHandler},
		{MethodName: "Convert", Handler: convertHandler},
		{MethodName: "Press", Handler: pressHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rpncalc/v1/calculator.proto",
}

func evaluateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalculatorServer).Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Evaluate"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CalculatorServer).Evaluate(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func convertHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalculatorServer).Convert(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Convert"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CalculatorServer).Convert(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func pressHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalculatorServer).Press(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Press"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CalculatorServer).Press(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

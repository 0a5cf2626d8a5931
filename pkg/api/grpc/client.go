package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client is a thin client for the Calculator service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a client using the given connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Evaluate evaluates an infix expression remotely.
func (c *Client) Evaluate(ctx context.Context, expression string, opts ...grpc.CallOption) (float64, error) {
	out := new(wrapperspb.DoubleValue)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Evaluate", wrapperspb.String(expression), out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

// Convert returns the postfix tokens of an infix expression.
func (c *Client) Convert(ctx context.Context, expression string, opts ...grpc.CallOption) ([]string, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Convert", wrapperspb.String(expression), out, opts...); err != nil {
		return nil, err
	}
	tokens := make([]string, len(out.GetValues()))
	for i, v := range out.GetValues() {
		tokens[i] = v.GetStringValue()
	}
	return tokens, nil
}

// Press applies keys to a session and returns the session view.
func (c *Client) Press(ctx context.Context, session string, keys []string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	list := make([]interface{}, len(keys))
	for i, k := range keys {
		list[i] = k
	}
	in, err := structpb.NewStruct(map[string]interface{}{
		"session": session,
		"keys":    list,
	})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Press", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

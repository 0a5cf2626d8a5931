package integration

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	grpcapi "github.com/lemonberrylabs/rpncalc/pkg/api/grpc"
	"github.com/lemonberrylabs/rpncalc/pkg/types"
)

func newGRPCClient(t *testing.T) *grpcapi.Client {
	t.Helper()
	conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return grpcapi.NewClient(conn)
}

func TestGRPC_Evaluate(t *testing.T) {
	client := newGRPCClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := client.Evaluate(ctx, "2+3*4")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != 14 {
		t.Errorf("got %v, want 14", got)
	}

	_, err = client.Evaluate(ctx, "5/0")
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	if kind, _ := grpcapi.KindFromError(err); kind != types.KindDivisionByZero {
		t.Errorf("kind = %q, want DivisionByZero", kind)
	}
}

// Sessions created over REST are usable over gRPC.
func TestGRPC_PressSharedSession(t *testing.T) {
	id := createSession(t, "shared")
	client := newGRPCClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	view, err := client.Press(ctx, id, splitKeys("6*7="))
	if err != nil {
		t.Fatalf("Press: %v", err)
	}
	if got := view.GetFields()["display"].GetStringValue(); got != "42" {
		t.Errorf("display = %q, want 42", got)
	}

	status, body := getJSON(t, apiURL("sessions/"+id))
	if status != 200 || body["display"] != "42" {
		t.Errorf("REST view after gRPC press: %d %v", status, body)
	}
}

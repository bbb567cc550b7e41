package remote

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"vision-worker-go/internal/models"
	"vision-worker-go/internal/services/detection"
)

// fakeServer answers LoadModel and Detect through an unknown-service handler
type fakeServer struct {
	mu       sync.Mutex
	known    map[string]bool
	requests []*structpb.Struct
}

func (s *fakeServer) handle(_ any, stream grpc.ServerStream) error {
	method, _ := grpc.MethodFromServerStream(stream)
	req := &structpb.Struct{}
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	switch method {
	case LoadModelMethod:
		if !s.known[req.GetFields()["model"].GetStringValue()] {
			return status.Error(codes.NotFound, "unknown model")
		}
		resp, _ := structpb.NewStruct(map[string]any{"status": "loaded"})
		return stream.SendMsg(resp)
	case DetectMethod:
		resp, _ := structpb.NewStruct(map[string]any{
			"detections": []any{
				map[string]any{"class_id": 2, "confidence": 0.87, "x1": 1, "y1": 2, "x2": 30, "y2": 40},
				map[string]any{"class_id": 99, "confidence": 0.4},
			},
		})
		return stream.SendMsg(resp)
	}
	return status.Errorf(codes.Unimplemented, "method %s", method)
}

func startServer(t *testing.T, fs *fakeServer) *Loader {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnknownServiceHandler(fs.handle))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	return NewLoader(Options{
		Endpoint: "passthrough:///bufnet",
		Timeout:  2 * time.Second,
		Logger:   zerolog.Nop(),
		DialOptions: []grpc.DialOption{
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}),
		},
	})
}

func TestRemoteEngineDetect(t *testing.T) {
	fs := &fakeServer{known: map[string]bool{"yolo11n": true}}
	loader := startServer(t, fs)

	e, err := detection.NewLive(context.Background(), detection.KindRemote, loader, detection.LiveOptions{
		Catalog:    detection.NewCatalog(map[string]string{"yolo11n": "models/best.onnx"}, []string{"yolo11n"}),
		ClassNames: []string{"AS", "KS", "10H"},
		Model:      "yolo11n",
		Logger:     zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewLive: %v", err)
	}
	defer e.Close()

	dets, err := e.Detect(context.Background(), models.NewFrame(64, 48), 0.3)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(dets) != 2 {
		t.Fatalf("len = %d, want 2", len(dets))
	}
	if dets[0].ClassName != "TH" || dets[0].Confidence != 0.87 {
		t.Errorf("first = %+v", dets[0])
	}
	if *dets[0].BBox != (models.Box{X1: 1, Y1: 2, X2: 30, Y2: 40}) {
		t.Errorf("bbox = %+v", *dets[0].BBox)
	}
	if dets[1].ClassName != "class_99" {
		t.Errorf("second = %q, want class_99", dets[1].ClassName)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	last := fs.requests[len(fs.requests)-1].GetFields()
	if last["format"].GetStringValue() != "jpeg" || last["image"].GetStringValue() == "" {
		t.Errorf("detect request = %v", last)
	}
	if last["width"].GetNumberValue() != 64 || last["height"].GetNumberValue() != 48 {
		t.Errorf("geometry = %v x %v", last["width"], last["height"])
	}
}

func TestRemoteLoadRejected(t *testing.T) {
	loader := startServer(t, &fakeServer{known: map[string]bool{}})

	_, err := detection.NewLive(context.Background(), detection.KindRemote, loader, detection.LiveOptions{
		Catalog: detection.NewCatalog(map[string]string{"yolo11n": "models/best.onnx"}, []string{"yolo11n"}),
		Model:   "yolo11n",
	})
	var le *detection.ModelLoadError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want *ModelLoadError", err)
	}
	if status.Code(errors.Unwrap(le.Err)) != codes.NotFound {
		t.Errorf("cause = %v, want NotFound", le.Err)
	}
}

func TestParseGRPCEndpoint(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		secure  bool
		wantErr bool
	}{
		{"localhost:50052", "localhost:50052", false, false},
		{"inference.example.com", "inference.example.com:443", true, false},
		{"inference.example.com:8443", "inference.example.com:8443", true, false},
		{"http://10.0.0.5", "10.0.0.5:80", false, false},
		{"passthrough:///bufnet", "passthrough:///bufnet", false, false},
		{"ftp://host:21", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, creds, err := parseGRPCEndpoint(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("err = %v", err)
			}
			if got != tt.want {
				t.Errorf("target = %q, want %q", got, tt.want)
			}
			if secure := creds.Info().SecurityProtocol == "tls"; secure != tt.secure {
				t.Errorf("tls = %v, want %v", secure, tt.secure)
			}
		})
	}
}

func TestWithEndpoint(t *testing.T) {
	l := NewLoader(Options{Endpoint: "a:1"})
	if got := l.WithEndpoint("").opts.Endpoint; got != "a:1" {
		t.Errorf("empty override = %q", got)
	}
	if got := l.WithEndpoint("b:2").opts.Endpoint; got != "b:2" {
		t.Errorf("override = %q", got)
	}
	if l.opts.Endpoint != "a:1" {
		t.Error("WithEndpoint mutated receiver")
	}
}

// Package remote forwards frames to an out-of-process inference server over
// gRPC. Messages are google.protobuf.Struct so no generated stubs are needed.
package remote

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"vision-worker-go/internal/helpers"
	"vision-worker-go/internal/models"
	"vision-worker-go/internal/services/detection"
)

const (
	ServiceName     = "vision.inference.v1.InferenceService"
	LoadModelMethod = "/" + ServiceName + "/LoadModel"
	DetectMethod    = "/" + ServiceName + "/Detect"
)

// Options configure the client side of the inference service
type Options struct {
	Endpoint    string
	Timeout     time.Duration
	JPEGQuality int
	DialOptions []grpc.DialOption
	Logger      zerolog.Logger
}

// Loader opens one connection per loaded model. LoadModel on the server
// doubles as the health check.
type Loader struct {
	opts Options
}

func NewLoader(opts Options) *Loader {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = helpers.MediumQuality
	}
	return &Loader{opts: opts}
}

// WithEndpoint returns a copy of the loader targeting endpoint. An empty
// endpoint keeps the current one.
func (l *Loader) WithEndpoint(endpoint string) *Loader {
	opts := l.opts
	if endpoint != "" {
		opts.Endpoint = endpoint
	}
	return &Loader{opts: opts}
}

func (l *Loader) Load(ctx context.Context, id, path string) (detection.Model, error) {
	target, creds, err := parseGRPCEndpoint(l.opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse inference endpoint %s: %w", l.opts.Endpoint, err)
	}

	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, l.opts.DialOptions...)
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to inference service at %s: %w", target, err)
	}

	req, err := structpb.NewStruct(map[string]any{"model": id, "path": path})
	if err != nil {
		conn.Close()
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	resp := &structpb.Struct{}
	if err := conn.Invoke(callCtx, LoadModelMethod, req, resp); err != nil {
		conn.Close()
		return nil, fmt.Errorf("inference service rejected model %s: %w", id, err)
	}

	l.opts.Logger.Info().
		Str("endpoint", target).
		Str("model", id).
		Msg("Remote model ready")

	return &model{conn: conn, id: id, timeout: l.opts.Timeout, quality: l.opts.JPEGQuality}, nil
}

type model struct {
	conn    *grpc.ClientConn
	id      string
	timeout time.Duration
	quality int
}

func (m *model) Infer(ctx context.Context, frame *models.Frame) ([]detection.RawDetection, error) {
	jpg, err := helpers.EncodeJPEG(frame, m.quality)
	if err != nil {
		return nil, err
	}

	req, err := structpb.NewStruct(map[string]any{
		"model":  m.id,
		"format": "jpeg",
		"image":  base64.StdEncoding.EncodeToString(jpg),
		"width":  frame.Width,
		"height": frame.Height,
	})
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp := &structpb.Struct{}
	if err := m.conn.Invoke(callCtx, DetectMethod, req, resp); err != nil {
		return nil, fmt.Errorf("remote inference failed: %w", err)
	}
	return decodeDetections(resp), nil
}

func (m *model) Close() error {
	return m.conn.Close()
}

// decodeDetections reads {"detections": [{class_id, confidence, x1, y1, x2, y2}]}.
// Missing numeric fields read as zero.
func decodeDetections(resp *structpb.Struct) []detection.RawDetection {
	values := resp.GetFields()["detections"].GetListValue().GetValues()
	out := make([]detection.RawDetection, 0, len(values))
	for _, v := range values {
		f := v.GetStructValue().GetFields()
		num := func(key string) float64 { return f[key].GetNumberValue() }
		out = append(out, detection.RawDetection{
			ClassID:    int(num("class_id")),
			Confidence: num("confidence"),
			Box: models.Box{
				X1: int(num("x1")), Y1: int(num("y1")),
				X2: int(num("x2")), Y2: int(num("y2")),
			},
		})
	}
	return out
}

// parseGRPCEndpoint normalizes host[:port] or http(s):// URLs into a dial
// target and credentials. gRPC resolver schemes are passed through as-is.
func parseGRPCEndpoint(endpoint string) (string, credentials.TransportCredentials, error) {
	for _, scheme := range []string{"passthrough:", "dns:", "unix:"} {
		if strings.HasPrefix(endpoint, scheme) {
			return endpoint, insecure.NewCredentials(), nil
		}
	}

	// Add scheme if missing
	if !strings.Contains(endpoint, "://") {
		host, port, found := strings.Cut(endpoint, ":")
		switch {
		case !found && strings.Contains(host, "."):
			endpoint = "https://" + endpoint + ":443"
		case found:
			if p, err := strconv.Atoi(port); err == nil && (p == 443 || p == 8443 || p == 9443) {
				endpoint = "https://" + endpoint
			} else {
				endpoint = "http://" + endpoint
			}
		default:
			endpoint = "http://" + endpoint + ":80"
		}
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", nil, fmt.Errorf("invalid endpoint URL: %w", err)
	}
	if u.Hostname() == "" {
		return "", nil, fmt.Errorf("endpoint %q has no host", endpoint)
	}

	host := u.Host
	if u.Port() == "" {
		switch u.Scheme {
		case "https":
			host = u.Hostname() + ":443"
		case "http":
			host = u.Hostname() + ":80"
		default:
			return "", nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
		}
	}

	switch u.Scheme {
	case "https":
		return host, credentials.NewTLS(&tls.Config{ServerName: u.Hostname()}), nil
	case "http":
		return host, insecure.NewCredentials(), nil
	default:
		return "", nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
}

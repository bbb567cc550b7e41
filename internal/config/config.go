package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// DefaultClassNames is the playing-card label table the bundled model was trained on.
var DefaultClassNames = []string{
	"10C", "10D", "10H", "10S", "2C", "2D", "2H", "2S", "3C", "3D", "3H", "3S",
	"4C", "4D", "4H", "4S", "5C", "5D", "5H", "5S", "6C", "6D", "6H", "6S",
	"7C", "7D", "7H", "7S", "8C", "8D", "8H", "8S", "9C", "9D", "9H", "9S",
	"AC", "AD", "AH", "AS", "JC", "JD", "JH", "JS", "KC", "KD", "KH", "KS",
	"QC", "QD", "QH", "QS",
}

type Config struct {
	// Application
	Version     string
	Environment string
	WorkerID    string
	Host        string
	Port        int
	LogLevel    string

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// Simulation runs without camera hardware or model artifacts
	SimulationMode bool

	// Detection
	DetectionEngine    string
	DefaultModel       string
	ModelPaths         map[string]string
	ModelOrder         []string
	ClassNames         []string
	DetectionThreshold float64
	NMSThreshold       float64
	ModelInputSize     int

	// Remote inference (gRPC)
	RemoteGRPCURL string
	RemoteTimeout time.Duration

	// Capture
	CaptureInterval time.Duration
	ImageWidth      int
	ImageHeight     int
	CameraDevice    string
	CameraWarmup    time.Duration

	// Operational log buffer
	LogBufferSize int
	LogDetections bool

	// Detection events: "none", "nats" or "mqtt"
	EventsBackend string
	EventsSubject string
	EventsBuffer  int

	// NATS
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int

	// MQTT
	MQTTBroker   string
	MQTTClientID string
	MQTTQoS      int

	// Streaming
	StreamFPS   int
	JPEGQuality int

	// Swagger Configuration
	SwaggerHost string

	// Graceful Shutdown
	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found or error loading .env file, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	modelPaths, modelOrder := parseModelPaths(getEnv("MODEL_PATHS", "yolo11n=models/best.onnx"))
	workerID := getEnv("WORKER_ID", "worker-1")

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		WorkerID:    workerID,
		Host:        getEnv("HOST", "0.0.0.0"),
		Port:        getEnvInt("PORT", 7926),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Logdy
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		SimulationMode: getEnvBool("SIMULATION_MODE", false),

		// Detection
		DetectionEngine:    getEnv("DETECTION_ENGINE", "yolo"),
		DefaultModel:       getEnv("DEFAULT_MODEL", "yolo11n"),
		ModelPaths:         modelPaths,
		ModelOrder:         modelOrder,
		ClassNames:         getEnvList("CLASS_NAMES", DefaultClassNames),
		DetectionThreshold: getEnvFloat("DETECTION_THRESHOLD", 0.3),
		NMSThreshold:       getEnvFloat("NMS_THRESHOLD", 0.45),
		ModelInputSize:     getEnvInt("MODEL_INPUT_SIZE", 640),

		// Remote inference
		RemoteGRPCURL: getEnv("REMOTE_GRPC_URL", "localhost:50052"),
		RemoteTimeout: getEnvDuration("REMOTE_TIMEOUT", 5*time.Second),

		// Capture
		CaptureInterval: getEnvDuration("CAPTURE_INTERVAL", 100*time.Millisecond),
		ImageWidth:      getEnvInt("IMAGE_WIDTH", 1200),
		ImageHeight:     getEnvInt("IMAGE_HEIGHT", 640),
		CameraDevice:    getEnv("CAMERA_DEVICE", "0"),
		CameraWarmup:    getEnvDuration("CAMERA_WARMUP", 2*time.Second),

		// Log buffer
		LogBufferSize: getEnvInt("LOG_BUFFER_SIZE", 1000),
		LogDetections: getEnvBool("LOG_DETECTIONS", true),

		// Events
		EventsBackend: strings.ToLower(getEnv("EVENTS_BACKEND", "none")),
		EventsSubject: getEnv("EVENTS_SUBJECT", "detections"),
		EventsBuffer:  getEnvInt("EVENTS_BUFFER", 32),

		// NATS
		NatsURL:            getNatsURL(),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited

		// MQTT
		MQTTBroker:   getEnv("MQTT_BROKER", "localhost:1883"),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", workerID),
		MQTTQoS:      getEnvInt("MQTT_QOS", 0),

		// Streaming
		StreamFPS:   getEnvInt("STREAM_FPS", 10),
		JPEGQuality: getEnvInt("JPEG_QUALITY", 85),

		SwaggerHost: getEnv("SWAGGER_HOST", "localhost:7926"),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Address is the listen address for the HTTP server
func (c *Config) Address() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		out := make([]string, len(defaultValue))
		copy(out, defaultValue)
		return out
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseModelPaths reads "id=path,id2=path2". Order of first appearance is kept
// so the model listing is stable.
func parseModelPaths(value string) (map[string]string, []string) {
	paths := make(map[string]string)
	var order []string
	for _, part := range strings.Split(value, ",") {
		id, path, ok := strings.Cut(strings.TrimSpace(part), "=")
		id, path = strings.TrimSpace(id), strings.TrimSpace(path)
		if !ok || id == "" || path == "" {
			continue
		}
		if _, seen := paths[id]; !seen {
			order = append(order, id)
		}
		paths[id] = path
	}
	return paths, order
}

// Helper functions for Docker environment detection
func isRunningInDocker() bool {
	if os.Getenv("DOCKER_CONTAINER") == "true" {
		return true
	}

	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	return false
}

// getNatsURL returns the appropriate NATS URL based on environment
func getNatsURL() string {
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		return envURL
	}

	// If running in Docker, use service name; otherwise use localhost
	if isRunningInDocker() {
		return "nats://nats:4222"
	}

	return "nats://localhost:4222"
}

package bootstrap

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerAddr string
	LogLevel   string

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	FrameTTL      time.Duration

	QdrantHost   string
	QdrantPort   int
	QdrantAPIKey string

	TTSAddress       string
	TTSVoice         string
	TTSRate          float64
	DetectorAddress  string
	ExtractorAddress string
	PlannerAddress   string
	PlannerAPIKey    string

	GPSPort      string
	GPSBaudRate  int
	GPSMock      bool
	RangePort    string
	RangeBaud    int
	RangeMock    bool

	FrameWidth  int
	FrameHeight int
	SensorFOV   float64
	CameraFOV   float64

	AnnounceDistance float64
	RerouteDistance  float64
	ArrivalDistance  float64

	TrackingTimeout time.Duration
	IoUThreshold    float64

	MatchThreshold   float64
	EnrollmentFrames int

	UpdateInterval time.Duration
}

func LoadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		DatabaseDSN: getEnv("DATABASE_DSN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       0,
		FrameTTL:      time.Duration(getEnvInt("FRAME_TTL_SEC", 60)) * time.Second,

		QdrantHost:   getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:   6334,
		QdrantAPIKey: getEnv("QDRANT_API_KEY", ""),

		TTSAddress:       getEnv("TTS_ADDRESS", "http://localhost:5002"),
		TTSVoice:         getEnv("TTS_VOICE", "default"),
		TTSRate:          getEnvFloat("TTS_RATE", 1.0),
		DetectorAddress:  getEnv("DETECTOR_ADDRESS", "http://localhost:5003"),
		ExtractorAddress: getEnv("EXTRACTOR_ADDRESS", "http://localhost:5004"),
		PlannerAddress:   getEnv("PLANNER_ADDRESS", "https://maps.googleapis.com"),
		PlannerAPIKey:    getEnv("PLANNER_API_KEY", ""),

		GPSPort:     getEnv("GPS_PORT", "/dev/ttyUSB0"),
		GPSBaudRate: getEnvInt("GPS_BAUD", 9600),
		GPSMock:     getEnv("GPS_MOCK", "false") == "true",
		RangePort:   getEnv("RANGE_PORT", "/dev/ttyACM0"),
		RangeBaud:   getEnvInt("RANGE_BAUD", 115200),
		RangeMock:   getEnv("RANGE_MOCK", "false") == "true",

		FrameWidth:  getEnvInt("FRAME_WIDTH", 640),
		FrameHeight: getEnvInt("FRAME_HEIGHT", 480),
		SensorFOV:   getEnvFloat("SENSOR_FOV_DEG", 15),
		CameraFOV:   getEnvFloat("CAMERA_FOV_DEG", 60),

		AnnounceDistance: getEnvFloat("ANNOUNCE_DISTANCE_M", 50),
		RerouteDistance:  getEnvFloat("REROUTE_DISTANCE_M", 30),
		ArrivalDistance:  getEnvFloat("ARRIVAL_DISTANCE_M", 20),

		TrackingTimeout: time.Duration(getEnvFloat("TRACKING_TIMEOUT_SEC", 3) * float64(time.Second)),
		IoUThreshold:    getEnvFloat("IOU_THRESHOLD", 0.3),

		MatchThreshold:   getEnvFloat("MATCH_THRESHOLD", 0.5),
		EnrollmentFrames: getEnvInt("ENROLLMENT_FRAMES", 5),

		UpdateInterval: time.Duration(getEnvInt("NAV_UPDATE_INTERVAL_MS", 1000)) * time.Millisecond,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr            string
	PostgresURL     string
	RedisURL        string
	KafkaBrokers    []string
	KafkaAuditTopic string
	JWTSigningKey   string
	SignedURLSecret string
	SignedURLBase   string
	SignedURLTTL    time.Duration
	DescriptorsPath string
	DataDir         string
}

// SignedURLDefaultTTL bounds read access to stored documents.
const SignedURLDefaultTTL = 15 * time.Minute

// FromEnv builds a Server config from environment variables so main stays
// lean. Empty PostgresURL/RedisURL/KafkaBrokers select the in-memory or
// disabled variants; production deployments set all three.
func FromEnv() Server {
	addr := os.Getenv("SEACERT_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	signedURLSecret := os.Getenv("SIGNED_URL_SECRET")
	if signedURLSecret == "" {
		signedURLSecret = jwtSigningKey
	}

	signedURLBase := os.Getenv("SIGNED_URL_BASE")
	if signedURLBase == "" {
		signedURLBase = "http://localhost:8080"
	}

	ttl := SignedURLDefaultTTL
	if raw := os.Getenv("SIGNED_URL_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			ttl = parsed
		}
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "seacert.audit"
	}

	return Server{
		Addr:            addr,
		PostgresURL:     os.Getenv("POSTGRES_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		KafkaBrokers:    brokers,
		KafkaAuditTopic: topic,
		JWTSigningKey:   jwtSigningKey,
		SignedURLSecret: signedURLSecret,
		SignedURLBase:   signedURLBase,
		SignedURLTTL:    ttl,
		DescriptorsPath: os.Getenv("DESCRIPTORS_PATH"),
		DataDir:         os.Getenv("SEACERT_DATA_DIR"),
	}
}

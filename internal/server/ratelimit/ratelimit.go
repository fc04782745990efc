// Package ratelimit provides per-client request limiting using token buckets.
// Deck generation burns LLM quota and minutes of compute per request, so the
// expensive routes get much stricter limits than reads.
package ratelimit

import (
	"os"
	"strconv"
	"sync"
	"time"
)

// tokenBucket refills at a steady rate up to a burst capacity.
type tokenBucket struct {
	mu         sync.Mutex
	capacity   int
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
}

func newTokenBucket(capacity int, refillRate float64) *tokenBucket {
	return &tokenBucket{
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

func (tb *tokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	tb.tokens += now.Sub(tb.lastRefill).Seconds() * tb.refillRate
	if tb.tokens > float64(tb.capacity) {
		tb.tokens = float64(tb.capacity)
	}
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// Rule limits one class of requests.
type Rule struct {
	// Generate marks the expensive deck-generation tier.
	Limit  int
	Window time.Duration
	Burst  int
}

// Config holds the limiter configuration.
type Config struct {
	Enabled bool
	// Generate applies to job-creating routes; Default to everything else.
	Generate        Rule
	Default         Rule
	CleanupInterval time.Duration
}

// LoadConfig reads the limiter configuration from the environment.
func LoadConfig() *Config {
	return &Config{
		Enabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		Generate: Rule{
			Limit:  getEnvInt("RATE_LIMIT_GENERATE_LIMIT", 10),
			Window: time.Hour,
			Burst:  getEnvInt("RATE_LIMIT_GENERATE_BURST", 3),
		},
		Default: Rule{
			Limit:  getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", 600),
			Window: time.Minute,
			Burst:  getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", 600),
		},
		CleanupInterval: 5 * time.Minute,
	}
}

// Limiter tracks one bucket per client and tier.
type Limiter struct {
	mu          sync.Mutex
	config      *Config
	buckets     map[string]*tokenBucket
	lastAccess  map[string]time.Time
	cleanupStop chan struct{}
}

// NewLimiter creates a limiter and starts its idle-bucket cleanup.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = LoadConfig()
	}
	l := &Limiter{
		config:      config,
		buckets:     make(map[string]*tokenBucket),
		lastAccess:  make(map[string]time.Time),
		cleanupStop: make(chan struct{}),
	}
	if config.Enabled && config.CleanupInterval > 0 {
		go l.cleanupLoop()
	}
	return l
}

// Allow reports whether clientID may make one more request of the given
// class. expensive selects the deck-generation tier.
func (l *Limiter) Allow(clientID string, expensive bool) bool {
	if !l.config.Enabled {
		return true
	}

	rule := l.config.Default
	tier := "default"
	if expensive {
		rule = l.config.Generate
		tier = "generate"
	}
	if rule.Limit <= 0 {
		return true
	}

	key := clientID + ":" + tier

	l.mu.Lock()
	bucket, ok := l.buckets[key]
	if !ok {
		burst := rule.Burst
		if burst <= 0 {
			burst = rule.Limit
		}
		bucket = newTokenBucket(burst, float64(rule.Limit)/rule.Window.Seconds())
		l.buckets[key] = bucket
	}
	l.lastAccess[key] = time.Now()
	l.mu.Unlock()

	return bucket.allow()
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.dropIdle(time.Hour)
		case <-l.cleanupStop:
			return
		}
	}
}

// dropIdle removes buckets not used within maxIdle.
func (l *Limiter) dropIdle(maxIdle time.Duration) {
	cutoff := time.Now().Add(-maxIdle)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, last := range l.lastAccess {
		if last.Before(cutoff) {
			delete(l.buckets, key)
			delete(l.lastAccess, key)
		}
	}
}

// Stop terminates the cleanup goroutine.
func (l *Limiter) Stop() {
	select {
	case <-l.cleanupStop:
	default:
		close(l.cleanupStop)
	}
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

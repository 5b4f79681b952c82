package api

import "github.com/okian/scoreboard/pkg/logger"

const defaultMaxLimit = 100

type serverConfig struct {
	maxLimit int
}

// Option applies a configuration option to the Server.
type Option func(*Server, *serverConfig)

// WithMaxLimit caps GET /scores?limit.
func WithMaxLimit(n int) Option {
	return func(_ *Server, c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// WithCORSOrigin sets Access-Control-Allow-Origin.
func WithCORSOrigin(origin string) Option {
	return func(s *Server, _ *serverConfig) {
		if origin != "" {
			s.corsOrigin = origin
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server, _ *serverConfig) {
		if l != nil {
			s.logger = l
		}
	}
}

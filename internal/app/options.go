package service

import "github.com/okian/scoreboard/pkg/logger"

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDefaultLimit sets how many distinct scores Leaderboard returns.
func WithDefaultLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultLimit = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

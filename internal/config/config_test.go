package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/scoreboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.DBPath, convey.ShouldEqual, "data/score.db")
			convey.So(cfg.MaxOpenConns, convey.ShouldEqual, 4)
			convey.So(cfg.DefaultLimit, convey.ShouldEqual, 10)
			convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
			convey.So(cfg.AcquireTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.BusyTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with a single invalid field", t, func() {
		cases := map[string]func(c *config.Config){
			"addr must not be empty":          func(c *config.Config) { c.Addr = " " },
			"db_path must not be empty":       func(c *config.Config) { c.DBPath = "" },
			"max_open_conns must be positive": func(c *config.Config) { c.MaxOpenConns = 0 },
			"acquire_timeout_ms":              func(c *config.Config) { c.AcquireTimeoutMS = 0 },
			"busy_timeout_ms":                 func(c *config.Config) { c.BusyTimeoutMS = -1 },
			"max_leaderboard_limit":           func(c *config.Config) { c.MaxLeaderboardLimit = 0 },
			"default_limit":                   func(c *config.Config) { c.DefaultLimit = 101 },
		}
		for msg, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, msg)
		}
	})
}

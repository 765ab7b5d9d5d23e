// Package config provides configuration management for the Mao client.
//
// The config package handles:
//   - Defaults matching the production server and reliability policy
//   - Loading overrides from a TOML file
//   - Environment overrides (MAO_*), typically loaded from a .env file
//   - Validation and conversion to session settings
//
// Precedence:
//
// Later sources win: defaults, then the TOML file, then the environment,
// then command-line flags applied by the caller. Only keys present in the
// TOML file override the defaults.
//
// Configuration Format:
//
//	url = "wss://mao.fly.dev/ws"
//	keepalive_interval = "20s"
//	http_addr = "127.0.0.1:8080"
//	queue_dir = ".mao"
//
//	[backoff]
//	base = "1s"
//	max = "30s"
//	max_exponent = 6
//	jitter = "400ms"
//
// Durations are Go duration strings.
//
// Usage:
//
//	cfg, err := config.Load("mao.toml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := config.ApplyEnv(&cfg); err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
//	s := session.New(cfg.SessionConfig())
package config

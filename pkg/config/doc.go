// Package config loads environment-based configuration structs for the
// metering engine's storage adapters (pg.Config, redis.Config,
// mongo.Config) and anything else tagged with env struct tags.
//
// A .env file is loaded once per process if present; each config type is
// parsed once and cached, so repeated Load calls across packages are cheap
// and consistent.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
package config

// Package redis provides Redis connection management for the metering
// engine: client construction with startup retry and a health check closure
// for readiness probes. The resulting client backs meter.RedisStorage.
package redis

// Package integration exercises the services together. The end-to-end HTTP
// scenarios run with in-memory stores; tests that need real Postgres, Kafka
// and Redis containers are behind the "integration" build tag.
package integration

package models

import (
	"fmt"

	"github.com/go-redis/redis/v7"
)

/**
open the record store for the configured backend. redisClient is only used by the "redis" backend
*/
func OpenRecordStore(backend string, sqlitePath string, redisClient *redis.Client) (RecordStore, error) {
	switch backend {
	case "redis":
		return NewRedisRecordStore(redisClient), nil
	case "sqlite":
		return OpenSqliteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unknown store backend '%s'", backend)
	}
}

package helpers

import (
	"github.com/go-redis/redis/v7"
	log "github.com/sirupsen/logrus"
)

func SetupRedis(config *RedisConfig) (*redis.Client, error) {
	log.Printf("Connecting to Redis on %s", config.Address)
	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DBNum,
	})

	_, err := client.Ping().Result()
	if err != nil {
		log.Printf("Could not contact Redis: %s", err)
		return nil, err
	}
	log.Printf("Done.")
	return client, nil
}

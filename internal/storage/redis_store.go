package storage

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/example/ride-marketplace/internal/models"
)

// RedisStore mirrors rides and accounts into redis as JSON values keyed
// by ride id and account owner. It serves deployments that want a shared
// key-value view without a relational schema.
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisStore(addr, password string) *RedisStore {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisStore{client: c, ctx: context.Background()}
}

func (s *RedisStore) SaveRide(r *models.Ride) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.client.Set(s.ctx, rideKey(r.ID), b, 0).Err()
}

func (s *RedisStore) UpdateRide(r *models.Ride) error {
	return s.SaveRide(r)
}

func (s *RedisStore) SaveAccount(a *models.Account) error {
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return s.client.Set(s.ctx, accountKey(a.OwnerID), b, 0).Err()
}

func rideKey(id string) string    { return "ride:" + id }
func accountKey(id string) string { return "account:" + id }

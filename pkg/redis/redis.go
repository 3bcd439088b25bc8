package redis

import (
	"PoseCoach/internal/entity"
	"context"
	"errors"
	"fmt"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"os"
	"strconv"
	"time"
)

const keypointKeyPrefix = "pose:keypoints:"

// IRedis caches estimator output per frame digest. A miss is reported as
// (nil, nil).
type IRedis interface {
	GetKeypoints(ctx context.Context, digest string) (*entity.PoseEstimation, error)
	SetKeypoints(ctx context.Context, digest string, estimation *entity.PoseEstimation) error
	Ping(ctx context.Context) error
	Close() error
}

type redisClient struct {
	client *redis.Client
	ttl    time.Duration
}

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	ttl, err := time.ParseDuration(os.Getenv("KEYPOINT_CACHE_TTL"))
	if err != nil || ttl <= 0 {
		ttl = 10 * time.Minute
	}

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client, ttl: ttl}
}

func (r *redisClient) GetKeypoints(ctx context.Context, digest string) (*entity.PoseEstimation, error) {
	key := keypointKeyPrefix + digest

	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		logrus.Debug(fmt.Sprintf("Keypoint cache miss for %s", key))
		return nil, nil
	} else if err != nil {
		logrus.Error(fmt.Sprintf("Error reading keypoint cache %s: %v", key, err))
		return nil, err
	}

	var estimation entity.PoseEstimation
	if err := jsoniter.Unmarshal(val, &estimation); err != nil {
		logrus.Warn(fmt.Sprintf("Dropping corrupt keypoint cache entry %s: %v", key, err))
		r.client.Del(ctx, key)
		return nil, nil
	}

	logrus.Debug(fmt.Sprintf("Keypoint cache hit for %s", key))
	return &estimation, nil
}

func (r *redisClient) SetKeypoints(ctx context.Context, digest string, estimation *entity.PoseEstimation) error {
	key := keypointKeyPrefix + digest

	payload, err := jsoniter.Marshal(estimation)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		logrus.Error(fmt.Sprintf("Error writing keypoint cache %s: %v", key, err))
		return err
	}

	return nil
}

func (r *redisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisClient) Close() error {
	return r.client.Close()
}

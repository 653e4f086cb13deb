package redis

import (
	"vitaai.com/prontuario/utils/maps"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/bsm/redislock"
	"github.com/go-redis/redis/v8"
	"github.com/kelseyhightower/envconfig"
	"time"
)

type DB int
type ReleaseLock func() error

var ErrNotFound = errors.New("document not found")

type Client struct {
	client         redis.UniversalClient
	lockExpiration time.Duration
	lockRetries    int
}

type Config struct {
	LockExpirationSeconds   int     `envconfig:"VITA_REDIS_LOCK_EXPIRATION" default:"3"`
	LockRetries             int     `envconfig:"VITA_REDIS_LOCK_RETRIES" default:"20"`
	Host                    string  `envconfig:"VITA_REDIS_HOST" required:"true"`
	Port                    string  `envconfig:"VITA_REDIS_PORT" required:"true"`
	HASentinelPort          string  `envconfig:"VITA_REDIS_HA_SENTINEL_PORT" default:"26379"`
	HASentinelMasterName    string  `envconfig:"VITA_REDIS_HA_MASTER_NAME" default:"mymaster"`
	Password                string  `envconfig:"VITA_REDIS_AUTH_PASSWORD" default:""`
	AuthRequired            bool    `envconfig:"VITA_REDIS_AUTH_REQUIRED" default:"false"`
	HAMode                  bool    `envconfig:"VITA_REDIS_HA_MODE" default:"false"`
	HASentinelSocketTimeout float32 `envconfig:"VITA_REDIS_SOCKET_TIMEOUT" default:"0.5"`
}

func NewClient(db DB) (Client, error) {
	cfg, err := readEnvironment()
	if err != nil {
		return Client{}, err
	}
	var client redis.UniversalClient
	if cfg.HAMode {
		client = CreateFailoverClient(cfg, db)
	} else {
		client = CreateClient(cfg, db)
	}
	return Wrap(client, cfg), nil
}

// Wrap builds a Client around an existing connection.
func Wrap(client redis.UniversalClient, cfg *Config) Client {
	return Client{
		client:         client,
		lockExpiration: time.Duration(cfg.LockExpirationSeconds) * time.Second,
		lockRetries:    cfg.LockRetries,
	}
}

func CreateFailoverClient(cfg *Config, db DB) *redis.ClusterClient {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.HASentinelPort)
	timeout := time.Duration(float64(cfg.HASentinelSocketTimeout) * float64(time.Second))
	options := redis.FailoverOptions{
		SentinelAddrs: []string{addr},
		ReadTimeout:   timeout,
		WriteTimeout:  timeout,
		MaxRetries:    6,
		DB:            int(db),
		MasterName:    cfg.HASentinelMasterName,
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewFailoverClusterClient(&options)
}

func CreateClient(cfg *Config, db DB) *redis.Client {
	options := redis.Options{
		Addr:       fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		MaxRetries: 6,
		DB:         int(db),
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewClient(&options)
}

// GetPartialDocument loads the JSON object stored at redisKey into doc.
// A missing key is reported as ErrNotFound.
func (client *Client) GetPartialDocument(ctx context.Context, redisKey string, doc maps.PartialDocument) error {
	b, err := client.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%s: %w", redisKey, ErrNotFound)
	}
	if err != nil {
		return err
	}
	var raw map[string]interface{}
	if err = json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%s holds malformed json: %w", redisKey, err)
	}
	return maps.FillFromMap(doc, raw)
}

// UpdatePartialDocument runs updateFunc against the stored document under the key lock.
// With create set, a missing document starts out empty.
func (client *Client) UpdatePartialDocument(
	ctx context.Context,
	redisKey string,
	doc maps.PartialDocument,
	create bool,
	updateFunc interface{}) (err error) {
	releaseLock, err := client.Lock(ctx, redisKey)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := releaseLock(); err == nil {
			err = releaseErr
		}
	}()
	err = client.GetPartialDocument(ctx, redisKey, doc)
	if errors.Is(err, ErrNotFound) && create {
		err = maps.FillFromMap(doc, nil)
	}
	if err != nil {
		return err
	}
	if err = maps.ApplyUpdates(doc, updateFunc); err != nil {
		return err
	}
	return client.SaveDoc(ctx, redisKey, doc)
}

func (client *Client) Lock(ctx context.Context, redisKey string) (ReleaseLock, error) {
	lockCl := redislock.New(client.client)
	str := redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), client.lockRetries)
	lockKey := fmt.Sprintf("lock:%s", redisKey)
	lock, err := lockCl.Obtain(ctx, lockKey, client.lockExpiration, &redislock.Options{RetryStrategy: str})
	if err != nil {
		return nil, fmt.Errorf("could not lock %s: %w", redisKey, err)
	}
	return func() error {
		return lock.Release(context.Background())
	}, nil
}

func (client *Client) SaveDoc(ctx context.Context, redisKey string, document maps.PartialDocument) error {
	if err := maps.Sync(document); err != nil {
		return err
	}
	b, err := json.Marshal(document)
	if err != nil {
		return err
	}
	return client.client.Set(ctx, redisKey, b, 0).Err()
}

func (client *Client) Close() error {
	return client.client.Close()
}

func readEnvironment() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

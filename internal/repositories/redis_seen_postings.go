package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/google/uuid"
	"github.com/maxaizer/job-digest/internal/dedup"
	"github.com/maxaizer/job-digest/internal/domain/models"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"time"
)

const stagingTTL = time.Hour

// RedisSeenPostings keeps the seen postings in a hash keyed by fingerprint.
// Records are staged under a separate key and moved into the hash by an
// optimistic WATCH/MULTI transaction on the version key.
type RedisSeenPostings struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisSeenPostings(client redis.UniversalClient, prefix string) *RedisSeenPostings {
	if prefix == "" {
		prefix = "job-digest"
	}
	return &RedisSeenPostings{client: client, prefix: prefix}
}

type redisSeenRecord struct {
	FirstSeen string            `json:"first_seen"`
	LastSeen  string            `json:"last_seen"`
	SourceIDs []models.SourceID `json:"source_ids"`
}

func (r *RedisSeenPostings) seenKey() string    { return r.prefix + ":seen" }
func (r *RedisSeenPostings) versionKey() string { return r.prefix + ":version" }
func (r *RedisSeenPostings) stagingKey() string {
	return r.prefix + ":staging:" + uuid.NewString()
}

func (r *RedisSeenPostings) LoadAll(ctx context.Context) ([]models.SeenRecord, int64, error) {
	var values *redis.MapStringStringCmd
	var version *redis.StringCmd

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		values = pipe.HGetAll(ctx, r.seenKey())
		version = pipe.Get(ctx, r.versionKey())
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, err
	}

	current, err := parseVersion(version)
	if err != nil {
		return nil, 0, err
	}

	records := make([]models.SeenRecord, 0, len(values.Val()))
	for fingerprint, value := range values.Val() {
		record, err := decodeSeenRecord(fingerprint, value)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, record)
	}
	return records, current, nil
}

func (r *RedisSeenPostings) Begin(ctx context.Context, records []models.SeenRecord, expectedVersion int64) (dedup.Pending, error) {
	current, err := parseVersion(r.client.Get(ctx, r.versionKey()))
	if err != nil {
		return nil, err
	}
	if current != expectedVersion {
		return nil, dedup.ErrConcurrentRun
	}

	staged := make(map[string]any, len(records))
	for _, record := range records {
		value, err := encodeSeenRecord(record)
		if err != nil {
			return nil, err
		}
		staged[record.Fingerprint] = value
	}

	stagingKey := r.stagingKey()
	if len(staged) > 0 {
		_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, stagingKey, staged)
			pipe.Expire(ctx, stagingKey, stagingTTL)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return &redisPending{repo: r, stagingKey: stagingKey, expectedVersion: expectedVersion, count: len(staged)}, nil
}

func (r *RedisSeenPostings) Prune(ctx context.Context, before time.Time) (int64, error) {
	values, err := r.client.HGetAll(ctx, r.seenKey()).Result()
	if err != nil {
		return 0, err
	}

	var expired []string
	for fingerprint, value := range values {
		record, err := decodeSeenRecord(fingerprint, value)
		if err != nil {
			return 0, err
		}
		if record.LastSeen.Before(before) {
			expired = append(expired, fingerprint)
		}
	}

	if len(expired) == 0 {
		return 0, nil
	}
	return r.client.HDel(ctx, r.seenKey(), expired...).Result()
}

type redisPending struct {
	repo            *RedisSeenPostings
	stagingKey      string
	expectedVersion int64
	count           int
}

func (p *redisPending) Commit(ctx context.Context) error {
	r := p.repo
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := parseVersion(tx.Get(ctx, r.versionKey()))
		if err != nil {
			return err
		}
		if current != p.expectedVersion {
			return dedup.ErrConcurrentRun
		}

		staged, err := tx.HGetAll(ctx, p.stagingKey).Result()
		if err != nil {
			return err
		}
		if len(staged) != p.count {
			return fmt.Errorf("staged records under %s are incomplete: %d of %d", p.stagingKey, len(staged), p.count)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(staged) > 0 {
				values := make(map[string]any, len(staged))
				for k, v := range staged {
					values[k] = v
				}
				pipe.HSet(ctx, r.seenKey(), values)
			}
			pipe.Set(ctx, r.versionKey(), p.expectedVersion+1, 0)
			pipe.Del(ctx, p.stagingKey)
			return nil
		})
		return err
	}, r.versionKey())

	if errors.Is(err, redis.TxFailedErr) {
		return dedup.ErrConcurrentRun
	}
	return err
}

func (p *redisPending) Rollback(ctx context.Context) error {
	return p.repo.client.Del(ctx, p.stagingKey).Err()
}

func parseVersion(cmd *redis.StringCmd) (int64, error) {
	version, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}

func encodeSeenRecord(record models.SeenRecord) (string, error) {
	value, err := json.Marshal(redisSeenRecord{
		FirstSeen: record.FirstSeen.Format(budgetDayLayout),
		LastSeen:  record.LastSeen.Format(budgetDayLayout),
		SourceIDs: record.SourceIDs,
	})
	return string(value), err
}

func decodeSeenRecord(fingerprint, value string) (models.SeenRecord, error) {
	var stored redisSeenRecord
	if err := json.Unmarshal([]byte(value), &stored); err != nil {
		return models.SeenRecord{}, fmt.Errorf("invalid record for %s: %w", fingerprint, err)
	}

	firstSeen, err := time.Parse(budgetDayLayout, stored.FirstSeen)
	if err != nil {
		return models.SeenRecord{}, fmt.Errorf("invalid first_seen for %s: %w", fingerprint, err)
	}
	lastSeen, err := time.Parse(budgetDayLayout, stored.LastSeen)
	if err != nil {
		return models.SeenRecord{}, fmt.Errorf("invalid last_seen for %s: %w", fingerprint, err)
	}

	return models.SeenRecord{
		Fingerprint: fingerprint,
		FirstSeen:   firstSeen,
		LastSeen:    lastSeen,
		SourceIDs:   stored.SourceIDs,
	}, nil
}

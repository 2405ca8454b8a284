// Package hold implements the distributed, TTL-based seat hold on Redis.
// A hold gives one user a time-boxed claim on a screening seat while they
// finish checkout; the durable reservation is made elsewhere.
package hold

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/megacine/reservation-system/internal/domain"
	"github.com/redis/go-redis/v9"
)

// releaseIfOwnerScript deletes a hold key only when it still belongs to the
// given user, so a lapsed-and-reacquired hold is never dropped by the
// previous holder.
var releaseIfOwnerScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end

	return 0
`)

type RedisSeatHoldStore struct {
	client redis.UniversalClient
}

func NewRedisSeatHoldStore(client redis.UniversalClient) *RedisSeatHoldStore {
	return &RedisSeatHoldStore{
		client: client,
	}
}

// Acquire claims every seat for the user, all-or-nothing. Ids are processed
// in ascending order across all callers; two requests over overlapping seat
// sets therefore always collide at the lowest shared id instead of waiting
// on each other.
func (s *RedisSeatHoldStore) Acquire(
	ctx context.Context,
	seatIds []int,
	userId int,
	ttl time.Duration) error {

	sorted := make([]int, len(seatIds))
	copy(sorted, seatIds)
	sort.Ints(sorted)

	owner := strconv.Itoa(userId)
	acquired := make([]string, 0, len(sorted))

	for _, seatId := range sorted {
		key := seatHoldKey(seatId)

		current, err := s.client.Get(ctx, key).Result()
		if err != nil && err != redis.Nil {
			s.rollback(ctx, acquired, owner)
			return err
		}

		// Re-acquiring an owned seat succeeds without resetting its TTL and
		// without joining the rollback set.
		if current == owner {
			continue
		}

		ok, err := s.client.SetNX(ctx, key, owner, ttl).Result()
		if err != nil {
			s.rollback(ctx, acquired, owner)
			return err
		}

		if !ok {
			s.rollback(ctx, acquired, owner)
			return domain.ErrSeatAlreadyHeld
		}

		acquired = append(acquired, key)
	}

	return nil
}

func (s *RedisSeatHoldStore) rollback(ctx context.Context, keys []string, owner string) {
	for _, key := range keys {
		releaseIfOwnerScript.Run(ctx, s.client, []string{key}, owner)
	}
}

func (s *RedisSeatHoldStore) Release(ctx context.Context, seatIds []int, userId int) error {
	owner := strconv.Itoa(userId)

	for _, seatId := range seatIds {
		err := releaseIfOwnerScript.Run(ctx, s.client, []string{seatHoldKey(seatId)}, owner).Err()
		if err != nil && err != redis.Nil {
			return err
		}
	}

	return nil
}

func (s *RedisSeatHoldStore) Owners(ctx context.Context, seatIds []int) (map[int]int, error) {
	if len(seatIds) == 0 {
		return map[int]int{}, nil
	}

	keys := make([]string, len(seatIds))
	for i, seatId := range seatIds {
		keys[i] = seatHoldKey(seatId)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	owners := make(map[int]int, len(seatIds))

	for i, value := range values {
		if value == nil {
			continue
		}

		raw, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected hold value type %T for seat %d", value, seatIds[i])
		}

		ownerId, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("malformed hold owner %q for seat %d: %w", raw, seatIds[i], err)
		}

		owners[seatIds[i]] = ownerId
	}

	return owners, nil
}

func seatHoldKey(seatId int) string {
	return fmt.Sprintf("seat_hold:%d", seatId)
}

package ledger

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	recordStatusInserted  int64 = 1
	recordStatusDuplicate int64 = 0

	revokeStatusFlipped  int64 = 1
	revokeStatusInactive int64 = 0
)

// Token rows are hashes keyed by jti; a per-principal set indexes rows for
// bulk revocation. Both carry TTLs so expired rows self-clean: a missing
// key reads as inactive, which is the correct answer either way.
const recordScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], "principal", ARGV[1], "exp", ARGV[2], "revoked", "0")
redis.call("PEXPIRE", KEYS[1], ARGV[3])
redis.call("SADD", KEYS[2], ARGV[4])
local cur = redis.call("PTTL", KEYS[2])
if cur < tonumber(ARGV[3]) then
  redis.call("PEXPIRE", KEYS[2], ARGV[3])
end
return 1
`

var recordLua = redis.NewScript(recordScript)

const revokeScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
if redis.call("HGET", KEYS[1], "revoked") ~= "0" then
  return 0
end
local exp = tonumber(redis.call("HGET", KEYS[1], "exp"))
if not exp or exp <= tonumber(ARGV[1]) then
  return 0
end
redis.call("HSET", KEYS[1], "revoked", "1")
return 1
`

var revokeLua = redis.NewScript(revokeScript)

// Redis is a [Ledger] backed by a single Redis instance. Atomicity of the
// revoke compare-and-set comes from Redis's single-threaded script
// execution.
type Redis struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedis creates a Redis ledger. prefix namespaces all keys; "cg" when
// empty.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "cg"
	}
	return &Redis{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (l *Redis) tokenKey(tokenID string) string {
	return l.prefix + ":rt:" + tokenID
}

func (l *Redis) principalKey(principalID string) string {
	return l.prefix + ":pr:" + principalID
}

// Record inserts an active row that expires with the token.
func (l *Redis) Record(ctx context.Context, tokenID, principalID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(l.now())
	if ttl <= 0 {
		return ErrPastExpiry
	}

	status, err := recordLua.Run(ctx, l.client,
		[]string{l.tokenKey(tokenID), l.principalKey(principalID)},
		principalID,
		strconv.FormatInt(expiresAt.Unix(), 10),
		strconv.FormatInt(ttl.Milliseconds()+1, 10),
		tokenID,
	).Int64()
	if err != nil {
		return err
	}
	if status == recordStatusDuplicate {
		return ErrDuplicateToken
	}
	return nil
}

// IsActive reads the row directly; expired keys are simply gone.
func (l *Redis) IsActive(ctx context.Context, tokenID string) (bool, error) {
	fields, err := l.client.HMGet(ctx, l.tokenKey(tokenID), "revoked", "exp").Result()
	if err != nil {
		return false, err
	}

	revoked, ok := fields[0].(string)
	if !ok || revoked != "0" {
		return false, nil
	}
	expStr, ok := fields[1].(string)
	if !ok {
		return false, nil
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return false, nil
	}
	return exp > l.now().Unix(), nil
}

// Revoke flips the row only if it is currently active.
func (l *Redis) Revoke(ctx context.Context, tokenID string) (bool, error) {
	status, err := revokeLua.Run(ctx, l.client,
		[]string{l.tokenKey(tokenID)},
		strconv.FormatInt(l.now().Unix(), 10),
	).Int64()
	if err != nil {
		return false, err
	}
	return status == revokeStatusFlipped, nil
}

// RevokeAllForPrincipal walks the principal's index set and applies the
// same compare-and-set per row. Entries for rows that already expired are
// skipped by the script and age out of the set on their own.
func (l *Redis) RevokeAllForPrincipal(ctx context.Context, principalID string) (int, error) {
	tokenIDs, err := l.client.SMembers(ctx, l.principalKey(principalID)).Result()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, tokenID := range tokenIDs {
		flipped, err := l.Revoke(ctx, tokenID)
		if err != nil {
			return count, err
		}
		if flipped {
			count++
		}
	}
	return count, nil
}

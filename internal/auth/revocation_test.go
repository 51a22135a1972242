package auth

import (
	"context"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("MemoryRevocationStore", func() {
	var (
		store *MemoryRevocationStore
		now   time.Time
		ctx   = context.Background()
	)

	ginkgo.BeforeEach(func() {
		now = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
		store = NewMemoryRevocationStore()
		store.now = func() time.Time { return now }
	})

	ginkgo.It("should report a revoked id until its ttl passes", func() {
		gomega.Expect(store.Revoke(ctx, "jti-1", time.Minute)).To(gomega.Succeed())

		revoked, err := store.IsRevoked(ctx, "jti-1")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(revoked).To(gomega.BeTrue())

		now = now.Add(2 * time.Minute)
		revoked, err = store.IsRevoked(ctx, "jti-1")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(revoked).To(gomega.BeFalse())
	})

	ginkgo.It("should drop expired entries on the next revoke", func() {
		_ = store.Revoke(ctx, "old", time.Second)
		now = now.Add(time.Minute)
		_ = store.Revoke(ctx, "new", time.Minute)

		gomega.Expect(store.entries).To(gomega.HaveLen(1))
		gomega.Expect(store.entries).To(gomega.HaveKey("new"))
	})
})

var _ = ginkgo.Describe("RedisRevocationStore", func() {
	ginkgo.It("should round-trip a revocation", func() {
		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			ginkgo.Skip("REDIS_ADDR not set")
		}
		ctx := context.Background()
		client := redis.NewClient(&redis.Options{Addr: addr})
		defer client.Close()

		store := NewRedisRevocationStore(client, "taktplan:test:revoked:")
		jti := uuid.NewString()

		revoked, err := store.IsRevoked(ctx, jti)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(revoked).To(gomega.BeFalse())

		gomega.Expect(store.Revoke(ctx, jti, time.Minute)).To(gomega.Succeed())
		revoked, err = store.IsRevoked(ctx, jti)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(revoked).To(gomega.BeTrue())
	})
})

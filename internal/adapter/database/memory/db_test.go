package memory

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/lutheralien/to-do-api/internal/core/port"
)

func TestMemoryRepository_SetGet(t *testing.T) {
	RegisterTestingT(t)

	repo := NewMemoryRepository()
	ctx := context.Background()

	Expect(repo.Set(ctx, "cache:/todos:1", []byte(`{"ok":true}`), time.Minute)).To(Succeed())

	value, err := repo.Get(ctx, "cache:/todos:1")
	Expect(err).ToNot(HaveOccurred())
	Expect(string(value)).To(Equal(`{"ok":true}`))

	_, err = repo.Get(ctx, "cache:/missing")
	Expect(err).To(MatchError(port.ErrCacheMiss))
}

func TestMemoryRepository_Expires(t *testing.T) {
	RegisterTestingT(t)

	repo := NewMemoryRepository()
	ctx := context.Background()

	Expect(repo.Set(ctx, "short", []byte("x"), 10*time.Millisecond)).To(Succeed())
	time.Sleep(30 * time.Millisecond)

	_, err := repo.Get(ctx, "short")
	Expect(err).To(MatchError(port.ErrCacheMiss))
}

func TestMemoryRepository_DeleteByPrefix(t *testing.T) {
	RegisterTestingT(t)

	repo := NewMemoryRepository()
	ctx := context.Background()

	repo.Set(ctx, "cache:/todos:a", []byte("a"), time.Minute)
	repo.Set(ctx, "cache:/todos/1:b", []byte("b"), time.Minute)
	repo.Set(ctx, "cache:/health:c", []byte("c"), time.Minute)

	Expect(repo.DeleteByPrefix(ctx, "cache:/todos")).To(Succeed())

	_, err := repo.Get(ctx, "cache:/todos:a")
	Expect(err).To(MatchError(port.ErrCacheMiss))
	_, err = repo.Get(ctx, "cache:/todos/1:b")
	Expect(err).To(MatchError(port.ErrCacheMiss))

	value, err := repo.Get(ctx, "cache:/health:c")
	Expect(err).ToNot(HaveOccurred())
	Expect(string(value)).To(Equal("c"))

	Expect(repo.Close()).To(Succeed())
}

package notify_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/ride-marketplace/internal/notify"
)

func TestFeed(t *testing.T) {
	f := notify.NewFeed(nil)
	f.Notify("alice", "first")
	f.Notify("bob", "other user")
	f.Notify("alice", "second")

	assert.Equal(t, []string{"first", "second"}, f.For("alice"))
	assert.Equal(t, []string{"other user"}, f.For("bob"))
	assert.Empty(t, f.For("carol"))
}

func TestFeed_NotifyAll(t *testing.T) {
	f := notify.NewFeed(nil)
	f.NotifyAll([]string{"a", "b"}, "ride cancelled")

	assert.Equal(t, []string{"ride cancelled"}, f.For("a"))
	assert.Equal(t, []string{"ride cancelled"}, f.For("b"))
}

func TestFeed_ConcurrentAppends(t *testing.T) {
	f := notify.NewFeed(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Notify("alice", "msg")
		}()
	}
	wg.Wait()
	assert.Len(t, f.For("alice"), 50)
}

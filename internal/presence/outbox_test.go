package presence_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/presence-gateway/internal/presence"
)

func TestOutboxFIFO(t *testing.T) {
	ob := presence.NewOutbox()
	for i := 0; i < 100; i++ {
		require.True(t, ob.Push([]byte(fmt.Sprint(i))))
	}

	for i := 0; i < 100; i++ {
		select {
		case <-ob.Ready():
		case <-time.After(time.Second):
			t.Fatalf("ready not signalled at %d", i)
		}
		msg, ok := ob.Pop()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprint(i), string(msg))
	}
	assert.Equal(t, 0, ob.Len())
}

func TestOutboxClose(t *testing.T) {
	ob := presence.NewOutbox()
	ob.Push([]byte("a"))
	ob.Close()
	ob.Close()

	assert.True(t, ob.Closed())
	assert.False(t, ob.Push([]byte("b")))
	_, ok := ob.Pop()
	assert.False(t, ok)

	select {
	case <-ob.Ready():
		t.Fatal("closed outbox must not signal")
	case <-time.After(20 * time.Millisecond):
	}
}

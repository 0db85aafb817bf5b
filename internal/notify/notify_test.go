package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNop_IsSilent(t *testing.T) {
	var n Nop
	assert.NotPanics(t, func() {
		n.Emit(context.Background(), Event{RunID: "r", Status: StatusRunning})
		n.Close()
	})
}

func TestSocketNotifier_DropsEventsWhileDisconnected(t *testing.T) {
	// The connected flag starts false, so Emit must return before it ever
	// touches the underlying socket (nil here: reaching it would panic).
	n := &SocketNotifier{}
	assert.NotPanics(t, func() {
		n.Emit(context.Background(), Event{RunID: "r", Job: "test", Status: StatusQueued})
	})
}

package wire

import (
	"sync"
	"time"

	"github.com/helixml/streamctl/internal/netio"
)

// PacketWriter serialises packets through a netio.Writer and injects a
// Sync packet ahead of the next write whenever at least SyncInterval
// has elapsed since the last one (spec.md §4.3: "at most once per
// second (timer-driven, re-armed after each injection)"). No Sync is
// emitted while nothing else is being written (spec.md §8
// "Sync-packet cadence": "none is emitted if the writer is idle and
// did not just write").
type PacketWriter struct {
	w            *netio.Writer
	syncInterval time.Duration

	mu       sync.Mutex
	lastSync time.Time
}

// NewPacketWriter wraps w, injecting a Sync packet at most once per
// syncInterval (default 1s per spec.md §6).
func NewPacketWriter(w *netio.Writer, syncInterval time.Duration) *PacketWriter {
	if syncInterval <= 0 {
		syncInterval = time.Second
	}
	return &PacketWriter{w: w, syncInterval: syncInterval}
}

// WritePacket encodes p, prefixing a Sync packet if the interval has
// elapsed since the last one was sent.
func (pw *PacketWriter) WritePacket(p Packet) error {
	pw.mu.Lock()
	due := time.Since(pw.lastSync) >= pw.syncInterval || pw.lastSync.IsZero()
	if due {
		pw.lastSync = time.Now()
	}
	pw.mu.Unlock()

	if due {
		if err := Encode(pw.w, Sync{}); err != nil {
			return err
		}
	}
	return Encode(pw.w, p)
}

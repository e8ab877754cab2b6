package scheduler

import "sync"

// Broadcaster fans the rollover day key out to every open stream.
type Broadcaster struct {
	mu     sync.Mutex
	next   uint64
	listen map[uint64]chan string
}

// NewBroadcaster builds an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listen: make(map[uint64]chan string)}
}

// Subscribe returns a channel receiving the new day key at each rollover and a
// func that releases it. The channel holds one pending signal; a slow reader
// only ever sees the latest.
func (b *Broadcaster) Subscribe() (<-chan string, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan string, 1)
	b.listen[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listen, id)
			b.mu.Unlock()
		})
	}
}

// Notify delivers dayKey to every subscriber and returns how many there were.
func (b *Broadcaster) Notify(dayKey string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.listen {
		select {
		case ch <- dayKey:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- dayKey
		}
	}
	return len(b.listen)
}

// Package multicast manages the pool of multicast groups backing project
// chats. The pool owns every address; projects only borrow them.
package multicast

import (
	"fmt"
	"net"
	"sync"
)

// Allocator hands out IPv4 multicast addresses. Released addresses are
// reused FIFO before the cursor advances. Every group shares the same UDP
// port; only the group IP differs per project.
//
// The cursor is not bounded to the administratively scoped multicast range:
// past 255.255.255.255 it simply wraps octet by octet, matching the
// behaviour this server has always had.
type Allocator struct {
	port int

	mu     sync.Mutex
	cursor [4]byte
	free   []string
}

// NewAllocator seeds the cursor (the canonical seed is "239.0.0.0"); the
// first allocated address is the seed's successor.
func NewAllocator(seed string, port int) (*Allocator, error) {
	ip := net.ParseIP(seed).To4()
	if ip == nil {
		return nil, fmt.Errorf("multicast: invalid seed address %q", seed)
	}
	a := &Allocator{port: port}
	copy(a.cursor[:], ip)
	return a, nil
}

// Allocate returns a reusable address when one is available, otherwise the
// next cursor value.
func (a *Allocator) Allocate() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.free) > 0 {
		ip := a.free[0]
		a.free = a.free[1:]
		return ip
	}

	for i := 3; i >= 0; i-- {
		if a.cursor[i] < 255 {
			a.cursor[i]++
			break
		}
		a.cursor[i] = 0
	}
	return fmt.Sprintf("%d.%d.%d.%d", a.cursor[0], a.cursor[1], a.cursor[2], a.cursor[3])
}

// Release returns an address to the pool for future projects.
func (a *Allocator) Release(ip string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.free = append(a.free, ip)
}

// Port is the UDP port shared by all chat groups.
func (a *Allocator) Port() int {
	return a.port
}

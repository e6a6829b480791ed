package chat

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/worth-collab/worth-server/internal/core/domain"
)

const datagramSize = 1024

// EndOfMessages terminates every batch returned by Drain.
const EndOfMessages = "no more messages"

// Listener is one participant's view of a project chat: a dedicated receive
// loop joined to the multicast group feeding an unbounded unread-message
// inbox. The inbox is shared between the network goroutine (producer) and
// the reading side (consumer), and nothing else.
type Listener struct {
	nick   string
	addr   domain.ChatAddr
	group  *net.UDPConn
	sender net.PacketConn

	active atomic.Bool

	mu     sync.Mutex
	unread []string
}

// JoinGroup subscribes nick to the project's multicast group and starts the
// receive loop.
func JoinGroup(nick string, addr domain.ChatAddr) (*Listener, error) {
	dst, err := groupAddr(addr)
	if err != nil {
		return nil, err
	}
	group, err := net.ListenMulticastUDP("udp4", nil, dst)
	if err != nil {
		return nil, fmt.Errorf("chat: join group %s: %w", dst, err)
	}
	sender, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		group.Close()
		return nil, fmt.Errorf("chat: open sender socket: %w", err)
	}

	l := &Listener{nick: nick, addr: addr, group: group, sender: sender}
	l.active.Store(true)
	go l.receiveLoop()
	return l, nil
}

func (l *Listener) receiveLoop() {
	buf := make([]byte, datagramSize)
	for l.active.Load() {
		n, _, err := l.group.ReadFromUDP(buf)
		if err != nil {
			// Socket closed under us by Close; make sure the sender
			// socket goes with it.
			l.teardown()
			return
		}
		if !l.deliver(strings.TrimSpace(string(buf[:n]))) {
			l.teardown()
			return
		}
	}
}

// deliver appends one received message to the inbox. It returns false when
// the message is the close sentinel, which ends the receive loop.
func (l *Listener) deliver(msg string) bool {
	if strings.Contains(msg, CloseSentinel) {
		l.active.Store(false)
		return false
	}
	l.mu.Lock()
	l.unread = append(l.unread, msg)
	l.mu.Unlock()
	return true
}

// Say broadcasts "nick: <msg>" to the whole group. No per-recipient
// addressing, no acknowledgement.
func (l *Listener) Say(msg string) error {
	dst, err := groupAddr(l.addr)
	if err != nil {
		return err
	}
	if _, err := l.sender.WriteTo([]byte(l.nick+": "+msg), dst); err != nil {
		return fmt.Errorf("chat: send to %s: %w", dst, err)
	}
	return nil
}

// Drain atomically takes and clears the unread inbox and appends the
// end-of-messages marker to the returned batch.
func (l *Listener) Drain() []string {
	l.mu.Lock()
	batch := l.unread
	l.unread = nil
	l.mu.Unlock()
	return append(batch, EndOfMessages)
}

// Active reports whether the receive loop is still joined to the group.
func (l *Listener) Active() bool {
	return l.active.Load()
}

// Close leaves the group and stops the receive loop.
func (l *Listener) Close() {
	l.teardown()
}

// teardown stops the loop and closes both sockets. Safe to call more than
// once; a second Close on a net conn just returns an error.
func (l *Listener) teardown() {
	l.active.Store(false)
	l.group.Close()
	l.sender.Close()
}

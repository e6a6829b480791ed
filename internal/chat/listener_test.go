package chat

import (
	"net"
	"testing"
	"time"

	"github.com/worth-collab/worth-server/internal/core/domain"
)

// deliver and Drain carry the whole inbox contract, so they are exercised
// directly without sockets.

func TestListener_DeliverAndDrain(t *testing.T) {
	l := &Listener{nick: "ada", addr: domain.ChatAddr{IP: "239.0.0.1", Port: 5002}}
	l.active.Store(true)

	l.deliver("bob: hello")
	l.deliver("eve: hi ada")

	got := l.Drain()
	want := []string{"bob: hello", "eve: hi ada", EndOfMessages}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestListener_DrainEmptyInbox(t *testing.T) {
	l := &Listener{nick: "ada"}

	got := l.Drain()
	if len(got) != 1 || got[0] != EndOfMessages {
		t.Errorf("expected only the end marker, got %v", got)
	}
}

func TestListener_DrainClearsInbox(t *testing.T) {
	l := &Listener{nick: "ada"}
	l.deliver("bob: hello")

	l.Drain()
	got := l.Drain()
	if len(got) != 1 || got[0] != EndOfMessages {
		t.Errorf("second drain must be empty, got %v", got)
	}
}

func TestListener_CloseSentinelEndsReception(t *testing.T) {
	l := &Listener{nick: "ada"}
	l.active.Store(true)

	if !l.deliver("bob: almost done") {
		t.Fatal("ordinary message must keep the loop running")
	}
	if l.deliver(CloseSentinel) {
		t.Fatal("close sentinel must end the loop")
	}
	if l.Active() {
		t.Error("listener still active after sentinel")
	}

	// The sentinel itself never lands in the inbox.
	got := l.Drain()
	if len(got) != 2 || got[0] != "bob: almost done" {
		t.Errorf("unexpected inbox: %v", got)
	}
}

// newLoopbackListener wires a Listener over plain loopback UDP sockets so
// the receive loop can run without multicast support.
func newLoopbackListener(t *testing.T) (*Listener, *net.UDPAddr) {
	t.Helper()
	group, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("group socket: %v", err)
	}
	sender, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		group.Close()
		t.Fatalf("sender socket: %v", err)
	}
	l := &Listener{nick: "ada", group: group, sender: sender}
	l.active.Store(true)
	return l, group.LocalAddr().(*net.UDPAddr)
}

func TestListener_SentinelClosesBothSockets(t *testing.T) {
	l, groupAddr := newLoopbackListener(t)
	go l.receiveLoop()

	src, err := net.Dial("udp4", groupAddr.String())
	if err != nil {
		t.Fatalf("dial group: %v", err)
	}
	defer src.Close()

	// UDP gives no delivery guarantee even on loopback, so resend until
	// the loop reacts.
	deadline := time.Now().Add(2 * time.Second)
	for l.Active() {
		if time.Now().After(deadline) {
			t.Fatal("receive loop never saw the close sentinel")
		}
		src.Write([]byte(CloseSentinel))
		time.Sleep(10 * time.Millisecond)
	}

	// teardown runs just after the loop deactivates; poll for the sender
	// socket to die.
	for {
		if time.Now().After(deadline) {
			t.Fatal("sender socket still open after sentinel")
		}
		if _, err := l.sender.WriteTo([]byte("x"), groupAddr); err != nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestListener_CloseIsIdempotent(t *testing.T) {
	l, _ := newLoopbackListener(t)
	go l.receiveLoop()

	l.Close()
	l.Close()
	if l.Active() {
		t.Error("listener still active after Close")
	}
}

func TestListener_ServerMessagesAreKept(t *testing.T) {
	l := &Listener{nick: "ada"}
	l.active.Store(true)

	l.deliver(ServerAuthor + "ada added card deploy to the project")

	got := l.Drain()
	if len(got) != 2 || got[0] != "Server: ada added card deploy to the project" {
		t.Errorf("unexpected inbox: %v", got)
	}
}

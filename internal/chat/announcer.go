// Package chat implements the per-project multicast transport: the server
// side that pushes system announcements into a group, and the participant
// side that joins a group, buffers unread messages and sends its own.
package chat

import (
	"fmt"
	"net"

	"github.com/rs/zerolog"

	"github.com/worth-collab/worth-server/internal/api/metrics"
	"github.com/worth-collab/worth-server/internal/core/domain"
)

// ServerAuthor prefixes every system announcement.
const ServerAuthor = "Server: "

// CloseSentinel is the announcement that ends every participant's receive
// loop when a project is deleted.
const CloseSentinel = ServerAuthor + "close"

// Announcer sends server-authored datagrams to project chat groups. One
// unconnected UDP socket serves every group.
type Announcer struct {
	conn   net.PacketConn
	logger zerolog.Logger
}

func NewAnnouncer(logger zerolog.Logger) (*Announcer, error) {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("chat: open announcer socket: %w", err)
	}
	return &Announcer{conn: conn, logger: logger}, nil
}

// Announce delivers "Server: <text>" to the group. Best effort: there is no
// acknowledgement and no retry.
func (a *Announcer) Announce(addr domain.ChatAddr, text string) error {
	dst, err := groupAddr(addr)
	if err != nil {
		return err
	}
	if _, err := a.conn.WriteTo([]byte(ServerAuthor+text), dst); err != nil {
		return fmt.Errorf("chat: announce to %s: %w", dst, err)
	}
	metrics.ChatAnnouncementsTotal.Inc()
	a.logger.Debug().Str("group", dst.String()).Str("text", text).Msg("chat announcement sent")
	return nil
}

func (a *Announcer) Close() error {
	return a.conn.Close()
}

func groupAddr(addr domain.ChatAddr) (*net.UDPAddr, error) {
	ip := net.ParseIP(addr.IP)
	if ip == nil {
		return nil, fmt.Errorf("chat: invalid group address %q", addr.IP)
	}
	return &net.UDPAddr{IP: ip, Port: addr.Port}, nil
}

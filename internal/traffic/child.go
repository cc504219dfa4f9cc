package traffic

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// RunChild is the traffic-generator child's entire program: it sends ICMPv4
// echo requests to target at ratePPS until asked to stop, then exits.
// main.go calls this instead of the normal CLI flow when ChildFlag is
// present on the command line, after re-exec from Start in traffic.go.
//
// Requires a raw ICMP socket, which on Linux means CAP_NET_RAW or root,
// exactly as the original's forked ping process did.
func RunChild(mode, target string, ratePPS int) error {
	if mode != ModeICMP {
		return fmt.Errorf("packet-analyzer: traffic child: unsupported mode %q", mode)
	}
	if ratePPS < MinRatePPS {
		ratePPS = MinRatePPS
	}
	if ratePPS > MaxRatePPS {
		ratePPS = MaxRatePPS
	}

	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		return fmt.Errorf("packet-analyzer: traffic child: open icmp socket: %w", err)
	}
	defer conn.Close()

	dst, err := resolveIPv4(target)
	if err != nil {
		return fmt.Errorf("packet-analyzer: traffic child: resolve %s: %w", target, err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	interval := time.Second / time.Duration(ratePPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	seq := 0
	for {
		select {
		case <-sigCh:
			return nil
		case <-ticker.C:
			seq++
			sendEcho(conn, dst, seq)
		}
	}
}

func resolveIPv4(target string) (*net.IPAddr, error) {
	addr, err := net.ResolveIPAddr("ip4", target)
	if err != nil {
		return nil, err
	}
	return addr, nil
}

func sendEcho(conn *icmp.PacketConn, dst *net.IPAddr, seq int) {
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   os.Getpid() & 0xffff,
			Seq:  seq,
			Data: []byte("packet-analyzer-traffic"),
		},
	}
	wb, err := msg.Marshal(nil)
	if err != nil {
		return
	}
	conn.WriteTo(wb, dst)
}

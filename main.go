package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mickamy/cqlcore/conn"
	"github.com/mickamy/cqlcore/diagnostics"
	"github.com/mickamy/cqlcore/tui"
)

var version = "dev"

func main() {
	fs := flag.NewFlagSet("cqlcore", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "cqlcore — watch a CQL connection's handshake and traffic in real-time\n\nUsage:\n  cqlcore [flags] <host>\n\nFlags:\n")
		fs.PrintDefaults()
	}

	port := fs.Int("port", conn.DefaultPort, "CQL native-protocol port")
	useTLS := fs.Bool("tls", false, "wrap the connection in TLS before the CQL handshake")
	insecureSkipVerify := fs.Bool("tls-skip-verify", false, "skip server certificate verification (testing only)")
	cqlVersion := fs.String("cql-version", "3.0.0", "CQL_VERSION sent in STARTUP")
	compression := fs.String("compression", "", "COMPRESSION sent in STARTUP: snappy, lz4, or empty for none")
	connectTimeout := fs.Duration("connect-timeout", 10*time.Second, "DNS resolution + TCP dial timeout")
	burstThreshold := fs.Int("burst-threshold", 5, "repeated-statement burst detection threshold (0 to disable)")
	burstWindow := fs.Duration("burst-window", time.Second, "burst detection time window")
	burstCooldown := fs.Duration("burst-cooldown", 10*time.Second, "burst alert cooldown per statement template")
	showVersion := fs.Bool("version", false, "show version and exit")

	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("cqlcore %s\n", version)
		return
	}

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	opts := conn.Options{
		Host:           fs.Arg(0),
		Port:           *port,
		CQLVersion:     *cqlVersion,
		Compression:    *compression,
		ConnectTimeout: *connectTimeout,
	}
	if *useTLS {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: *insecureSkipVerify} //nolint:gosec // operator opt-in via -tls-skip-verify
	}
	if *burstThreshold > 0 {
		opts.BurstDetector = diagnostics.NewBurstDetector(*burstThreshold, *burstWindow, *burstCooldown)
		opts.OnBurst = func(c *conn.Connection, b *diagnostics.Burst) {
			log.Printf("cqlcore: burst: %s x%d on %s", b.Statement, b.Count, c.ID)
		}
	}

	if err := monitor(opts); err != nil {
		log.Fatal(err)
	}
}

func monitor(opts conn.Options) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	frameCh := make(chan tui.FrameEntry, 256)
	opts.OnFrame = tui.NewObserver(frameCh)

	connected := make(chan error, 1)
	opts.OnConnect = func(_ *conn.Connection, err error) {
		connected <- err
	}

	c := conn.Dial(ctx, opts)
	defer c.Close()

	select {
	case err := <-connected:
		if err != nil {
			return fmt.Errorf("cqlcore: connect %s: %w", opts.Host, err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	p := tea.NewProgram(tui.New(c, frameCh))
	_, err := p.Run()
	return err
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/coreos/go-systemd/daemon"
	"github.com/hyyp-go/hyyp/forward"
	"github.com/hyyp-go/hyyp/log2"
	"github.com/hyyp-go/hyyp/mcs"
	"github.com/hyyp-go/hyyp/mcs/mcspb"
	"github.com/hyyp-go/hyyp/push"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func listenCmd(g *global) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Listen for notifications",
		Long: `Listen loads stored credentials (registers first if there are none),
keeps MCS connection and prints each notification as JSON line.
Received persistent ids are stored, so restart does not repeat messages.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var out io.Writer
			if !quiet {
				out = cmd.OutOrStdout()
			}
			return g.listen(cmd, out)
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print notifications")
	return cmd
}

// printer writes one JSON object per notification.
type printer struct {
	sync.Mutex
	w io.Writer
}

func (p *printer) print(n map[string]interface{}, stanza *mcspb.DataMessageStanza) error {
	if p == nil || p.w == nil {
		return nil
	}
	b, err := json.Marshal(&forward.Message{
		PersistentID: stanza.GetPersistentId(),
		From:         stanza.GetFrom(),
		Sent:         stanza.GetSent(),
		Notification: n,
	})
	if err != nil {
		return err
	}
	p.Lock()
	defer p.Unlock()
	_, err = fmt.Fprintln(p.w, string(b))
	return err
}

func (g *global) listen(cmd *cobra.Command, out io.Writer) error {
	ctx := cmd.Context()
	creds := g.store.Credentials()
	if creds == nil {
		g.log.Infof("no stored credentials, registering")
		var err error
		if creds, err = g.register(cmd, g.config.SenderID); err != nil {
			return err
		}
	}

	fwd, err := g.forwarder()
	if err != nil {
		return errors.Annotate(err, "forwarder")
	}
	if fwd != nil {
		defer fwd.Close()
	}

	p := &printer{w: out}
	callback := func(ctx context.Context, n map[string]interface{}, stanza *mcspb.DataMessageStanza) {
		if err := p.print(n, stanza); err != nil {
			g.log.Errorf("print err=%v", err)
		}
		if fwd != nil {
			fwd.Notify(ctx, n, stanza)
		}
		if err := g.store.AddPersistentIDs(stanza.GetPersistentId()); err != nil {
			g.log.Errorf("store persistent_id err=%v", err)
		}
	}

	l, err := push.NewListener(creds, callback, g.store.PersistentIDs(), push.Options{
		Log:  g.log,
		Addr: g.config.McsAddress(),
		Conn: mcs.ConnOptions{
			Log:            g.log.Clone(mcsLogLevel(g.config.Mcs.LogDebug)),
			NetworkTimeout: g.config.McsNetworkTimeout(),
			ReadTimeout:    g.config.McsReadTimeout(),
		},
		GCM:              g.gcmClient(),
		MinResetInterval: g.config.MinResetInterval(),
	})
	if err != nil {
		return err
	}

	if addr := g.config.Metrics.Listen; addr != "" {
		reg := prometheus.NewRegistry()
		if err = registerMetrics(reg, l, fwd); err != nil {
			return errors.Annotate(err, "metrics")
		}
		srv, _, err := serveMetrics(addr, reg, g.log)
		if err != nil {
			return errors.Annotate(err, "metrics")
		}
		defer srv.Close()
	}

	sdnotify(daemon.SdNotifyReady)
	g.log.Infof("listening android_id=%d already_seen=%d", creds.AndroidID, len(g.store.PersistentIDs()))
	err = l.Run(ctx)
	sdnotify(daemon.SdNotifyStopping)

	// undeliverable messages are acked too, keep them out of next session
	if serr := g.store.AddPersistentIDs(l.PersistentIDs()...); serr != nil {
		g.log.Errorf("store persistent ids err=%v", serr)
	}
	connStat := l.ConnStat()
	g.log.Infof("stop %s conn=%s", l, connStat.String())
	switch errors.Cause(err) {
	case context.Canceled, push.ErrClosing:
		return nil
	}
	return err
}

func mcsLogLevel(debug bool) log2.Level {
	if debug {
		return log2.LDebug
	}
	return log2.LInfo
}

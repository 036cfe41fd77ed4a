// hyyp-push registers a push receiver and listens for notifications.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"io/ioutil"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"github.com/hyyp-go/hyyp/config"
	"github.com/hyyp-go/hyyp/forward"
	"github.com/hyyp-go/hyyp/gcm"
	"github.com/hyyp-go/hyyp/helpers"
	"github.com/hyyp-go/hyyp/log2"
	"github.com/hyyp-go/hyyp/persist"
	"github.com/juju/errors"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const defaultMqttClientID = "hyyp-push"

type global struct {
	config *config.Config
	log    *log2.Log
	store  *persist.Store
}

func main() {
	g := &global{log: log2.NewStderr(log2.LInfo)}
	if sdnotify("start") || !isatty.IsTerminal(os.Stderr.Fd()) {
		// under systemd or redirected, assume journal adds timestamp
		g.log.SetFlags(log2.LServiceFlags)
	} else {
		g.log.SetFlags(log2.LInteractiveFlags)
	}

	var (
		flagConfig string
		flagDebug  bool
	)
	rootCmd := &cobra.Command{
		Use:   "hyyp-push",
		Short: "Receive alarm panel push notifications",
		Long: `hyyp-push registers with Google push backends as a browser would,
then keeps MCS connection open and prints decrypted notifications.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.init(flagConfig, flagDebug)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "hyyp.hcl", "config file")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "debug log")
	rootCmd.AddCommand(
		registerCmd(g),
		listenCmd(g),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		g.log.Fatal(errors.ErrorStack(err))
	}
}

func (g *global) init(configPath string, debug bool) error {
	var err error
	g.config, err = config.Read(g.log, config.NewOsFullReader(), configPath)
	if err != nil {
		return errors.Annotate(err, "config")
	}
	if debug || g.config.LogDebug {
		g.log.SetLevel(log2.LDebug)
	}
	g.store, err = persist.Open(g.config.DataDir, g.log)
	return errors.Annotate(err, "data_dir")
}

func (g *global) gcmClient() *gcm.Client {
	c := gcm.NewClient(g.log)
	if g.config.Gcm.Retries != 0 {
		c.Retries = g.config.Gcm.Retries
	}
	c.RetryDelay = g.config.GcmRetryDelay()
	c.HTTP.Timeout = g.config.GcmTimeout()
	return c
}

// forwarder returns nil when MQTT is not enabled.
func (g *global) forwarder() (*forward.Forwarder, error) {
	mc := g.config.Mqtt
	if !mc.Enable {
		return nil, nil
	}
	mqttLog := g.log.Clone(log2.LInfo)
	if mc.LogDebug {
		mqttLog.SetLevel(log2.LDebug)
	}
	mqttLog.SetPrefix("mqtt ")
	clientID := mc.ClientID
	if clientID == "" {
		clientID = defaultMqttClientID
	}
	var tlsConfig *tls.Config
	if mc.TlsCaFile != "" {
		cabytes, err := ioutil.ReadFile(mc.TlsCaFile)
		if err != nil {
			return nil, errors.Annotate(err, "mqtt TLS")
		}
		tlsConfig = &tls.Config{RootCAs: x509.NewCertPool()}
		if !tlsConfig.RootCAs.AppendCertsFromPEM(cabytes) {
			return nil, errors.NotValidf("mqtt tls_ca_file=%s", mc.TlsCaFile)
		}
	}
	pub, err := forward.NewMqtt(forward.MqttOptions{
		Log:            mqttLog,
		BrokerURL:      mc.Broker,
		ClientID:       clientID,
		Username:       mc.Username,
		Password:       mc.Password,
		TLS:            tlsConfig,
		KeepaliveSec:   mc.KeepaliveSec,
		NetworkTimeout: helpers.IntSecondDefault(mc.NetworkTimeoutSec, forward.DefaultNetworkTimeout),
		QOS:            byte(mc.Qos),
		Retain:         mc.Retain,
		StorePath:      mc.StoreDir,
	})
	if err != nil {
		return nil, err
	}
	return forward.New(pub, forward.Options{
		Log:       g.log,
		QueuePath: g.config.MqttQueuePath(),
		Topic:     mc.Topic,
	})
}

func sdnotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log2.NewStderr(log2.LError).Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}

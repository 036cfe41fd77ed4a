package forward

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/hyyp-go/hyyp/helpers"
	"github.com/hyyp-go/hyyp/log2"
	"github.com/juju/errors"
)

const (
	DefaultKeepalive      = 60 * time.Second
	DefaultNetworkTimeout = 30 * time.Second
)

var ErrNotConnected = fmt.Errorf("mqtt not connected")

type MqttOptions struct {
	Log            *log2.Log
	BrokerURL      string
	ClientID       string
	Username       string
	Password       string
	TLS            *tls.Config
	KeepaliveSec   int
	NetworkTimeout time.Duration
	QOS            byte
	Retain         bool
	// Persistent outgoing message store, memory if empty.
	StorePath string
}

// MqttPublisher is Publisher over paho client with auto reconnect.
type MqttPublisher struct {
	connecting uint32
	log        *log2.Log
	m          mqtt.Client
	qos        byte
	retain     bool
}

// NewMqtt validates options and starts connecting in background.
// Broker being unavailable is not an error, Publish fails until connected.
func NewMqtt(opt MqttOptions) (*MqttPublisher, error) {
	if _, err := url.ParseRequestURI(opt.BrokerURL); err != nil {
		return nil, errors.Annotatef(err, "mqtt broker=%s", opt.BrokerURL)
	}
	if opt.ClientID == "" {
		return nil, errors.NotValidf("mqtt client_id empty")
	}
	if opt.QOS > 2 {
		return nil, errors.NotValidf("mqtt qos=%d", opt.QOS)
	}
	networkTimeout := opt.NetworkTimeout
	if networkTimeout == 0 {
		networkTimeout = DefaultNetworkTimeout
	}
	if networkTimeout < time.Second {
		networkTimeout = time.Second
	}
	keepalive := helpers.IntSecondDefault(opt.KeepaliveSec, DefaultKeepalive)

	// paho loggers are package globals
	mqtt.ERROR = opt.Log
	mqtt.CRITICAL = opt.Log
	mqtt.WARN = opt.Log
	if opt.Log.Enabled(log2.LDebug) {
		mqtt.DEBUG = opt.Log
	}

	p := &MqttPublisher{
		log:    opt.Log,
		qos:    opt.QOS,
		retain: opt.Retain,
	}
	var store mqtt.Store
	if opt.StorePath != "" {
		store = mqtt.NewFileStore(opt.StorePath)
	} else {
		store = mqtt.NewMemoryStore()
	}
	mopt := mqtt.NewClientOptions().
		AddBroker(opt.BrokerURL).
		SetClientID(opt.ClientID).
		SetUsername(opt.Username).
		SetPassword(opt.Password).
		SetCleanSession(false).
		SetOrderMatters(true).
		SetKeepAlive(keepalive).
		SetPingTimeout(networkTimeout).
		SetConnectTimeout(networkTimeout).
		SetWriteTimeout(networkTimeout).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(2 * time.Minute).
		SetStore(store).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)
	if opt.TLS != nil {
		mopt.SetTLSConfig(opt.TLS)
	}
	p.m = mqtt.NewClient(mopt)
	p.connect()
	return p, nil
}

func (p *MqttPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	if !p.m.IsConnectionOpen() {
		// initial connect failed, auto reconnect only works after first success
		if !p.m.IsConnected() {
			p.connect()
		}
		return errors.Annotatef(ErrNotConnected, "publish topic=%s", topic)
	}
	token := p.m.Publish(topic, p.qos, p.retain, payload)
	if err := waitToken(ctx, token); err != nil {
		return errors.Annotatef(err, "mqtt publish topic=%s", topic)
	}
	return nil
}

func (p *MqttPublisher) Close() error {
	p.m.Disconnect(250)
	return nil
}

func (p *MqttPublisher) connect() {
	if !atomic.CompareAndSwapUint32(&p.connecting, 0, 1) {
		return
	}
	token := p.m.Connect()
	go func() {
		if token.Wait() && token.Error() != nil {
			p.log.Errorf("mqtt connect err=%v", token.Error())
		}
		atomic.StoreUint32(&p.connecting, 0)
	}()
}

func (p *MqttPublisher) onConnect(c mqtt.Client) { p.log.Infof("mqtt connected") }

func (p *MqttPublisher) onConnectionLost(c mqtt.Client, err error) {
	p.log.Infof("mqtt connection lost err=%v", err)
}

func waitToken(ctx context.Context, token mqtt.Token) error {
	done := make(chan struct{})
	go func() {
		token.Wait()
		close(done)
	}()
	select {
	case <-done:
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Package config reads HCL configuration with optional includes.
package config

import (
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/hyyp-go/hyyp/helpers"
	"github.com/hyyp-go/hyyp/log2"
	"github.com/hyyp-go/hyyp/mcs"
	"github.com/juju/errors"
)

const (
	DefaultMinResetInterval = 5 * time.Minute
	DefaultQueueDir         = "forward-queue"
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []Source `hcl:"include"`

	SenderID int64  `hcl:"sender_id"`
	DataDir  string `hcl:"data_dir"`
	LogDebug bool   `hcl:"log_debug"`

	Mcs struct {
		Address             string `hcl:"address"`
		ReadTimeoutSec      int    `hcl:"read_timeout_sec"`
		NetworkTimeoutSec   int    `hcl:"network_timeout_sec"`
		MinResetIntervalSec int    `hcl:"min_reset_interval_sec"`
		LogDebug            bool   `hcl:"log_debug"`
	} `hcl:"mcs"`

	Gcm struct {
		Retries       int `hcl:"retries"`
		RetryDelaySec int `hcl:"retry_delay_sec"`
		TimeoutSec    int `hcl:"timeout_sec"`
	} `hcl:"gcm"`

	Mqtt struct { //nolint:maligned
		Enable            bool   `hcl:"enable"`
		Broker            string `hcl:"broker"`
		ClientID          string `hcl:"client_id"`
		Username          string `hcl:"username"`
		Password          string `hcl:"password"`
		TlsCaFile         string `hcl:"tls_ca_file"`
		KeepaliveSec      int    `hcl:"keepalive_sec"`
		NetworkTimeoutSec int    `hcl:"network_timeout_sec"`
		Qos               int    `hcl:"qos"`
		Retain            bool   `hcl:"retain"`
		Topic             string `hcl:"topic"`
		QueueDir          string `hcl:"queue_dir"`
		StoreDir          string `hcl:"store_dir"`
		LogDebug          bool   `hcl:"log_debug"`
	} `hcl:"mqtt"`

	Metrics struct {
		Listen string `hcl:"listen"`
	} `hcl:"metrics"`
}

type Source struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

func (c *Config) McsAddress() string {
	if c.Mcs.Address == "" {
		return mcs.DefaultAddr
	}
	return c.Mcs.Address
}
func (c *Config) McsReadTimeout() time.Duration {
	return helpers.IntSecondDefault(c.Mcs.ReadTimeoutSec, mcs.DefaultReadTimeout)
}
func (c *Config) McsNetworkTimeout() time.Duration {
	return helpers.IntSecondDefault(c.Mcs.NetworkTimeoutSec, mcs.DefaultNetworkTimeout)
}
func (c *Config) MinResetInterval() time.Duration {
	return helpers.IntSecondDefault(c.Mcs.MinResetIntervalSec, DefaultMinResetInterval)
}
func (c *Config) GcmRetryDelay() time.Duration {
	return helpers.IntSecondDefault(c.Gcm.RetryDelaySec, time.Second)
}
func (c *Config) GcmTimeout() time.Duration {
	return helpers.IntSecondDefault(c.Gcm.TimeoutSec, 30*time.Second)
}

// MqttQueuePath is relative to DataDir unless absolute.
func (c *Config) MqttQueuePath() string {
	dir := c.Mqtt.QueueDir
	if dir == "" {
		dir = DefaultQueueDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.DataDir, dir)
}

func (c *Config) Validate() error {
	errs := make([]error, 0, 4)
	if c.DataDir == "" {
		errs = append(errs, errors.NotValidf("config data_dir empty"))
	}
	if c.Gcm.Retries < 0 {
		errs = append(errs, errors.NotValidf("config gcm.retries=%d", c.Gcm.Retries))
	}
	if c.Mqtt.Enable {
		if c.Mqtt.Broker == "" {
			errs = append(errs, errors.NotValidf("config mqtt.broker empty"))
		}
		if c.Mqtt.Qos < 0 || c.Mqtt.Qos > 2 {
			errs = append(errs, errors.NotValidf("config mqtt.qos=%d", c.Mqtt.Qos))
		}
	}
	return helpers.FoldErrors(errs)
}

func (c *Config) read(log *log2.Log, fs FullReader, source Source, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s", source.Name)
		*errs = append(*errs, err)
		return
	}

	var includes []Source
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

// Read merges sources in order, later values override.
// OsFullReader base is set to directory of first name.
func Read(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		return nil, errors.NotValidf("config Read without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, Source{Name: name}, &errs)
	}
	if len(errs) == 0 {
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return c, helpers.FoldErrors(errs)
}

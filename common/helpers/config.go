package helpers

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/guardian/videoflipper/common/naming"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

const (
	STORE_REDIS  = "redis"
	STORE_SQLITE = "sqlite"

	TRANSCODER_ELASTIC    = "elastictranscoder"
	TRANSCODER_KUBERNETES = "kubernetes"

	ENV_AWS_KEY    = "AWS_VIDEO_KEY"
	ENV_AWS_SECRET = "AWS_VIDEO_SECRET"
)

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DBNum    int    `yaml:"dbNum"`
}

type StoreConfig struct {
	Backend    string `yaml:"backend"`
	SqlitePath string `yaml:"sqlitePath"`
}

type AWSConfig struct {
	Key    string `yaml:"key"`
	Secret string `yaml:"secret"`
	Region string `yaml:"region"`
}

type TranscoderConfig struct {
	Backend      string `yaml:"backend"`
	KubeConfig   string `yaml:"kubeconfig"`
	Namespace    string `yaml:"namespace"`
	TemplateFile string `yaml:"templateFile"`
}

type RunnerConfig struct {
	PollIntervalSeconds int `yaml:"pollIntervalSeconds"`
	CheckDelaySeconds   int `yaml:"checkDelaySeconds"`
	SubmitDelaySeconds  int `yaml:"submitDelaySeconds"`
	MaxTasksPerTick     int `yaml:"maxTasksPerTick"`
	TaskTimeoutSeconds  int `yaml:"taskTimeoutSeconds"`
	MaxCheckAttempts    int `yaml:"maxCheckAttempts"`
}

/**
settings for a single transcoder output. {name} in Key and ThumbnailPattern is replaced with the
source filename (extension removed); {count} in ThumbnailPattern is left for the transcoder
*/
type PresetOutput struct {
	PresetId         string `yaml:"-"`
	Key              string `yaml:"key"`
	ThumbnailPattern string `yaml:"thumbnailPattern"`
	SegmentDuration  string `yaml:"segmentDuration"`
}

/**
preset id -> output settings, in the order they were written in the config file
*/
type PresetOutputs []PresetOutput

func (p *PresetOutputs) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw yaml.MapSlice
	if err := unmarshal(&raw); err != nil {
		return err
	}

	out := make(PresetOutputs, 0, len(raw))
	for _, item := range raw {
		presetId, isStr := item.Key.(string)
		if !isStr {
			presetId = fmt.Sprintf("%v", item.Key)
		}
		valueBytes, marshalErr := yaml.Marshal(item.Value)
		if marshalErr != nil {
			return marshalErr
		}
		var entry PresetOutput
		if err := yaml.Unmarshal(valueBytes, &entry); err != nil {
			return fmt.Errorf("could not understand output settings for preset %s: %s", presetId, err)
		}
		entry.PresetId = presetId
		out = append(out, entry)
	}
	*p = out
	return nil
}

func (p PresetOutputs) Find(presetId string) *PresetOutput {
	for i := range p {
		if p[i].PresetId == presetId {
			return &p[i]
		}
	}
	return nil
}

type PlaylistConfig struct {
	Format  string   `yaml:"format"`
	Name    string   `yaml:"name"`
	Presets []string `yaml:"presets"`
}

type Config struct {
	Redis              RedisConfig      `yaml:"redis"`
	Store              StoreConfig      `yaml:"store"`
	AWS                AWSConfig        `yaml:"aws"`
	Bucket             string           `yaml:"bucket"`
	TranscodedBucket   string           `yaml:"transcodedBucket"`
	Pipeline           string           `yaml:"pipeline"`
	Outputs            PresetOutputs    `yaml:"outputs"`
	Playlist           *PlaylistConfig  `yaml:"playlist"`
	ThumbnailExtension string           `yaml:"thumbnailExtension"`
	ThumbnailNumber    *int             `yaml:"thumbnailNumber"`
	PlaylistExtension  string           `yaml:"playlistExtension"`
	DurationField      string           `yaml:"durationField"`
	UseDirectory       bool             `yaml:"useDirectory"`
	SourceRoot         string           `yaml:"sourceRoot"`
	VideoBaseUrl       string           `yaml:"videoBaseUrl"`
	Transcoder         TranscoderConfig `yaml:"transcoder"`
	Runner             RunnerConfig     `yaml:"runner"`
	Listen             string           `yaml:"listen"`
	LogLevel           string           `yaml:"logLevel"`
}

func ReadConfig(configFile string) (*Config, error) {
	configBytes, readErr := ioutil.ReadFile(configFile)
	if readErr != nil {
		log.Printf("Could not read config from '%s': %s\n", configFile, readErr)
		return nil, readErr
	}

	conf, err := ParseConfig(configBytes)
	if err != nil {
		log.Printf("Could not understand config from '%s': %s\n", configFile, err)
		return nil, err
	}
	return conf, nil
}

/**
parse config from yaml, fill in defaults and apply environment overrides.
Validate() is not called here, so callers can inspect a partial config
*/
func ParseConfig(content []byte) (*Config, error) {
	var conf Config

	err := yaml.Unmarshal(content, &conf)
	if err != nil {
		return nil, err
	}
	conf.applyDefaults()
	conf.applyEnvironment()
	return &conf, nil
}

func (c *Config) applyDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = STORE_REDIS
	}
	if c.Transcoder.Backend == "" {
		c.Transcoder.Backend = TRANSCODER_ELASTIC
	}
	if c.AWS.Region == "" {
		c.AWS.Region = "ap-southeast-2"
	}
	if c.ThumbnailNumber == nil {
		defaultThumbnail := 1
		c.ThumbnailNumber = &defaultThumbnail
	}
	if c.Runner.PollIntervalSeconds <= 0 {
		c.Runner.PollIntervalSeconds = 1
	}
	if c.Runner.CheckDelaySeconds <= 0 {
		c.Runner.CheckDelaySeconds = 30
	}
	if c.Runner.MaxTasksPerTick <= 0 {
		c.Runner.MaxTasksPerTick = 10
	}
	if c.Runner.TaskTimeoutSeconds <= 0 {
		c.Runner.TaskTimeoutSeconds = 600
	}
	if c.Listen == "" {
		c.Listen = ":9000"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

/**
AWS credentials can be overridden by the AWS_VIDEO_KEY and AWS_VIDEO_SECRET environment variables
*/
func (c *Config) applyEnvironment() {
	if key := os.Getenv(ENV_AWS_KEY); key != "" {
		c.AWS.Key = key
	}
	if secret := os.Getenv(ENV_AWS_SECRET); secret != "" {
		c.AWS.Secret = secret
	}
}

/**
check the config is usable. Every naming template is checked against the placeholders it may use,
and every playlist preset must be one of the configured outputs
*/
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("bucket must be set")
	}
	if c.TranscodedBucket == "" {
		return errors.New("transcodedBucket must be set")
	}
	if c.Transcoder.Backend == TRANSCODER_ELASTIC && c.Pipeline == "" {
		return errors.New("pipeline must be set when using elastictranscoder")
	}
	if c.Transcoder.Backend == TRANSCODER_KUBERNETES && c.Transcoder.TemplateFile == "" {
		return errors.New("transcoder.templateFile must be set when using kubernetes")
	}
	switch c.Store.Backend {
	case STORE_REDIS:
	case STORE_SQLITE:
		if c.Store.SqlitePath == "" {
			return errors.New("store.sqlitePath must be set for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown store backend '%s'", c.Store.Backend)
	}
	if len(c.Outputs) == 0 {
		return errors.New("at least one output preset must be configured")
	}
	if c.ThumbnailNumber == nil || *c.ThumbnailNumber < 1 {
		return errors.New("thumbnailNumber must be 1 or more, thumbnails are numbered from 1")
	}

	seen := make(map[string]bool, len(c.Outputs))
	for _, out := range c.Outputs {
		if seen[out.PresetId] {
			return fmt.Errorf("preset %s is configured twice", out.PresetId)
		}
		seen[out.PresetId] = true

		if err := naming.ValidateTemplate(out.Key, naming.PLACEHOLDER_NAME); err != nil {
			return fmt.Errorf("preset %s key: %s", out.PresetId, err)
		}
		if out.ThumbnailPattern != "" {
			if err := naming.ValidateTemplate(out.ThumbnailPattern, naming.PLACEHOLDER_NAME, naming.PLACEHOLDER_COUNT); err != nil {
				return fmt.Errorf("preset %s thumbnailPattern: %s", out.PresetId, err)
			}
		}
	}

	if c.Playlist != nil {
		if c.Playlist.Format == "" {
			return errors.New("playlist.format must be set when a playlist is configured")
		}
		if c.Playlist.Name != "" {
			if err := naming.ValidateTemplate(c.Playlist.Name, naming.PLACEHOLDER_NAME); err != nil {
				return fmt.Errorf("playlist name: %s", err)
			}
		}
		for _, presetId := range c.Playlist.Presets {
			if !seen[presetId] {
				return fmt.Errorf("playlist preset %s is not a configured output", presetId)
			}
		}
	}
	return nil
}

package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported publisher types.
const (
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
	TypeHTTP   = "http"
)

const (
	defaultWebhookMethod         = http.MethodPost
	defaultWebhookTimeoutSeconds = 5
)

// fileLayout is the top-level shape of a publishers file.
type fileLayout struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig is one sink that receives status-change events.
type PublisherConfig struct {
	ID      string               `json:"id" yaml:"id"`
	Type    string               `json:"type" yaml:"type"`
	Enabled *bool                `json:"enabled" yaml:"enabled"`
	SQS     *SQSPublisherConfig  `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig  `json:"sns" yaml:"sns"`
	PubSub  *PubSubConfig        `json:"pubsub" yaml:"pubsub"`
	HTTP    *HTTPPublisherConfig `json:"http" yaml:"http"`
}

// AWSConfig holds settings shared by the AWS sinks.
type AWSConfig struct {
	Region          string `json:"region" yaml:"region"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string `json:"session_token" yaml:"session_token"`
}

// SQSPublisherConfig points at a queue. A ".fifo" queue URL selects FIFO delivery.
type SQSPublisherConfig struct {
	QueueURL  string `json:"uri" yaml:"uri"`
	AWSConfig `json:",inline" yaml:",inline"`
}

// SNSPublisherConfig points at a topic. A ".fifo" topic ARN selects FIFO delivery.
type SNSPublisherConfig struct {
	TopicARN  string `json:"topic_arn" yaml:"topic_arn"`
	AWSConfig `json:",inline" yaml:",inline"`
}

// PubSubConfig holds Google Cloud Pub/Sub settings.
type PubSubConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// HTTPPublisherConfig describes a webhook.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// LoadConfigs reads a YAML or JSON publishers file and returns its entries in
// file order, normalized and validated.
func LoadConfigs(path string) ([]PublisherConfig, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	var layout fileLayout
	if err := decodeFile(raw, filepath.Ext(path), &layout); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(layout.Publishers))
	out := make([]PublisherConfig, 0, len(layout.Publishers))
	for i, cfg := range layout.Publishers {
		cfg.normalize()
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := seen[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		seen[cfg.ID] = struct{}{}
		out = append(out, cfg)
	}
	return out, nil
}

// decodeFile uses encoding/json for .json files and yaml.v3 for everything
// else, since YAML also accepts JSON documents.
func decodeFile(raw []byte, ext string, out *fileLayout) error {
	var err error
	if strings.EqualFold(ext, ".json") {
		err = json.Unmarshal(raw, out)
	} else {
		err = yaml.Unmarshal(raw, out)
	}
	if err != nil {
		return fmt.Errorf("decode publishers file: %w", err)
	}
	return nil
}

// Enabled keeps the entries that are switched on.
func Enabled(cfgs []PublisherConfig) []PublisherConfig {
	out := make([]PublisherConfig, 0, len(cfgs))
	for _, cfg := range cfgs {
		if cfg.IsEnabled() {
			out = append(out, cfg)
		}
	}
	return out
}

// IsEnabled reports the enabled flag. Entries without one are enabled.
func (c PublisherConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

func (c *PublisherConfig) normalize() {
	c.ID = strings.TrimSpace(c.ID)
	c.Type = strings.ToLower(strings.TrimSpace(c.Type))

	if c.SQS != nil {
		c.SQS.QueueURL = strings.TrimSpace(c.SQS.QueueURL)
		c.SQS.AWSConfig.normalize()
	}
	if c.SNS != nil {
		c.SNS.TopicARN = strings.TrimSpace(c.SNS.TopicARN)
		c.SNS.AWSConfig.normalize()
	}
	if c.PubSub != nil {
		c.PubSub.ProjectID = strings.TrimSpace(c.PubSub.ProjectID)
		c.PubSub.Topic = strings.TrimSpace(c.PubSub.Topic)
		c.PubSub.CredentialsFile = strings.TrimSpace(c.PubSub.CredentialsFile)
	}
	if c.HTTP != nil {
		c.HTTP.normalize()
	}
}

func (a *AWSConfig) normalize() {
	a.Region = strings.TrimSpace(a.Region)
	a.Endpoint = strings.TrimSpace(a.Endpoint)
	a.AccessKeyID = strings.TrimSpace(a.AccessKeyID)
	a.SecretAccessKey = strings.TrimSpace(a.SecretAccessKey)
	a.SessionToken = strings.TrimSpace(a.SessionToken)
}

func (h *HTTPPublisherConfig) normalize() {
	h.URL = strings.TrimSpace(h.URL)
	h.Method = strings.ToUpper(strings.TrimSpace(h.Method))
	if h.Method == "" {
		h.Method = defaultWebhookMethod
	}
	if h.TimeoutSeconds <= 0 {
		h.TimeoutSeconds = defaultWebhookTimeoutSeconds
	}

	headers := make(map[string]string, len(h.Headers))
	for k, v := range h.Headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			headers[k] = v
		}
	}
	h.Headers = nil
	if len(headers) > 0 {
		h.Headers = headers
	}
}

// validate checks the fields each sink type needs before any client is built.
func (c PublisherConfig) validate() error {
	if c.ID == "" {
		return errors.New("id is required")
	}

	switch c.Type {
	case "":
		return c.missing("type")
	case TypeSQS:
		switch {
		case c.SQS == nil:
			return c.missing("sqs")
		case c.SQS.QueueURL == "":
			return c.missing("sqs.uri")
		case c.SQS.Region == "":
			return c.missing("sqs.region")
		}
	case TypeSNS:
		switch {
		case c.SNS == nil:
			return c.missing("sns")
		case c.SNS.TopicARN == "":
			return c.missing("sns.topic_arn")
		case c.SNS.Region == "":
			return c.missing("sns.region")
		}
	case TypePubSub:
		switch {
		case c.PubSub == nil:
			return c.missing("pubsub")
		case c.PubSub.ProjectID == "":
			return c.missing("pubsub.project_id")
		case c.PubSub.Topic == "":
			return c.missing("pubsub.topic")
		}
	case TypeHTTP:
		switch {
		case c.HTTP == nil:
			return c.missing("http")
		case c.HTTP.URL == "":
			return c.missing("http.url")
		}
	default:
		return fmt.Errorf("publisher %q: unsupported type %q", c.ID, c.Type)
	}
	return nil
}

func (c PublisherConfig) missing(field string) error {
	return fmt.Errorf("publisher %q: %s is required", c.ID, field)
}

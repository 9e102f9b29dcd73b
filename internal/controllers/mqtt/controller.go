package mqttctrl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/arenvio/heatshell/internal/audit"
	"github.com/arenvio/heatshell/internal/ports"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type Config struct {
	// Identity
	SiteID string

	// MQTT connection
	BrokerURL string
	ClientID  string

	// Topics
	BaseTopic string

	// Behavior
	QoS             byte
	RetainSnapshot  bool
	PublishInterval time.Duration

	Username string
	Password string
}

type Controller struct {
	svc ports.EnvelopeService
	cfg Config

	client mqtt.Client
}

func New(svc ports.EnvelopeService, cfg Config) (*Controller, error) {
	// ---- defaults ----

	if cfg.BrokerURL == "" {
		cfg.BrokerURL = "tcp://localhost:1883"
	}

	if cfg.SiteID == "" {
		return nil, errors.New("mqtt: SiteID is required")
	}
	if cfg.BaseTopic == "" {
		cfg.BaseTopic = "heatshell/" + cfg.SiteID
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "heatshell-" + cfg.SiteID
	}
	if cfg.PublishInterval <= 0 {
		cfg.PublishInterval = 1 * time.Second
	}
	if cfg.QoS > 1 {
		return nil, errors.New("mqtt: QoS must be 0 or 1")
	}
	return &Controller{
		svc: svc,
		cfg: cfg,
	}, nil
}

func (c *Controller) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(c.cfg.BrokerURL).
		SetClientID(c.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second)

	if c.cfg.Username != "" {
		opts.SetUsername(c.cfg.Username)
		opts.SetPassword(c.cfg.Password)
	}

	// Subscribe when connected/reconnected.
	opts.OnConnect = func(cl mqtt.Client) {
		// Subscribe to all set commands under BaseTopic.
		topic := c.topic("set/+")
		token := cl.Subscribe(topic, c.cfg.QoS, c.onMessage)
		token.Wait()
		// If subscribe fails, paho exposes token.Error().
	}

	c.client = mqtt.NewClient(opts)
	tok := c.client.Connect()
	tok.Wait()
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	// Publish loop: publish snapshot on interval, and only when changed.
	ticker := time.NewTicker(c.cfg.PublishInterval)
	defer ticker.Stop()

	var last audit.Snapshot
	first := true

	// publish immediately once and seed the change detection from it
	if s, ok := c.publishSnapshot(); ok {
		last = s
		first = false
	}

	for {
		select {
		case <-ctx.Done():
			c.client.Disconnect(250)
			return ctx.Err()

		case <-ticker.C:
			cur, err := c.svc.Get()
			if err != nil {
				continue
			}
			if first || !reflect.DeepEqual(cur, last) {
				c.publishSnapshot()
				last = cur
				first = false
			}
		}
	}
}

// publishSnapshot publishes the current snapshot and returns it, so the
// caller can seed change detection. ok is false when the service errored and
// nothing was published.
func (c *Controller) publishSnapshot() (audit.Snapshot, bool) {
	s, err := c.svc.Get()
	if err != nil {
		return audit.Snapshot{}, false
	}
	dto := snapshotDTO{
		SiteID:                 c.cfg.SiteID,
		InsideTemperature:      s.InsideTemperature,
		OutsideTemperature:     s.OutsideTemperature,
		UndergroundTemperature: s.UndergroundTemperature,
		Width:                  s.Width,
		Length:                 s.Length,
		SideHeight:             s.SideHeight,
		RoofFlux:               s.RoofFlux,
		SideFlux:               s.SideFlux,
		FloorFlux:              s.FloorFlux,
		TotalFlux:              s.TotalFlux,
	}
	b, _ := json.Marshal(dto)
	c.client.Publish(c.topic("snapshot"), c.cfg.QoS, c.cfg.RetainSnapshot, b)
	return s, true
}

type snapshotDTO struct {
	SiteID                 string  `json:"site_id"`
	InsideTemperature      float64 `json:"temperature_inside"`
	OutsideTemperature     float64 `json:"temperature_outside"`
	UndergroundTemperature float64 `json:"temperature_underground"`
	Width                  float64 `json:"width"`
	Length                 float64 `json:"length"`
	SideHeight             float64 `json:"side_height"`
	RoofFlux               float64 `json:"roof_flux"`
	SideFlux               float64 `json:"side_flux"`
	FloorFlux              float64 `json:"floor_flux"`
	TotalFlux              float64 `json:"total_flux"`
}

// Command payload format: {"value": ...}
type valueReq[T any] struct {
	Value *T `json:"value"`
}

func (c *Controller) onMessage(_ mqtt.Client, msg mqtt.Message) {
	// topic format: <base>/set/<field>
	t := msg.Topic()
	prefix := c.cfg.BaseTopic + "/set/"
	if !strings.HasPrefix(t, prefix) {
		return
	}
	field := strings.TrimPrefix(t, prefix)

	payload := msg.Payload()

	// Dispatch by field
	switch field {
	case "temperature_inside":
		v, err := decodeValueStrict[float64](payload)
		if err != nil {
			return
		}
		c.svc.SetInsideTemperature(v)

	case "temperature_outside":
		v, err := decodeValueStrict[float64](payload)
		if err != nil {
			return
		}
		c.svc.SetOutsideTemperature(v)

	case "temperature_underground":
		v, err := decodeValueStrict[float64](payload)
		if err != nil {
			return
		}
		c.svc.SetUndergroundTemperature(v)

	case "width":
		v, err := decodeValueStrict[float64](payload)
		if err != nil {
			return
		}
		cur, err := c.svc.Get()
		if err != nil {
			return
		}
		_ = c.svc.SetDimensions(v, cur.Length)

	case "length":
		v, err := decodeValueStrict[float64](payload)
		if err != nil {
			return
		}
		cur, err := c.svc.Get()
		if err != nil {
			return
		}
		_ = c.svc.SetDimensions(cur.Width, v)

	case "side_height":
		v, err := decodeValueStrict[float64](payload)
		if err != nil {
			return
		}
		_ = c.svc.SetSideHeight(v)
	}
}

func (c *Controller) topic(suffix string) string {
	return strings.TrimRight(c.cfg.BaseTopic, "/") + "/" + suffix
}

func decodeValueStrict[T any](b []byte) (T, error) {
	var zero T
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var req valueReq[T]
	if err := dec.Decode(&req); err != nil {
		return zero, err
	}
	if req.Value == nil {
		return zero, errors.New("missing field 'value'")
	}
	return *req.Value, nil
}

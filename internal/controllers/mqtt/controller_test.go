package mqttctrl

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/arenvio/heatshell/internal/testutil"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type fakeToken struct {
	err  error
	done chan struct{}
}

func (t fakeToken) Done() <-chan struct{} {
	if t.done == nil {
		t.done = make(chan struct{})
		close(t.done)
	}
	return t.done
}

func (t fakeToken) Wait() bool                       { return true }
func (t fakeToken) WaitTimeout(_ time.Duration) bool { return true }
func (t fakeToken) Error() error                     { return t.err }

type publishCall struct {
	topic   string
	qos     byte
	retain  bool
	payload []byte
}

type fakeClient struct {
	publishes []publishCall
}

func (c *fakeClient) IsConnected() bool      { return true }
func (c *fakeClient) IsConnectionOpen() bool { return true }
func (c *fakeClient) Connect() mqtt.Token    { return fakeToken{} }
func (c *fakeClient) Disconnect(_ uint)      {}
func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	var b []byte
	switch v := payload.(type) {
	case []byte:
		b = append([]byte(nil), v...)
	case string:
		b = []byte(v)
	default:
		// shouldn't happen in our controller, but keep it safe
		tmp, _ := json.Marshal(v)
		b = tmp
	}
	c.publishes = append(c.publishes, publishCall{
		topic: topic, qos: qos, retain: retained, payload: b,
	})
	return fakeToken{}
}
func (c *fakeClient) Subscribe(_ string, _ byte, _ mqtt.MessageHandler) mqtt.Token {
	return fakeToken{}
}
func (c *fakeClient) SubscribeMultiple(_ map[string]byte, _ mqtt.MessageHandler) mqtt.Token {
	return fakeToken{}
}
func (c *fakeClient) Unsubscribe(_ ...string) mqtt.Token       { return fakeToken{} }
func (c *fakeClient) AddRoute(_ string, _ mqtt.MessageHandler) {}
func (c *fakeClient) OptionsReader() mqtt.ClientOptionsReader  { return mqtt.ClientOptionsReader{} }

// ---- tests ----

func newDefaultSvc() *testutil.FakeEnvelopeService {
	return testutil.NewFakeEnvelopeService()
}

func TestNewDefaults(t *testing.T) {
	svc := newDefaultSvc()
	c, err := New(svc, Config{SiteID: "cabin42"})
	if err != nil {
		t.Fatal(err)
	}

	if c.cfg.BrokerURL != "tcp://localhost:1883" {
		t.Fatalf("expected default BrokerURL, got %q", c.cfg.BrokerURL)
	}
	if c.cfg.BaseTopic != "heatshell/cabin42" {
		t.Fatalf("expected default BaseTopic, got %q", c.cfg.BaseTopic)
	}
	if c.cfg.ClientID != "heatshell-cabin42" {
		t.Fatalf("expected default ClientID, got %q", c.cfg.ClientID)
	}
	if c.cfg.PublishInterval != 1*time.Second {
		t.Fatalf("expected default PublishInterval, got %v", c.cfg.PublishInterval)
	}
}

func TestNewValidation(t *testing.T) {
	svc := newDefaultSvc()

	if _, err := New(svc, Config{}); err == nil {
		t.Fatal("expected error when SiteID missing")
	}

	if _, err := New(svc, Config{SiteID: "x", QoS: 2}); err == nil {
		t.Fatal("expected error when QoS > 1")
	}
}

func TestTopicJoin(t *testing.T) {
	svc := newDefaultSvc()
	c, err := New(svc, Config{SiteID: "cabin42", BaseTopic: "heatshell/cabin42/"})
	if err != nil {
		t.Fatal(err)
	}
	if got := c.topic("snapshot"); got != "heatshell/cabin42/snapshot" {
		t.Fatalf("expected topic without double slashes, got %q", got)
	}
}

func TestDecodeValueStrict(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		v, err := decodeValueStrict[float64]([]byte(`{"value": 12.5}`))
		if err != nil {
			t.Fatal(err)
		}
		if v != 12.5 {
			t.Fatalf("expected 12.5, got %v", v)
		}
	})

	t.Run("missing value", func(t *testing.T) {
		_, err := decodeValueStrict[float64]([]byte(`{}`))
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		_, err := decodeValueStrict[float64]([]byte(`{"value":12,"extra":1}`))
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := decodeValueStrict[float64]([]byte(`{"value":`))
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestOnMessage_IgnoresWrongPrefix(t *testing.T) {
	svc := newDefaultSvc()
	c, err := New(svc, Config{SiteID: "cabin42"})
	if err != nil {
		t.Fatal(err)
	}

	c.onMessage(nil, fakeMessage{
		topic:   "otherprefix/set/temperature_inside",
		payload: []byte(`{"value":21}`),
	})

	if svc.SetInsideCalled {
		t.Fatal("expected SetInsideTemperature not called")
	}
}

func TestOnMessage_InsideTemperature(t *testing.T) {
	svc := newDefaultSvc()
	c, _ := New(svc, Config{SiteID: "cabin42"})
	fc := &fakeClient{}
	c.client = fc

	c.onMessage(nil, fakeMessage{
		topic:   "heatshell/cabin42/set/temperature_inside",
		payload: []byte(`{"value":23.5}`),
	})

	if !svc.SetInsideCalled || svc.SetInsideArg != 23.5 {
		t.Fatalf("expected SetInsideTemperature(23.5), got called=%v arg=%v", svc.SetInsideCalled, svc.SetInsideArg)
	}
}

func TestOnMessage_OutsideTemperature(t *testing.T) {
	svc := newDefaultSvc()
	c, _ := New(svc, Config{SiteID: "cabin42"})
	fc := &fakeClient{}
	c.client = fc

	c.onMessage(nil, fakeMessage{
		topic:   "heatshell/cabin42/set/temperature_outside",
		payload: []byte(`{"value":-3}`),
	})

	if !svc.SetOutsideCalled || svc.SetOutsideArg != -3 {
		t.Fatalf("expected SetOutsideTemperature(-3), got called=%v arg=%v", svc.SetOutsideCalled, svc.SetOutsideArg)
	}
}

func TestOnMessage_Width_KeepsLength(t *testing.T) {
	svc := newDefaultSvc()
	svc.S.Width = 5
	svc.S.Length = 4

	c, _ := New(svc, Config{SiteID: "cabin42"})
	fc := &fakeClient{}
	c.client = fc

	c.onMessage(nil, fakeMessage{
		topic:   "heatshell/cabin42/set/width",
		payload: []byte(`{"value":8}`),
	})

	if !svc.SetDimensionsCalled || svc.SetDimensionsWidth != 8 || svc.SetDimensionsLength != 4 {
		t.Fatalf("expected SetDimensions(8,4), got called=%v w=%v l=%v",
			svc.SetDimensionsCalled, svc.SetDimensionsWidth, svc.SetDimensionsLength)
	}
}

func TestOnMessage_Length_KeepsWidth(t *testing.T) {
	svc := newDefaultSvc()
	svc.S.Width = 5
	svc.S.Length = 4

	c, _ := New(svc, Config{SiteID: "cabin42"})
	fc := &fakeClient{}
	c.client = fc

	c.onMessage(nil, fakeMessage{
		topic:   "heatshell/cabin42/set/length",
		payload: []byte(`{"value":6}`),
	})

	if !svc.SetDimensionsCalled || svc.SetDimensionsWidth != 5 || svc.SetDimensionsLength != 6 {
		t.Fatalf("expected SetDimensions(5,6), got called=%v w=%v l=%v",
			svc.SetDimensionsCalled, svc.SetDimensionsWidth, svc.SetDimensionsLength)
	}
}

func TestOnMessage_SideHeight(t *testing.T) {
	svc := newDefaultSvc()
	c, _ := New(svc, Config{SiteID: "cabin42"})
	fc := &fakeClient{}
	c.client = fc

	c.onMessage(nil, fakeMessage{
		topic:   "heatshell/cabin42/set/side_height",
		payload: []byte(`{"value":3.5}`),
	})

	if !svc.SetSideHeightCalled || svc.SetSideHeightArg != 3.5 {
		t.Fatalf("expected SetSideHeight(3.5), got called=%v arg=%v", svc.SetSideHeightCalled, svc.SetSideHeightArg)
	}
}

func TestOnMessage_InvalidPayload_DoesNotCallService(t *testing.T) {
	svc := newDefaultSvc()
	c, _ := New(svc, Config{SiteID: "cabin42"})
	fc := &fakeClient{}
	c.client = fc

	c.onMessage(nil, fakeMessage{
		topic:   "heatshell/cabin42/set/temperature_inside",
		payload: []byte(`{"value":"warm"}`),
	})

	if svc.SetInsideCalled {
		t.Fatal("expected SetInsideTemperature not called")
	}
}

func TestPublishSnapshot_PublishesJSON(t *testing.T) {
	svc := newDefaultSvc()
	c, _ := New(svc, Config{SiteID: "cabin42", QoS: 1, RetainSnapshot: true})

	fc := &fakeClient{}
	c.client = fc

	c.publishSnapshot()

	if len(fc.publishes) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(fc.publishes))
	}

	p := fc.publishes[0]
	if p.topic != "heatshell/cabin42/snapshot" {
		t.Fatalf("expected snapshot topic, got %q", p.topic)
	}
	if p.qos != 1 || p.retain != true {
		t.Fatalf("expected qos=1 retain=true, got qos=%d retain=%v", p.qos, p.retain)
	}

	var got map[string]any
	if err := json.Unmarshal(p.payload, &got); err != nil {
		t.Fatalf("invalid published json: %v payload=%s", err, string(p.payload))
	}
	if got["site_id"] != "cabin42" {
		t.Fatalf("expected site_id=cabin42, got %v", got["site_id"])
	}
	if got["temperature_inside"] != 20.0 {
		t.Fatalf("expected temperature_inside=20, got %v", got["temperature_inside"])
	}
	if got["total_flux"] != svc.S.TotalFlux {
		t.Fatalf("expected total_flux=%v, got %v", svc.S.TotalFlux, got["total_flux"])
	}
}

// The returned snapshot is what Run seeds its change detection with, so an
// unchanged state must not be republished on the first tick.
func TestPublishSnapshot_ReturnsPublishedSnapshot(t *testing.T) {
	svc := newDefaultSvc()
	c, _ := New(svc, Config{SiteID: "cabin42"})
	fc := &fakeClient{}
	c.client = fc

	s, ok := c.publishSnapshot()
	if !ok {
		t.Fatal("expected ok")
	}
	if s != svc.S {
		t.Fatalf("expected returned snapshot to match service state, got %+v", s)
	}
	if len(fc.publishes) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(fc.publishes))
	}
}

func TestPublishSnapshot_ServiceError_SkipsPublish(t *testing.T) {
	svc := newDefaultSvc()
	svc.GetErr = errors.New("boom")
	c, _ := New(svc, Config{SiteID: "cabin42"})

	fc := &fakeClient{}
	c.client = fc

	_, ok := c.publishSnapshot()
	if ok {
		t.Fatal("expected ok=false on service error")
	}

	if len(fc.publishes) != 0 {
		t.Fatalf("expected no publish on service error, got %d", len(fc.publishes))
	}
}

// Shows we ignore service errors on writes (controller swallows them).
func TestOnMessage_ServiceError_IsIgnored(t *testing.T) {
	svc := newDefaultSvc()
	svc.SetSideHeightErr = errors.New("boom")
	c, _ := New(svc, Config{SiteID: "cabin42"})
	fc := &fakeClient{}
	c.client = fc

	c.onMessage(nil, fakeMessage{
		topic:   "heatshell/cabin42/set/side_height",
		payload: []byte(`{"value":2}`),
	})

	if !svc.SetSideHeightCalled {
		t.Fatal("expected SetSideHeight called")
	}
}

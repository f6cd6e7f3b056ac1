package publisher

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jgoulah/powerguard/internal/config"
	"github.com/jgoulah/powerguard/internal/events"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type message struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient records publishes; unused mqtt.Client methods panic via the nil embed
type fakeClient struct {
	mqtt.Client
	sent         []message
	err          error
	connected    bool
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, message{topic, qos, retained, payload.([]byte)})
	return &fakeToken{err: c.err}
}

func (c *fakeClient) IsConnected() bool       { return c.connected }
func (c *fakeClient) Disconnect(quiesce uint) { c.disconnected = true }

func TestPublishEvent(t *testing.T) {
	client := &fakeClient{}
	p := NewWithClient(client, "home/power")

	at := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	if err := p.Publish(events.PowerChanged{ControllerID: 2, On: false, Source: "manual", At: at}); err != nil {
		t.Fatal(err)
	}

	if len(client.sent) != 1 {
		t.Fatalf("sent %d messages", len(client.sent))
	}
	m := client.sent[0]
	if m.topic != "home/power/controller/2/power" || m.qos != 1 || !m.retained {
		t.Errorf("message = %+v", m)
	}

	var body events.PowerChanged
	if err := json.Unmarshal(m.payload, &body); err != nil {
		t.Fatal(err)
	}
	if body.ControllerID != 2 || body.On || body.Source != "manual" || !body.At.Equal(at) {
		t.Errorf("payload = %+v", body)
	}
}

func TestAttachForwardsBusEvents(t *testing.T) {
	client := &fakeClient{err: errors.New("broker down")}
	p := NewWithClient(client, "pg")
	bus := events.NewBus()

	detach := p.Attach(bus)
	bus.Publish(events.ThresholdChanged{ControllerID: 1, Threshold: 80})
	bus.Publish(events.ReservationsChanged{ControllerID: 3, Op: "create", IDs: []int{9}})
	detach()
	bus.Publish(events.PowerChanged{ControllerID: 1})

	if len(client.sent) != 2 {
		t.Fatalf("sent %d messages", len(client.sent))
	}
	if client.sent[0].topic != "pg/controller/1/threshold" || client.sent[1].topic != "pg/controller/3/reservations" {
		t.Errorf("topics = %q, %q", client.sent[0].topic, client.sent[1].topic)
	}
}

func TestPublishError(t *testing.T) {
	client := &fakeClient{err: errors.New("not authorized")}
	p := NewWithClient(client, "pg")
	if err := p.Publish(events.PowerChanged{ControllerID: 1}); err == nil {
		t.Error("expected error")
	}
}

func TestClose(t *testing.T) {
	client := &fakeClient{connected: true}
	NewWithClient(client, "pg").Close()
	if !client.disconnected {
		t.Error("Close did not disconnect")
	}
}

func TestNewRequiresEnabledBroker(t *testing.T) {
	if _, err := New(&config.Config{}); err == nil {
		t.Error("disabled MQTT accepted")
	}
	if _, err := New(&config.Config{MQTT: config.MQTTConfig{Enabled: true}}); err == nil {
		t.Error("missing broker accepted")
	}
}

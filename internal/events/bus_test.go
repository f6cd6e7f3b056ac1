package events

import "testing"

func TestPublishSubscribe(t *testing.T) {
	bus := NewBus()

	var got []Event
	unsub := bus.Subscribe(func(e Event) { got = append(got, e) })

	var second int
	bus.Subscribe(func(Event) { second++ })

	bus.Publish(PowerChanged{ControllerID: 1, On: false, Source: "manual"})
	bus.Publish(ThresholdChanged{ControllerID: 2, Threshold: 50})

	if len(got) != 2 || second != 2 {
		t.Fatalf("delivered %d/%d events", len(got), second)
	}
	if got[0].Kind() != KindPower || got[0].Controller() != 1 {
		t.Errorf("first event = %#v", got[0])
	}
	if p, ok := got[1].(ThresholdChanged); !ok || p.Threshold != 50 {
		t.Errorf("second event = %#v", got[1])
	}

	unsub()
	unsub()
	bus.Publish(ReservationsChanged{ControllerID: 3, Op: "delete"})
	if len(got) != 2 {
		t.Errorf("unsubscribed handler still called")
	}
	if second != 3 {
		t.Errorf("remaining subscriber missed event")
	}
}

func TestNilBusDrops(t *testing.T) {
	var bus *Bus
	bus.Publish(PowerChanged{ControllerID: 1})
}

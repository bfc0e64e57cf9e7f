package eventbus

import "testing"

func TestPublishRegistrationOrder(t *testing.T) {
	b := New[int]()
	var got []string
	b.Subscribe(func(v int) { got = append(got, "first") })
	b.Subscribe(func(v int) { got = append(got, "second") })
	b.Subscribe(func(v int) { got = append(got, "third") })

	b.Publish(1)
	if len(got) != 3 || got[0] != "first" || got[1] != "second" || got[2] != "third" {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestUnsubscribeIdempotent(t *testing.T) {
	b := New[string]()
	calls := 0
	unsub := b.Subscribe(func(string) { calls++ })
	other := 0
	b.Subscribe(func(string) { other++ })

	unsub()
	unsub()
	b.Publish("x")
	if calls != 0 {
		t.Fatalf("unsubscribed handler was called")
	}
	if other != 1 {
		t.Fatalf("remaining handler should be called once, got %d", other)
	}
	if b.Len() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", b.Len())
	}
}

func TestSubscribeFromHandler(t *testing.T) {
	b := New[int]()
	late := 0
	var unsub func()
	unsub = b.Subscribe(func(int) {
		b.Subscribe(func(int) { late++ })
		unsub()
	})

	b.Publish(1)
	if late != 0 {
		t.Fatalf("handler added during publish must not see the in-flight event")
	}
	b.Publish(2)
	if late != 1 {
		t.Fatalf("expected late handler to run once, got %d", late)
	}
}

package events

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
)

func TestBus_OnTrigger(t *testing.T) {
	bus := New()

	var got []any
	bus.On("saved", func(args ...any) { got = append(got, args...) })
	bus.Trigger("saved", "doc", 1)

	if want := []any{"doc", 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("args = %v, want %v", got, want)
	}
}

func TestBus_SubscriptionOrder(t *testing.T) {
	bus := New()

	var order []int
	for i := 0; i < 5; i++ {
		bus.On(Disconnected, func(...any) { order = append(order, i) })
	}
	bus.Trigger(Disconnected)

	if want := []int{0, 1, 2, 3, 4}; !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestBus_EventsAreIsolated(t *testing.T) {
	bus := New()

	var disconnected, reconnected int
	bus.On(Disconnected, func(...any) { disconnected++ })
	bus.On(Reconnected, func(...any) { reconnected++ })

	bus.Trigger(Disconnected)
	bus.Trigger("unknown")

	if disconnected != 1 || reconnected != 0 {
		t.Errorf("disconnected = %d, reconnected = %d, want 1, 0", disconnected, reconnected)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()

	var calls int
	off := bus.On(Reconnected, func(...any) { calls++ })
	bus.Trigger(Reconnected)
	off()
	off()
	bus.Trigger(Reconnected)

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if n := bus.Count(Reconnected); n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
}

func TestBus_Once(t *testing.T) {
	bus := New()

	var calls int
	bus.Once(Dispose, func(...any) { calls++ })
	bus.Trigger(Dispose)
	bus.Trigger(Dispose)

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBus_OnceUnderConcurrentTrigger(t *testing.T) {
	bus := New()

	var calls atomic.Int32
	bus.Once("x", func(...any) { calls.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Trigger("x")
		}()
	}
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestBus_Off(t *testing.T) {
	bus := New()

	var calls int
	bus.On(Disconnected, func(...any) { calls++ })
	bus.On(Disconnected, func(...any) { calls++ })
	bus.Off(Disconnected)
	bus.Trigger(Disconnected)

	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

func TestBus_Reset(t *testing.T) {
	bus := New()
	bus.On(Disconnected, func(...any) {})
	bus.On(Reconnected, func(...any) {})
	bus.Reset()

	if bus.Count(Disconnected)+bus.Count(Reconnected) != 0 {
		t.Error("Reset() should remove all handlers")
	}
}

func TestBus_SubscribeDuringTrigger(t *testing.T) {
	bus := New()

	var late int
	bus.On("x", func(...any) {
		bus.On("x", func(...any) { late++ })
	})
	bus.Trigger("x")

	if late != 0 {
		t.Errorf("handler added during dispatch ran %d times, want 0", late)
	}
	if n := bus.Count("x"); n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

func TestBus_UnsubscribeDuringTrigger(t *testing.T) {
	bus := New()

	var second int
	var offSecond func()
	bus.On("x", func(...any) { offSecond() })
	offSecond = bus.On("x", func(...any) { second++ })

	bus.Trigger("x")
	bus.Trigger("x")

	if second != 1 {
		t.Errorf("second handler calls = %d, want 1", second)
	}
}

func TestBus_PanicIsRecovered(t *testing.T) {
	var reported []error
	bus := New(WithErrorHandler(func(err error) { reported = append(reported, err) }))

	var after int
	bus.On(Dispose, func(...any) { panic(errors.New("boom")) })
	bus.On(Dispose, func(...any) { after++ })

	bus.Trigger(Dispose)

	if after != 1 {
		t.Errorf("handler after the panicking one ran %d times, want 1", after)
	}
	if len(reported) != 1 {
		t.Fatalf("reported %d errors, want 1", len(reported))
	}

	var perr *PanicError
	if !errors.As(reported[0], &perr) {
		t.Fatalf("reported error = %T, want *PanicError", reported[0])
	}
	if perr.Event != Dispose {
		t.Errorf("Event = %q, want %q", perr.Event, Dispose)
	}
	if perr.Unwrap() == nil || perr.Unwrap().Error() != "boom" {
		t.Errorf("Unwrap() = %v, want boom", perr.Unwrap())
	}
}

func TestBus_PanicWithoutErrorHandler(t *testing.T) {
	bus := New()
	bus.On("x", func(...any) { panic("boom") })
	bus.Trigger("x")
}

func TestBus_NilHandler(t *testing.T) {
	bus := New()
	off := bus.On("x", nil)
	off()
	if n := bus.Count("x"); n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
	bus.Trigger("x")
}

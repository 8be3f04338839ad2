package awaitable

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wilhg/redux/pkg/errmodel"
)

func TestJustAndFail(t *testing.T) {
	v, err := Just(42).Await()
	if err != nil || v != 42 {
		t.Fatalf("Just: v=%d err=%v", v, err)
	}
	boom := errors.New("boom")
	if _, err := Fail[int](boom).AwaitTimeout(time.Millisecond); !errors.Is(err, boom) {
		t.Fatalf("Fail: err=%v want boom", err)
	}
}

func TestPromise_TimeoutDoesNotHang(t *testing.T) {
	p := NewPromise[string]()
	start := time.Now()
	_, err := p.AwaitTimeout(30 * time.Millisecond)
	if !errors.Is(err, errmodel.ErrTimedOut) {
		t.Fatalf("err=%v want timed out", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("await blocked for %v", elapsed)
	}
	// A late resolution is still observable.
	p.Resolve("late")
	if v, err := p.Await(); err != nil || v != "late" {
		t.Fatalf("v=%q err=%v", v, err)
	}
}

func TestPromise_ResolveOnce(t *testing.T) {
	p := NewPromise[int]()
	p.Resolve(1)
	p.Resolve(2)
	p.Reject(errors.New("ignored"))
	if v, err := p.Await(); v != 1 || err != nil {
		t.Fatalf("v=%d err=%v want 1,nil", v, err)
	}
}

func TestPromise_Follow(t *testing.T) {
	src := NewPromise[int]()
	p := NewPromise[int]()
	p.Follow(src)
	go func() {
		time.Sleep(5 * time.Millisecond)
		src.Resolve(7)
	}()
	if v, err := p.AwaitTimeout(time.Second); err != nil || v != 7 {
		t.Fatalf("v=%d err=%v", v, err)
	}
}

func TestGo_RecoversPanic(t *testing.T) {
	_, err := Go(func() (int, error) { panic("kaboom") }).Await()
	if !errmodel.IsCategory(err, errmodel.CategorySystem) {
		t.Fatalf("err=%v want system panic", err)
	}
}

func TestMapAndErase(t *testing.T) {
	m := Map(Just(2), func(v int) string { return string(rune('a' + v)) })
	if v, _ := m.Await(); v != "c" {
		t.Fatalf("v=%q want c", v)
	}
	e := Erase(Just(5))
	if v, _ := e.Await(); v.(int) != 5 {
		t.Fatalf("v=%v want 5", v)
	}
}

func TestBatch_OrderAndIsolation(t *testing.T) {
	boom := errors.New("boom")
	slow := Go(func() (int, error) {
		time.Sleep(10 * time.Millisecond)
		return 1, nil
	})
	b := NewBatch(slow, Fail[int](boom), Just(3))
	vals, err := b.AwaitTimeout(time.Second)
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v want boom", err)
	}
	if vals[0] != 1 || vals[1] != 0 || vals[2] != 3 {
		t.Fatalf("vals=%v want [1 0 3]", vals)
	}
}

func TestBatch_AwaitsAllChildren(t *testing.T) {
	var done atomic.Int32
	children := make([]Awaitable[int], 0, 50)
	for i := 0; i < 50; i++ {
		children = append(children, Go(func() (int, error) {
			time.Sleep(time.Millisecond)
			done.Add(1)
			return i, nil
		}))
	}
	vals, err := NewBatch(children...).Await()
	if err != nil {
		t.Fatal(err)
	}
	if done.Load() != 50 {
		t.Fatalf("completed=%d want 50", done.Load())
	}
	for i, v := range vals {
		if v != i {
			t.Fatalf("vals[%d]=%d", i, v)
		}
	}
}

func TestBatch_Timeout(t *testing.T) {
	_, err := NewBatch(Just(1), NewPromise[int]()).AwaitTimeout(20 * time.Millisecond)
	if !errors.Is(err, errmodel.ErrTimedOut) {
		t.Fatalf("err=%v want timed out", err)
	}
}

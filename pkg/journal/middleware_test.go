package journal

import (
	"context"
	"errors"
	"testing"

	"github.com/wilhg/redux/pkg/awaitable"
	"github.com/wilhg/redux/pkg/middleware"
	"github.com/wilhg/redux/pkg/store"
)

type tally struct {
	Total int `json:"total"`
	Count int `json:"count"`
}

type add struct {
	N int `json:"n"`
}

func (add) Type() string { return "add" }

type poison struct{}

func (poison) Type() string { return "poison" }

func reduceTally(s tally, a store.Action) tally {
	if a, ok := a.(add); ok {
		s.Total += a.N
		s.Count++
	}
	return s
}

func rejectPoison(middleware.Input[tally]) func(middleware.DispatchWrapper) middleware.DispatchWrapper {
	return func(next middleware.DispatchWrapper) middleware.DispatchWrapper {
		return next.Wrap("guard", func(a store.Action) awaitable.Awaitable[any] {
			if _, ok := a.(poison); ok {
				return awaitable.Fail[any](errors.New("poisoned"))
			}
			return next.Dispatch(a)
		})
	}
}

func TestMiddleware_JournalsAndSnapshots(t *testing.T) {
	ctx := context.Background()
	j := openTest(t)

	s := middleware.Apply(rejectPoison, Middleware(j, "tally", WithSnapshots[tally](JSONCodec[tally]{}, 2)))(
		store.New(tally{}, reduceTally),
	)
	if s.ChainID() != "root-journal-guard" {
		t.Fatalf("unexpected chain %q", s.ChainID())
	}
	for i := 1; i <= 5; i++ {
		if _, err := s.Dispatch(add{N: i}).Await(); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Dispatch(poison{}).Await(); err == nil {
		t.Fatal("expected poison to be rejected")
	}

	last, err := j.LastSeq(ctx, "tally")
	if err != nil || last != 5 {
		t.Fatalf("last seq=%d err=%v", last, err)
	}
	sn, err := j.LoadLatestSnapshot(ctx, "tally")
	if err != nil {
		t.Fatal(err)
	}
	if sn.UptoSeq != 4 || string(sn.State) != `{"total":10,"count":4}` {
		t.Fatalf("unexpected snapshot %+v state=%s", sn, sn.State)
	}

	decode := Registry{"add": As[add]()}.Decode
	state, upto, err := Replay(ctx, j, "tally", tally{}, reduceTally, decode, JSONCodec[tally]{})
	if err != nil {
		t.Fatal(err)
	}
	if upto != 5 || state != s.LastState() {
		t.Fatalf("replayed %+v@%d, store has %+v", state, upto, s.LastState())
	}

	fromScratch, _, err := Replay[tally](ctx, j, "tally", tally{}, reduceTally, decode, nil)
	if err != nil || fromScratch != s.LastState() {
		t.Fatalf("replay without snapshots: %+v %v", fromScratch, err)
	}
}

func TestRegistry_UnknownType(t *testing.T) {
	if _, err := (Registry{}).Decode("missing", nil); err == nil {
		t.Fatal("expected error for unknown action type")
	}
}

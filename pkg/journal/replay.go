package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/wilhg/redux/pkg/store"
)

// Replay rebuilds the state of stream: it starts from the latest snapshot
// (or initial when there is none or codec is nil) and reduces every later
// record. It returns the state and the last applied sequence.
func Replay[S any](ctx context.Context, j *Journal, stream string, initial S, reducer store.Reducer[S], decode Decoder, codec Codec[S]) (S, int64, error) {
	ctx, span := j.span(ctx, "journal.Replay", stream)
	defer span.End()

	state := initial
	var upto int64
	if codec != nil {
		sn, err := j.LoadLatestSnapshot(ctx, stream)
		switch {
		case err == nil && len(sn.State) > 0:
			decoded, derr := codec.Decode(sn.State)
			if derr != nil {
				return initial, 0, fail(span, fmt.Errorf("journal: decode snapshot %s: %w", sn.ID, derr))
			}
			state, upto = decoded, sn.UptoSeq
		case err != nil && !errors.Is(err, ErrNotFound):
			return initial, 0, fail(span, err)
		}
	}

	records, err := j.List(ctx, stream, upto, 0)
	if err != nil {
		return initial, 0, fail(span, err)
	}
	last := upto
	for _, r := range records {
		action, err := decode(r.Type, r.Payload)
		if err != nil {
			return initial, 0, fail(span, err)
		}
		state = reducer(state, action)
		last = r.Seq
	}
	return state, last, nil
}

package ingest

import (
	"context"
	"errors"
	"io"

	"github.com/japaniel/oewn/pkg/lmf"
)

// Item carries a record or the error that ended the stream.
type Item struct {
	Record lmf.Record
	Err    error
}

// Produce drains src into out and closes out. A source error is forwarded
// as the final item so the consumer sees it in order, and is also returned.
func Produce(ctx context.Context, src RecordSource, out chan<- Item) error {
	defer close(out)
	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		it := Item{Record: rec, Err: err}
		select {
		case out <- it:
		case <-ctx.Done():
			return ctx.Err()
		}
		if err != nil {
			return err
		}
	}
}

// ChannelSource reads items written by Produce.
type ChannelSource struct {
	ctx context.Context
	in  <-chan Item
}

// NewChannelSource returns a RecordSource over in that gives up when ctx
// is done.
func NewChannelSource(ctx context.Context, in <-chan Item) *ChannelSource {
	return &ChannelSource{ctx: ctx, in: in}
}

// Next returns the next record, the forwarded error, or io.EOF once the
// channel is closed.
func (c *ChannelSource) Next() (lmf.Record, error) {
	select {
	case it, ok := <-c.in:
		if !ok {
			return nil, io.EOF
		}
		return it.Record, it.Err
	case <-c.ctx.Done():
		return nil, c.ctx.Err()
	}
}

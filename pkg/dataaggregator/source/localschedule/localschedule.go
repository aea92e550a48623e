package localschedule

import (
	"context"
	"reflect"

	"github.com/travigo/departureboard/pkg/dataaggregator/query"
	"github.com/travigo/departureboard/pkg/dataaggregator/source"
	"github.com/travigo/departureboard/pkg/schedule"
)

type Loader interface {
	Load(ctx context.Context) (schedule.Document, error)
}

// Source answers schedule queries from the local flat file store
type Source struct {
	Store Loader
	ctx   context.Context
}

func New(ctx context.Context, store Loader) Source {
	return Source{Store: store, ctx: ctx}
}

func (s Source) GetName() string {
	return "Local Schedule File"
}

func (s Source) Supports() []reflect.Type {
	return []reflect.Type{
		reflect.TypeOf(schedule.Document{}),
	}
}

func (s Source) Lookup(q any) (interface{}, error) {
	switch q.(type) {
	case query.Schedule:
		ctx := s.ctx
		if ctx == nil {
			ctx = context.Background()
		}

		document, err := s.Store.Load(ctx)
		if err != nil {
			return nil, err
		}
		return document, nil
	default:
		return nil, source.UnsupportedSourceError
	}
}

package query

import (
	"fmt"
	"strconv"

	"subgrid/internal/storage"
	"subgrid/pkg/model"
)

// ContentRange describes the slice served out of the filtered result set,
// rendered into the Content-Range response header.
type ContentRange struct {
	Resource string
	Start    int
	End      int
	Total    int
}

// String renders the header value, e.g. "subscriptions 0-10/25".
func (c ContentRange) String() string {
	return fmt.Sprintf("%s %d-%d/%d", c.Resource, c.Start, c.End, c.Total)
}

// ParseRange validates an optional range parameter pair. No range means no
// slicing. A supplied range must be exactly two integers with start < end;
// anything else is a client error, never a silent clamp.
func ParseRange(values []string) (*storage.RangeSpec, error) {
	if len(values) == 0 {
		return nil, nil
	}
	if len(values) != 2 {
		return nil, model.BadRequestf("invalid range parameters")
	}

	start, err := strconv.Atoi(values[0])
	if err != nil {
		return nil, model.BadRequestf("invalid range parameters")
	}
	end, err := strconv.Atoi(values[1])
	if err != nil {
		return nil, model.BadRequestf("invalid range parameters")
	}
	if start >= end {
		return nil, model.BadRequestf("invalid range parameters")
	}
	return &storage.RangeSpec{Start: start, End: end}, nil
}

package iracing

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Herbstein/iracing-driver-data-dump/internal/components/assert"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// MaxBatchSize is the most customer ids the member endpoint accepts in one request.
const MaxBatchSize = 10

// partition splits items into contiguous batches of at most `size` items,
// concatenating the batches gives back `items`.
func partition[T any](items []T, size int) [][]T {
	assert.Positive(size, "batch size")

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}

func joinIds(ids []uint32) string {
	formatted := make([]string, len(ids))
	for i, id := range ids {
		formatted[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(formatted, ",")
}

// GetMembers retrieves the members with the given customer ids, licenses included.
//
// Ids are requested in batches of MaxBatchSize, one after the other, and the
// result keeps the order of the batches. If any batch fails, no members are returned.
func (c *Client) GetMembers(ctx context.Context, ids []uint32) ([]Member, error) {
	ctx, span := tracer.Start(ctx, "client:GetMembers")
	defer span.End()
	span.SetAttributes(attribute.Int("ids", len(ids)))

	batches := partition(ids, MaxBatchSize)

	members := []Member{}
	for i, batch := range batches {
		result, err := c.getMemberBatch(ctx, batch)
		if err != nil {
			err = fmt.Errorf("get members: batch %d of %d: %w", i+1, len(batches), err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "batch failed")
			return nil, err
		}
		members = append(members, result...)
	}

	memberCounter.Add(ctx, int64(len(members)))
	c.tel.ReportCount(report_client_get_members, int64(len(members)))
	return members, nil
}

func (c *Client) getMemberBatch(ctx context.Context, ids []uint32) ([]Member, error) {
	req := c.http.R().
		SetQueryParam("cust_ids", joinIds(ids)).
		SetQueryParam("include_licenses", "true")

	res, err := fetchLink[membersPayload](ctx, c, req, resty.MethodGet, "data/member/get/")
	if err != nil {
		return nil, err
	}
	payload, err := res.unwrap()
	if err != nil {
		c.tel.ReportBroken(report_client_get_members, err, joinIds(ids))
		return nil, err
	}
	return payload.Members, nil
}

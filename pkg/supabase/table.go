package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pokecounter/pokecounter/pkg/tracker"
	"github.com/pokecounter/pokecounter/pkg/whttp"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var returnRepresentation = whttp.WHTTPHeader{Name: "Prefer", Value: "return=representation"}

// Table is the counters table accessed with one session's token. Row level
// security on the project decides which rows that token sees.
type Table struct {
	c     *Client
	token string
}

// Table returns the counters table for accessToken (empty means anon).
func (c *Client) Table(accessToken string) *Table {
	return &Table{c: c, token: accessToken}
}

var _ tracker.Remote = (*Table)(nil)

func (t *Table) path(query string) string {
	return "/rest/v1/" + url.PathEscape(t.c.table) + "?" + query
}

func idFilter(id string) string {
	return "id=eq." + url.QueryEscape(id)
}

func (t *Table) Select(ctx context.Context) ([]tracker.Item, error) {
	res, err := t.c.do(ctx, t.c.reads, http.MethodGet, t.path("select=*&order=created_at.desc"), t.token, nil)
	if err != nil {
		return nil, err
	}
	return parseRows(res.BodyString)
}

func (t *Table) Insert(ctx context.Context, d tracker.Draft) ([]tracker.Item, error) {
	status := d.Status
	if status == "" {
		status = tracker.StatusOpen
	}
	body := `{}`
	var err error
	for _, kv := range []struct {
		key string
		val interface{}
	}{
		{tracker.ColumnName, d.Name},
		{tracker.ColumnCount, d.Count},
		{tracker.ColumnStatus, string(status)},
		{tracker.ColumnCreatedAt, d.CreatedAt.UTC().Format(time.RFC3339Nano)},
	} {
		if body, err = sjson.Set(body, kv.key, kv.val); err != nil {
			return nil, err
		}
	}

	res, err := t.c.do(ctx, t.c.writes, http.MethodPost, t.path("select=*"), t.token, []byte("["+body+"]"), returnRepresentation)
	if err != nil {
		return nil, err
	}
	return parseRows(res.BodyString)
}

func (t *Table) Update(ctx context.Context, id string, m tracker.Mutation) error {
	body, err := sjson.Set(`{}`, m.Column(), m.Value())
	if err != nil {
		return err
	}
	res, err := t.c.do(ctx, t.c.writes, http.MethodPatch, t.path(idFilter(id)), t.token, []byte(body), returnRepresentation)
	if err != nil {
		return err
	}
	if gjson.Get(res.BodyString, "#").Int() == 0 {
		return fmt.Errorf("%w: %s", tracker.ErrNotFound, id)
	}
	return nil
}

func (t *Table) Delete(ctx context.Context, id string) error {
	res, err := t.c.do(ctx, t.c.writes, http.MethodDelete, t.path(idFilter(id)), t.token, nil, returnRepresentation)
	if err != nil {
		return err
	}
	if gjson.Get(res.BodyString, "#").Int() == 0 {
		return fmt.Errorf("%w: %s", tracker.ErrNotFound, id)
	}
	return nil
}

func parseRows(body string) ([]tracker.Item, error) {
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("supabase: invalid JSON response")
	}
	arr := gjson.Parse(body)
	if !arr.IsArray() {
		return nil, fmt.Errorf("supabase: expected an array of rows")
	}
	out := []tracker.Item{}
	for _, r := range arr.Array() {
		it := tracker.Item{
			ID:     r.Get(tracker.ColumnID).String(),
			Name:   r.Get(tracker.ColumnName).String(),
			Count:  int(r.Get(tracker.ColumnCount).Int()),
			Method: tracker.Method(r.Get(tracker.ColumnMethod).String()),
			Status: tracker.Status(r.Get(tracker.ColumnStatus).String()),
			Game:   r.Get(tracker.ColumnGame).String(),
		}
		if it.Status == "" {
			it.Status = tracker.StatusOpen
		}
		if ts := r.Get(tracker.ColumnCreatedAt).String(); ts != "" {
			created, err := parseTimestamp(ts)
			if err != nil {
				return nil, fmt.Errorf("supabase: row %s: created_at: %w", it.ID, err)
			}
			it.CreatedAt = created.UTC()
		}
		out = append(out, it)
	}
	return out, nil
}

// timestampNoZone is how PostgREST renders a timestamp column without time zone.
const timestampNoZone = "2006-01-02T15:04:05.999999999"

// parseTimestamp accepts timestamptz values and zoneless timestamps, which
// are read as UTC.
func parseTimestamp(ts string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err == nil {
		return t, nil
	}
	if t, zerr := time.ParseInLocation(timestampNoZone, ts, time.UTC); zerr == nil {
		return t, nil
	}
	return time.Time{}, err
}

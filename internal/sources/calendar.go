package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"rms-insight-workers/internal/models"
)

const (
	DefaultCalendarIndex = "market-calendar"
	calendarPageSize     = 500
	// calendarMaxHits is the default index.max_result_window; from/size
	// paging cannot read past it.
	calendarMaxHits = 10000

	calendarTypeEvent   = "event"
	calendarTypeHoliday = "holiday"
)

// Calendar reads market events and public holidays from Elasticsearch.
type Calendar struct {
	client   *elasticsearch.Client
	index    string
	pageSize int
}

func NewCalendar(client *elasticsearch.Client, index string) *Calendar {
	if index == "" {
		index = DefaultCalendarIndex
	}
	return &Calendar{client: client, index: index, pageSize: calendarPageSize}
}

type calendarDoc struct {
	Type     string      `json:"type"`
	Name     string      `json:"name"`
	DateFrom models.Date `json:"date_from"`
	DateTo   models.Date `json:"date_to"`
	Date     models.Date `json:"date"`
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source calendarDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// LoadEvents returns the events overlapping the window.
func (c *Calendar) LoadEvents(ctx context.Context, req Request) ([]models.EventRecord, error) {
	query := map[string]interface{}{
		"bool": map[string]interface{}{
			"filter": []interface{}{
				map[string]interface{}{"term": map[string]interface{}{"property_id": req.PropertyID}},
				map[string]interface{}{"term": map[string]interface{}{"type": calendarTypeEvent}},
				map[string]interface{}{"range": map[string]interface{}{"date_from": map[string]interface{}{"lte": req.To.String()}}},
				map[string]interface{}{"range": map[string]interface{}{"date_to": map[string]interface{}{"gte": req.From.String()}}},
			},
		},
	}

	docs, err := c.search(ctx, query, "date_from")
	if err != nil {
		return nil, err
	}

	events := make([]models.EventRecord, 0, len(docs))
	for _, d := range docs {
		to := d.DateTo
		if to.IsZero() {
			to = d.DateFrom
		}
		events = append(events, models.EventRecord{Name: d.Name, DateFrom: d.DateFrom, DateTo: to})
	}
	return events, nil
}

// LoadHolidays returns the holidays falling inside the window.
func (c *Calendar) LoadHolidays(ctx context.Context, req Request) ([]models.HolidayRecord, error) {
	query := map[string]interface{}{
		"bool": map[string]interface{}{
			"filter": []interface{}{
				map[string]interface{}{"term": map[string]interface{}{"property_id": req.PropertyID}},
				map[string]interface{}{"term": map[string]interface{}{"type": calendarTypeHoliday}},
				map[string]interface{}{"range": map[string]interface{}{"date": map[string]interface{}{
					"gte": req.From.String(),
					"lte": req.To.String(),
				}}},
			},
		},
	}

	docs, err := c.search(ctx, query, "date")
	if err != nil {
		return nil, err
	}

	holidays := make([]models.HolidayRecord, 0, len(docs))
	for _, d := range docs {
		holidays = append(holidays, models.HolidayRecord{Name: d.Name, Date: d.Date})
	}
	return holidays, nil
}

// search pages through every hit of the query. Paging stops on a short page
// or once hits.total documents have been read.
func (c *Calendar) search(ctx context.Context, query map[string]interface{}, sortField string) ([]calendarDoc, error) {
	var docs []calendarDoc
	for from := 0; ; from += c.pageSize {
		if from+c.pageSize > calendarMaxHits {
			return nil, fmt.Errorf("calendar search on %s matched more than %d documents", c.index, calendarMaxHits)
		}

		page, total, err := c.searchPage(ctx, query, sortField, from)
		if err != nil {
			return nil, err
		}
		docs = append(docs, page...)

		if len(page) < c.pageSize || len(docs) >= total {
			break
		}
	}
	if docs == nil {
		docs = []calendarDoc{}
	}
	return docs, nil
}

func (c *Calendar) searchPage(ctx context.Context, query map[string]interface{}, sortField string, from int) ([]calendarDoc, int, error) {
	body, err := json.Marshal(map[string]interface{}{
		"query":            query,
		"sort":             []interface{}{map[string]interface{}{sortField: "asc"}},
		"from":             from,
		"size":             c.pageSize,
		"track_total_hits": true,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode calendar query: %w", err)
	}

	res, err := c.client.Search(
		c.client.Search.WithContext(ctx),
		c.client.Search.WithIndex(c.index),
		c.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, fmt.Errorf("calendar search on %s failed: %s", c.index, res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("failed to decode calendar response: %w", err)
	}

	docs := make([]calendarDoc, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, parsed.Hits.Total.Value, nil
}

// Package aggregate merges per-service outcomes into the unified views.
//
// Every function consumes an outcome set already ordered by registration
// and produces a result that depends only on that set, never on the order
// in which backends answered.
package aggregate

import (
	"sort"
	"time"

	"github.com/MrSnakeDoc/integrator/internal/domain"
	"github.com/MrSnakeDoc/integrator/internal/normalize"
)

// collect normalizes each successful outcome and records every failure.
// limit < 0 keeps all records. When reported is true the per-service count
// uses the count announced by the service.
func collect[T any](outcomes *domain.Outcomes, norm func(string, *domain.Payload) (normalize.Batch[T], *domain.Failure), limit int, reported bool) domain.AggregationResult[T] {
	res := domain.AggregationResult[T]{
		Counts:   make([]domain.Count, 0, outcomes.Len()),
		Items:    []T{},
		Failures: map[string]*domain.Failure{},
	}

	outcomes.Each(func(o domain.Outcome) {
		if !o.OK() {
			res.Failures[o.Service] = o.Failure
			return
		}

		batch, f := norm(o.Service, o.Payload)
		if f != nil {
			f.Elapsed = o.Latency
			res.Failures[o.Service] = f
			return
		}
		batch = batch.Truncate(limit)

		n := len(batch.Records)
		if reported {
			n = batch.Count()
		}
		res.Counts = append(res.Counts, domain.Count{Service: o.Service, Count: n})
		res.Total += n
		res.Items = append(res.Items, batch.Records...)
	})

	return res
}

// Inbox merges unread messages, newest first. Each service is truncated to
// limit before the merge; counts keep what the service reported before
// truncation, so Items may be shorter than Total.
func Inbox(outcomes *domain.Outcomes, limit int) domain.AggregationResult[domain.Message] {
	res := collect(outcomes, normalize.Messages, limit, true)
	sort.SliceStable(res.Items, func(i, j int) bool {
		return newerFirst(res.Items[i].Timestamp, res.Items[j].Timestamp)
	})
	return res
}

// Calendar merges events by ascending start.
func Calendar(outcomes *domain.Outcomes) domain.AggregationResult[domain.Event] {
	res := collect(outcomes, normalize.Events, -1, false)
	sort.SliceStable(res.Items, func(i, j int) bool {
		return olderFirst(res.Items[i].Start, res.Items[j].Start)
	})
	return res
}

// Tasks concatenates tasks in registration order.
func Tasks(outcomes *domain.Outcomes) domain.AggregationResult[domain.Task] {
	return collect(outcomes, normalize.Tasks, -1, false)
}

// Search groups hits under "<service>_<domain>". label returns the result
// domain of a service.
func Search(query string, outcomes *domain.Outcomes, label func(service string) string) domain.SearchResult {
	res := domain.SearchResult{
		Query:    query,
		Groups:   make([]domain.SearchGroup, 0, outcomes.Len()),
		Failures: map[string]*domain.Failure{},
	}

	outcomes.Each(func(o domain.Outcome) {
		if !o.OK() {
			res.Failures[o.Service] = o.Failure
			return
		}

		dom := label(o.Service)
		batch, f := normalize.SearchHits(o.Service, dom, o.Payload)
		if f != nil {
			f.Elapsed = o.Latency
			res.Failures[o.Service] = f
			return
		}

		res.Groups = append(res.Groups, domain.SearchGroup{
			Key:     o.Service + "_" + dom,
			Service: o.Service,
			Domain:  dom,
			Count:   len(batch.Records),
			Items:   batch.Records,
		})
		res.Total += len(batch.Records)
	})

	return res
}

// newerFirst orders descending with zero times last. Equal times keep
// their input order under a stable sort.
func newerFirst(a, b time.Time) bool {
	switch {
	case a.IsZero():
		return false
	case b.IsZero():
		return true
	}
	return a.After(b)
}

// olderFirst orders ascending with zero times last.
func olderFirst(a, b time.Time) bool {
	switch {
	case a.IsZero():
		return false
	case b.IsZero():
		return true
	}
	return a.Before(b)
}

package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
	"github.com/AlexTLDR/wedding-rsvp/internal/validation"
)

// HitKind says which record a search hit points at.
type HitKind string

const (
	HitInvite   HitKind = "invite"
	HitResponse HitKind = "response"
)

// DefaultSearchLimit caps results when the caller passes no limit.
const DefaultSearchLimit = 20

// Hit is one ranked search result.
type Hit struct {
	Kind     HitKind `json:"kind"`
	ID       string  `json:"id"`
	InviteID string  `json:"invite_id,omitempty"`
	Name     string  `json:"name"`
	Email    string  `json:"email,omitempty"`
	Phone    string  `json:"phone,omitempty"`
	Score    float64 `json:"score"`
}

// Index is an in-memory guest search index over invites and responses.
// It is safe for concurrent use.
type Index struct {
	mu    sync.RWMutex
	index bleve.Index
}

// NewIndex creates an empty in-memory index.
func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()

	text := func(analyzer string) *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = analyzer
		fm.Store = true
		return fm
	}

	doc.AddFieldMappingsAt("kind", text(keyword.Name))
	doc.AddFieldMappingsAt("record_id", text(keyword.Name))
	doc.AddFieldMappingsAt("invite_id", text(keyword.Name))
	doc.AddFieldMappingsAt("name", text(standard.Name))
	doc.AddFieldMappingsAt("template_name", text(standard.Name))
	doc.AddFieldMappingsAt("email", text(simple.Name))
	doc.AddFieldMappingsAt("phone", text(keyword.Name))

	im.DefaultMapping = doc
	return im
}

// Load indexes every invite and response in one batch. Loading a record a
// second time overwrites it.
func (x *Index) Load(invites []*domain.Invite, responses []*domain.Response) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	batch := x.index.NewBatch()
	for _, inv := range invites {
		doc := map[string]any{
			"kind":          string(HitInvite),
			"record_id":     inv.ID,
			"name":          inv.Name,
			"template_name": inv.TemplateName,
			"email":         inv.Email,
			"phone":         validation.NormalizePhone(inv.Phone),
		}
		if err := batch.Index(docID(HitInvite, inv.ID), doc); err != nil {
			return fmt.Errorf("failed to index invite %s: %w", inv.ID, err)
		}
	}
	for _, r := range responses {
		doc := map[string]any{
			"kind":      string(HitResponse),
			"record_id": r.ID,
			"invite_id": r.InviteID,
			"name":      r.Name,
			"email":     r.Email,
			"phone":     validation.NormalizePhone(r.Phone),
		}
		if err := batch.Index(docID(HitResponse, r.ID), doc); err != nil {
			return fmt.Errorf("failed to index response %s: %w", r.ID, err)
		}
	}
	if err := x.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to commit search batch: %w", err)
	}
	return nil
}

func docID(kind HitKind, id string) string {
	return string(kind) + ":" + id
}

// Search matches q against names, template names, e-mails and phone digits.
// An empty query returns no hits.
func (x *Index) Search(ctx context.Context, q string, limit int) ([]Hit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	req := bleve.NewSearchRequestOptions(buildQuery(q), limit, 0, false)
	req.Fields = []string{"kind", "record_id", "invite_id", "name", "email", "phone"}

	x.mu.RLock()
	res, err := x.index.SearchInContext(ctx, req)
	x.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{Score: h.Score}
		hit.Kind = HitKind(stringField(h.Fields, "kind"))
		hit.ID = stringField(h.Fields, "record_id")
		hit.InviteID = stringField(h.Fields, "invite_id")
		hit.Name = stringField(h.Fields, "name")
		hit.Email = stringField(h.Fields, "email")
		hit.Phone = stringField(h.Fields, "phone")
		hits = append(hits, hit)
	}
	return hits, nil
}

func stringField(fields map[string]any, name string) string {
	s, _ := fields[name].(string)
	return s
}

func buildQuery(q string) query.Query {
	lower := strings.ToLower(q)

	nameMatch := bleve.NewMatchQuery(q)
	nameMatch.SetField("name")
	nameMatch.SetBoost(3.0)

	templateMatch := bleve.NewMatchQuery(q)
	templateMatch.SetField("template_name")
	templateMatch.SetBoost(2.0)

	emailMatch := bleve.NewMatchQuery(q)
	emailMatch.SetField("email")

	namePrefix := bleve.NewPrefixQuery(lower)
	namePrefix.SetField("name")
	namePrefix.SetBoost(0.5)

	queries := []query.Query{nameMatch, templateMatch, emailMatch, namePrefix}

	if digits := validation.NormalizePhone(q); len(digits) >= 3 {
		phonePrefix := bleve.NewPrefixQuery(digits)
		phonePrefix.SetField("phone")
		queries = append(queries, phonePrefix)
	}

	return bleve.NewDisjunctionQuery(queries...)
}

// Close releases the index.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.index.Close()
}

// SearchGuests builds a throwaway index over the given records and runs one
// query against it.
func SearchGuests(ctx context.Context, invites []*domain.Invite, responses []*domain.Response, q string, limit int) ([]Hit, error) {
	idx, err := NewIndex()
	if err != nil {
		return nil, err
	}
	defer idx.Close()

	if err := idx.Load(invites, responses); err != nil {
		return nil, err
	}
	return idx.Search(ctx, q, limit)
}

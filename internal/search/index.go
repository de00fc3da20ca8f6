// Package search keeps a full-text index of the posting store.
package search

import (
	"errors"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jmtracker/internal/model"
)

// titleBoost weights title matches over the other fields.
const titleBoost = 3.0

// Index wraps a bleve index of postings.
type Index struct {
	index bleve.Index
}

// document is the indexed form of a posting.
type document struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Institution string `json:"institution"`
	Department  string `json:"department"`
	Keywords    string `json:"keywords"`
	FullText    string `json:"full_text"`
	Status      string `json:"status"`
	Deadline    string `json:"deadline"`
}

// Hit is one search result.
type Hit struct {
	Key         string              `json:"key"`
	Title       string              `json:"title"`
	Institution string              `json:"institution"`
	Status      string              `json:"status"`
	Deadline    string              `json:"deadline"`
	Score       float64             `json:"score"`
	Fragments   map[string][]string `json:"fragments,omitempty"`
}

var searchFields = []string{"title", "institution", "department", "keywords", "full_text"}

// Open opens the index at path, creating it when it does not exist.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, buildMapping())
		if err != nil {
			return nil, eris.Wrap(err, "search: create index")
		}
	} else if err != nil {
		return nil, eris.Wrap(err, "search: open index")
	}
	return &Index{index: idx}, nil
}

// Rebuild discards any index at path and indexes postings from scratch.
func Rebuild(path string, postings []model.Posting) (*Index, error) {
	if err := os.RemoveAll(path); err != nil {
		return nil, eris.Wrap(err, "search: remove old index")
	}
	idx, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := idx.IndexPostings(postings); err != nil {
		idx.Close() //nolint:errcheck
		return nil, err
	}
	return idx, nil
}

// NewMemory creates an index held in memory.
func NewMemory() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, eris.Wrap(err, "search: create memory index")
	}
	return &Index{index: idx}, nil
}

func buildMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = "en"

	keyword := bleve.NewKeywordFieldMapping()

	doc := bleve.NewDocumentMapping()
	for _, f := range searchFields {
		doc.AddFieldMappingsAt(f, text)
	}
	doc.AddFieldMappingsAt("key", keyword)
	doc.AddFieldMappingsAt("status", keyword)
	doc.AddFieldMappingsAt("deadline", keyword)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// Close closes the index.
func (i *Index) Close() error {
	return i.index.Close()
}

// IndexPostings adds or replaces postings in one batch.
func (i *Index) IndexPostings(postings []model.Posting) error {
	batch := i.index.NewBatch()
	for _, p := range postings {
		d := document{
			Key:         p.Key().String(),
			Title:       p.Title,
			Institution: p.Institution,
			Department:  p.Department,
			Keywords:    p.Keywords,
			FullText:    p.FullText,
			Status:      string(p.Status),
			Deadline:    p.Deadline,
		}
		if err := batch.Index(d.Key, d); err != nil {
			return eris.Wrapf(err, "search: index %s", d.Key)
		}
	}
	if err := i.index.Batch(batch); err != nil {
		return eris.Wrap(err, "search: commit batch")
	}
	zap.L().Debug("indexed postings", zap.Int("count", len(postings)))
	return nil
}

// Count returns the number of indexed postings.
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}

// Search matches text against the posting fields, boosting title matches.
// A non-empty status restricts hits to that status.
func (i *Index) Search(text, status string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}

	var fieldQueries []query.Query
	for _, f := range searchFields {
		mq := bleve.NewMatchQuery(text)
		mq.SetField(f)
		if f == "title" {
			mq.SetBoost(titleBoost)
		}
		fieldQueries = append(fieldQueries, mq)
	}
	var q query.Query = bleve.NewDisjunctionQuery(fieldQueries...)
	if status != "" {
		sq := bleve.NewTermQuery(status)
		sq.SetField("status")
		q = bleve.NewConjunctionQuery(q, sq)
	}

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"key", "title", "institution", "status", "deadline"}
	req.Highlight = bleve.NewHighlight()

	res, err := i.index.Search(req)
	if err != nil {
		return nil, eris.Wrap(err, "search: query")
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{Key: h.ID, Score: h.Score, Fragments: h.Fragments}
		hit.Title, _ = h.Fields["title"].(string)
		hit.Institution, _ = h.Fields["institution"].(string)
		hit.Status, _ = h.Fields["status"].(string)
		hit.Deadline, _ = h.Fields["deadline"].(string)
		hits = append(hits, hit)
	}
	return hits, nil
}

package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"scifind-backend/internal/models"
)

func TestComputeWorkKeyDOIPriority(t *testing.T) {
	now := time.Now()
	r := &models.PaperRecord{Title: "x", DOI: strp("10.1145/3295222.3295349")}
	assert.Equal(t, "doi:10.1145/3295222.3295349", ComputeWorkKey(r, now))
}

func TestComputeWorkKeySuspiciousDOISkipped(t *testing.T) {
	now := time.Now()
	r := &models.PaperRecord{
		Title:   "Attention Is All You Need",
		DOI:     strp("10.65215/ne77pf66"),
		ArxivID: strp("1706.03762"),
	}
	assert.Equal(t, "arxiv:1706.03762", ComputeWorkKey(r, now))
}

func TestComputeWorkKeyArxivFromAnySource(t *testing.T) {
	now := time.Now()
	s2 := &models.PaperRecord{Title: "x", Source: models.SourceSemanticScholar, ArxivID: strp("1706.03762v2")}
	oa := &models.PaperRecord{Title: "x", Source: models.SourceOpenAlex, ArxivID: strp("1706.03762")}
	assert.Equal(t, ComputeWorkKey(s2, now), ComputeWorkKey(oa, now))
	assert.Equal(t, "arxiv:1706.03762", ComputeWorkKey(s2, now))
}

func TestComputeWorkKeyTitleHashFallback(t *testing.T) {
	now := time.Now()
	r := &models.PaperRecord{Title: "Some Obscure Paper", Source: "other"}
	key := ComputeWorkKey(r, now)
	assert.Contains(t, key, "title_hash:")
}

func TestComputeWorkKeyEquivalenceExceptTitleHash(t *testing.T) {
	now := time.Now()
	a := &models.PaperRecord{Title: "x", DOI: strp("10.1/a")}
	b := &models.PaperRecord{Title: "y", DOI: strp("10.1/a")}
	c := &models.PaperRecord{Title: "z", DOI: strp("10.1/a")}
	ka, kb, kc := ComputeWorkKey(a, now), ComputeWorkKey(b, now), ComputeWorkKey(c, now)
	assert.Equal(t, ka, kb)
	assert.Equal(t, kb, kc)
}

func TestFuzzySubcluster(t *testing.T) {
	now := time.Now()
	recs := []*models.PaperRecord{
		{Title: "Attention Is All You Need", Year: intp(2017), Source: "a"},
		{Title: "Attention is all you need", Year: intp(2017), Source: "b"},
		{Title: "Completely Unrelated Paper About Cats", Year: intp(2019), Source: "c"},
	}
	groups := ClusterAll(recs, now)
	// none has a doi/arxiv/pmid/s2 id, so all get title_hash keys; the two
	// Attention records share a bucket and stay one group, the cat paper
	// forms its own.
	assert.Len(t, groups, 2)
}

package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"scifind-backend/internal/models"
)

func idSeq(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + string(rune('0'+n))
	}
}

func TestMergeClusterSingleRecordTrivialWrap(t *testing.T) {
	now := time.Now()
	r := &models.PaperRecord{Title: "Solo Paper", Source: models.SourceArxiv, ArxivID: strp("1706.03762")}
	m := MergeCluster([]*models.PaperRecord{r}, "arxiv:1706.03762", idSeq("m"), now)
	assert.Equal(t, "Solo Paper", m.Title)
	assert.Equal(t, []models.SourceTag{models.SourceArxiv}, m.Sources)
}

func TestMergeClusterRepresentativeSelection(t *testing.T) {
	now := time.Now()
	weak := &models.PaperRecord{
		Title: "Weak Preprint", Source: models.SourceArxiv, ArxivID: strp("1706.03762"),
	}
	strong := &models.PaperRecord{
		Title: "Weak Preprint", Source: models.SourceSemanticScholar,
		DOI: strp("10.1/x"), Abstract: strp("abs"), PublisherURL: strp("http://pub"),
		CitationCount: intp(10), WorkType: models.WorkTypeJournal,
	}
	m := MergeCluster([]*models.PaperRecord{weak, strong}, "arxiv:1706.03762", idSeq("m"), now)
	// strong has a far higher representative score; it should seed the base
	// fields (doi, abstract) directly rather than via fill-missing merge.
	assert.NotNil(t, m.DOI)
	assert.Equal(t, "10.1/x", *m.DOI)
	assert.NotNil(t, m.Abstract)
}

func TestMergeClusterCitationCountPriorityAcrossWholeCluster(t *testing.T) {
	now := time.Now()
	a := &models.PaperRecord{Title: "x", Source: models.SourceArxiv, CitationCount: intp(999)}
	b := &models.PaperRecord{Title: "x", Source: models.SourcePubMed, CitationCount: intp(5)}
	c := &models.PaperRecord{Title: "x", Source: models.SourceSemanticScholar, CitationCount: intp(42)}
	m := MergeCluster([]*models.PaperRecord{a, b, c}, "title_hash:x", idSeq("m"), now)
	assert.NotNil(t, m.CitationCount)
	assert.Equal(t, 42, *m.CitationCount)
	assert.Equal(t, models.SourceSemanticScholar, m.CitationSource)
}

func TestMergeClusterVenuePrefersJournalOverPreprint(t *testing.T) {
	now := time.Now()
	rep := &models.PaperRecord{
		Title: "x", Source: models.SourceArxiv, Venue: strp("arXiv preprint"), WorkType: models.WorkTypePreprint,
		DOI: strp("10.1/x"),
	}
	other := &models.PaperRecord{
		Title: "x", Source: models.SourcePubMed, Venue: strp("Nature"), WorkType: models.WorkTypeJournal,
	}
	m := MergeCluster([]*models.PaperRecord{rep, other}, "doi:10.1/x", idSeq("m"), now)
	assert.NotNil(t, m.Venue)
	assert.Equal(t, "Nature", *m.Venue)
}

func TestMergeClusterTopicsUnionCapped(t *testing.T) {
	now := time.Now()
	a := &models.PaperRecord{Title: "x", Source: "a", Topics: []string{"t1", "t2", "t3"}}
	b := &models.PaperRecord{Title: "x", Source: "b", Topics: []string{"t3", "t4", "t5", "t6", "t7", "t8", "t9", "t10", "t11"}}
	m := MergeCluster([]*models.PaperRecord{a, b}, "title_hash:x", idSeq("m"), now)
	assert.LessOrEqual(t, len(m.Topics), 10)
}

func TestMergeClusterFillsMissingFieldsWithProvenance(t *testing.T) {
	now := time.Now()
	rep := &models.PaperRecord{Title: "x", Source: models.SourceSemanticScholar}
	other := &models.PaperRecord{Title: "x", Source: models.SourceOpenAlex, Abstract: strp("filled in")}
	m := MergeCluster([]*models.PaperRecord{rep, other}, "title_hash:x", idSeq("m"), now)
	assert.NotNil(t, m.Abstract)
	assert.Equal(t, models.SourceOpenAlex, m.FieldProvenance["abstract"])
}

package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"scifind-backend/internal/models"
)

func TestNormalizeTitle(t *testing.T) {
	cases := map[string]string{
		"  The Attention Is All You Need  ": "attention is all you need",
		"An Overview of Deep Learning.":     "overview of deep learning",
		"<b>Bold</b> Title":                 "bold title",
		"":                                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeTitle(in), "input: %q", in)
	}
}

func TestNormalizeTitleIdempotent(t *testing.T) {
	in := "  The Quick, Brown Fox.  "
	once := NormalizeTitle(in)
	twice := NormalizeTitle(once)
	assert.Equal(t, once, twice)
}

func TestNormalizeDOI(t *testing.T) {
	cases := []struct {
		in    string
		want  string
		valid bool
	}{
		{"https://doi.org/10.1145/3295222.3295349", "10.1145/3295222.3295349", true},
		{"doi:10.1000/xyz", "10.1000/xyz", true},
		{"not-a-doi", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := NormalizeDOI(c.in)
		assert.Equal(t, c.valid, ok, "input: %q", c.in)
		if ok {
			assert.Equal(t, c.want, got)
		}
	}
}

func TestNormalizeDOIIdempotent(t *testing.T) {
	in := "https://doi.org/10.48550/arXiv.1706.03762"
	once, ok := NormalizeDOI(in)
	assert.True(t, ok)
	twice, ok := NormalizeDOI(once)
	assert.True(t, ok)
	assert.Equal(t, once, twice)
}

func TestNormalizeYear(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, ok := NormalizeYear(1799, now)
	assert.False(t, ok)
	_, ok = NormalizeYear(2027, now)
	assert.False(t, ok)
	y, ok := NormalizeYear(2017, now)
	assert.True(t, ok)
	assert.Equal(t, 2017, y)
}

func TestStripArxivVersion(t *testing.T) {
	assert.Equal(t, "1706.03762", StripArxivVersion("1706.03762v5"))
	assert.Equal(t, "1706.03762", StripArxivVersion("1706.03762"))
	assert.Equal(t, "cs/0501001", StripArxivVersion("cs/0501001"))
}

func TestExtractFirstAuthorSurname(t *testing.T) {
	surname, ok := ExtractFirstAuthorSurname([]models.RecordAuthor{{Name: "Vaswani, Ashish"}})
	assert.True(t, ok)
	assert.Equal(t, "vaswani", surname)

	surname, ok = ExtractFirstAuthorSurname([]models.RecordAuthor{{Name: "Ashish Vaswani"}})
	assert.True(t, ok)
	assert.Equal(t, "vaswani", surname)

	_, ok = ExtractFirstAuthorSurname(nil)
	assert.False(t, ok)
}

func TestDetectWorkType(t *testing.T) {
	venue := "Proceedings of NeurIPS"
	r := &models.PaperRecord{Title: "Attention Is All You Need", Venue: &venue}
	assert.Equal(t, models.WorkTypeConference, DetectWorkType(r))

	r2 := &models.PaperRecord{Title: "A Survey of Deep Learning"}
	assert.Equal(t, models.WorkTypeSurvey, DetectWorkType(r2))

	r3 := &models.PaperRecord{Title: "Something", Source: models.SourceArxiv}
	assert.Equal(t, models.WorkTypePreprint, DetectWorkType(r3))
}

func TestIsSuspiciousDOI(t *testing.T) {
	assert.True(t, IsSuspiciousDOI("10.65215/ne77pf66"))
	assert.False(t, IsSuspiciousDOI("10.1145/3295222.3295349"))
}

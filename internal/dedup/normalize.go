// Package dedup implements the canonical-work clustering and merge engine:
// normalization, similarity primitives, work-key clustering, fuzzy
// sub-clustering, per-cluster merge, citation-age sanity, and safe
// post-merge dedup.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"scifind-backend/internal/models"
)

var (
	htmlTagRe   = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	authorPunctRe = regexp.MustCompile(`[,;:'"]`)
)

var titlePrefixes = []string{"a ", "an ", "the ", "on ", "re: ", "re:", "fwd: ", "fwd:"}

// nfkdFold strips combining marks after NFKD decomposition, the Go
// equivalent of the original's
// `"".join(c for c in unicodedata.normalize("NFKD", s) if not combining(c))`.
func nfkdFold(s string) (string, error) {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	return out, err
}

// NormalizeTitle lowercases, strips HTML tags, collapses whitespace, strips
// a leading stopword/prefix, and strips a trailing period. NFKD-normalizes
// first to fold compatibility forms.
func NormalizeTitle(title string) string {
	if title == "" {
		return ""
	}
	folded, err := nfkdFold(title)
	if err != nil {
		folded = title
	}
	t := strings.ToLower(folded)
	t = htmlTagRe.ReplaceAllString(t, "")
	t = strings.TrimSpace(whitespaceRe.ReplaceAllString(t, " "))
	// Prefixes can cascade (e.g. "re: the study" strips "re: " then "the "):
	// passes repeat until no prefix matches, so the result is stable.
	for stripped := true; stripped; {
		stripped = false
		for _, p := range titlePrefixes {
			if strings.HasPrefix(t, p) {
				t = t[len(p):]
				stripped = true
			}
		}
	}
	t = strings.TrimRight(t, ".")
	return t
}

// NormalizeAuthorName NFKD-folds (dropping combining marks/accents),
// lowercases, collapses whitespace, and strips quoting/separator
// punctuation, preserving periods used for initials.
func NormalizeAuthorName(name string) string {
	if name == "" {
		return ""
	}
	folded, err := nfkdFold(name)
	if err != nil {
		folded = name
	}
	n := strings.ToLower(folded)
	n = strings.TrimSpace(whitespaceRe.ReplaceAllString(n, " "))
	n = authorPunctRe.ReplaceAllString(n, "")
	return n
}

var doiURLPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"doi.org/",
	"doi:",
}

// NormalizeDOI strips known URL/scheme prefixes and requires the remainder
// to start with "10."; returns "", false otherwise.
func NormalizeDOI(doi string) (string, bool) {
	d := strings.TrimSpace(doi)
	if d == "" {
		return "", false
	}
	lower := strings.ToLower(d)
	for _, p := range doiURLPrefixes {
		if strings.HasPrefix(lower, p) {
			d = d[len(p):]
			break
		}
	}
	if !strings.HasPrefix(d, "10.") {
		return "", false
	}
	return d, true
}

// NormalizeYear keeps y iff 1800 <= y <= current year.
func NormalizeYear(y int, now time.Time) (int, bool) {
	if y < 1800 || y > now.Year() {
		return 0, false
	}
	return y, true
}

var venueSuffixes = []string{" (Online)", " (Print)", " - Online", " - Print"}

// NormalizeVenue trims, strips known online/print suffixes, and collapses
// whitespace. Returns "" when the result is empty.
func NormalizeVenue(venue string) string {
	v := strings.TrimSpace(venue)
	if v == "" {
		return ""
	}
	for _, suf := range venueSuffixes {
		if strings.HasSuffix(v, suf) {
			v = v[:len(v)-len(suf)]
		}
	}
	v = strings.TrimSpace(whitespaceRe.ReplaceAllString(v, " "))
	return v
}

// ExtractFirstAuthorSurname extracts the normalized surname of the first
// author: the text before a comma ("Last, First"), or the last word
// otherwise ("First Last" / "First M. Last").
func ExtractFirstAuthorSurname(authors []models.RecordAuthor) (string, bool) {
	if len(authors) == 0 {
		return "", false
	}
	name := authors[0].Name
	if name == "" {
		return "", false
	}
	n := NormalizeAuthorName(name)
	if n == "" {
		return "", false
	}
	// The comma is looked for in the raw name: NormalizeAuthorName strips it.
	if idx := strings.Index(name, ","); idx >= 0 {
		return strings.TrimSpace(NormalizeAuthorName(name[:idx])), true
	}
	parts := strings.Fields(n)
	if len(parts) == 0 {
		return "", false
	}
	return parts[len(parts)-1], true
}

var nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9]`)

// CitationKey computes the spec 6 citation key:
// <first_author_surname_lower><year|"XXXX"><title_first_word_lower>, with
// every non-alphanumeric character stripped.
func CitationKey(m *models.MergedPaper) string {
	surname := ""
	if len(m.Authors) > 0 {
		if s, ok := ExtractFirstAuthorSurname(m.Authors); ok {
			surname = s
		}
	}

	year := "XXXX"
	if m.Year != nil {
		year = strconv.Itoa(*m.Year)
	}

	firstWord := ""
	if fields := strings.Fields(NormalizeTitle(m.Title)); len(fields) > 0 {
		firstWord = fields[0]
	}

	key := strings.ToLower(surname + year + firstWord)
	return nonAlphanumericRe.ReplaceAllString(key, "")
}

var surveyKeywords = []string{
	"survey", "review", "overview", "tutorial",
	"state of the art", "state-of-the-art",
	"systematic review", "meta-analysis", "literature review",
}

// DetectSurvey reports whether a record is likely a survey/review, by the
// IsSurvey flag or a title keyword match.
func DetectSurvey(r *models.PaperRecord) bool {
	if r.IsSurvey {
		return true
	}
	title := strings.ToLower(r.Title)
	for _, kw := range surveyKeywords {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

var bookKeywords = []string{
	"handbook", "press", "chapter", "ebook", "e-book",
	"isbn", "springer book", "edition", "textbook",
	"cambridge university press", "oxford university press",
	"wiley", "elsevier book", "academic press",
}

var conferenceKeywords = []string{
	"proceedings", "conference", "symposium", "workshop",
	"icml", "neurips", "nips", "iclr", "cvpr", "iccv",
	"eccv", "acl", "emnlp", "naacl", "aaai", "ijcai",
	"sigkdd", "www", "chi", "sigir", "wsdm",
}

var journalKeywords = []string{
	"journal", "transactions", "letters", "magazine",
	"nature", "science", "cell", "lancet", "nejm",
	"jama", "plos", "bmc", "frontiers",
}

// DetectWorkType classifies a record's work type using an ordered battery of
// keyword tests over title/venue, per spec 4.2.
func DetectWorkType(r *models.PaperRecord) models.WorkType {
	title := strings.ToLower(r.Title)
	venue := ""
	if r.Venue != nil {
		venue = strings.ToLower(*r.Venue)
	}

	for _, kw := range surveyKeywords {
		if strings.Contains(title, kw) {
			return models.WorkTypeSurvey
		}
	}
	if r.IsSurvey {
		return models.WorkTypeSurvey
	}

	for _, kw := range bookKeywords {
		if strings.Contains(title, kw) || strings.Contains(venue, kw) {
			if strings.Contains(title, "chapter") || strings.Contains(venue, "chapter") {
				return models.WorkTypeChapter
			}
			return models.WorkTypeBook
		}
	}

	if r.Source == models.SourceArxiv {
		return models.WorkTypePreprint
	}
	if strings.Contains(venue, "arxiv") {
		return models.WorkTypePreprint
	}
	if strings.Contains(venue, "preprint") || strings.Contains(title, "preprint") {
		return models.WorkTypePreprint
	}

	for _, kw := range conferenceKeywords {
		if strings.Contains(venue, kw) {
			return models.WorkTypeConference
		}
	}

	for _, kw := range journalKeywords {
		if strings.Contains(venue, kw) {
			return models.WorkTypeJournal
		}
	}

	if venue != "" {
		return models.WorkTypeJournal
	}
	return models.WorkTypeUnknown
}

// suspiciousDOIPrefixes is the configured list of registrant prefixes that
// are known data-quality bad actors and must not anchor a work_key.
var suspiciousDOIPrefixes = []string{"10.65215/"}

// IsSuspiciousDOI reports whether a normalized, lowercased DOI starts with a
// configured suspicious registrant prefix.
func IsSuspiciousDOI(doiLower string) bool {
	for _, p := range suspiciousDOIPrefixes {
		if strings.HasPrefix(doiLower, p) {
			return true
		}
	}
	return false
}

// StripArxivVersion removes a trailing "vN" version suffix, matching the
// original's `rsplit("v", 1)` behavior: only the final "v" in the string is
// treated as a version separator.
func StripArxivVersion(arxivID string) string {
	idx := strings.LastIndex(arxivID, "v")
	if idx < 0 {
		return arxivID
	}
	suffix := arxivID[idx+1:]
	if suffix == "" {
		return arxivID
	}
	if _, err := strconv.Atoi(suffix); err != nil {
		return arxivID
	}
	return arxivID[:idx]
}

// TitleHash computes the sha256-based fallback clustering key content,
// truncated to 16 hex characters.
func TitleHash(normalizedTitle, firstAuthorSurname, yearBucket string) string {
	content := normalizedTitle + "|" + firstAuthorSurname + "|" + yearBucket
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:16]
}

// NormalizeRecord applies every field-level normalization to r in place,
// setting WorkType/IsSurvey/DataQualityFlags, and returns r for chaining.
// Title is kept verbatim for display; only the clustering/comparison paths
// use NormalizeTitle separately.
func NormalizeRecord(r *models.PaperRecord, now time.Time) *models.PaperRecord {
	if r.DOI != nil {
		if d, ok := NormalizeDOI(*r.DOI); ok {
			r.DOI = &d
		} else {
			r.DOI = nil
		}
	}
	if r.ArxivID != nil {
		stripped := StripArxivVersion(*r.ArxivID)
		r.ArxivID = &stripped
	}
	if r.Year != nil {
		if y, ok := NormalizeYear(*r.Year, now); ok {
			r.Year = &y
		} else {
			r.AddFlag(models.FlagBadYear)
			r.Year = nil
		}
	}
	if r.Venue != nil {
		v := NormalizeVenue(*r.Venue)
		if v == "" {
			r.Venue = nil
		} else {
			r.Venue = &v
		}
	}
	r.WorkType = DetectWorkType(r)
	r.IsSurvey = r.WorkType == models.WorkTypeSurvey || DetectSurvey(r)
	return r
}

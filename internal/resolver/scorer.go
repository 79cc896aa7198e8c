package resolver

import (
	"net/url"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Score magnitudes. Only their relative order matters:
// disqualification > path confidence > native resolution > explicit size >
// identifier filename.
const (
	pathConfidenceBonus     = 1000
	nativeResolutionBonus   = 500
	explicitSizeCap         = 500
	identifierFilenameBonus = 200
	thumbnailPenalty        = -100
	disqualifiedScore       = -1000
)

const defaultImageAssetSegment = "/images/I/"

var (
	// sizeTokenRE matches an embedded "._SL500_." style token before the extension.
	sizeTokenRE  = regexp.MustCompile(`\._([A-Za-z0-9,_-]+)_\.`)
	sizeValueRE  = regexp.MustCompile(`(?:^|[_,])(?:SL|SX|SY|SS|UL|UX|UY|SR|US)(\d+)`)
	defaultDecor = []string{"sprite", "nav-", "toolbar", "logo", "icon"}
	defaultThumb = []string{"_SS40_", "_US40_"}
)

// scoreRule returns a signed delta for one image.
type scoreRule func(img imageRef) int

type imageRef struct {
	raw  string
	path string
}

func newImageRef(raw string) imageRef {
	ref := imageRef{raw: raw, path: raw}
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		ref.path = u.Path
	}
	return ref
}

// Scorer ranks image URLs with additive rules plus one overriding
// disqualification rule. It is pure and safe for concurrent use.
type Scorer struct {
	assetSegment string
	decorative   []string
	thumbnails   []string
	rules        []scoreRule
}

// NewScorer returns a Scorer with the marketplace defaults.
func NewScorer() *Scorer {
	s := &Scorer{
		assetSegment: defaultImageAssetSegment,
		decorative:   defaultDecor,
		thumbnails:   defaultThumb,
	}
	s.rules = []scoreRule{
		s.pathConfidence,
		s.resolution,
		s.identifierFilename,
		s.thumbnailSized,
	}
	return s
}

// Disqualified reports whether the image path looks like site chrome.
func (s *Scorer) Disqualified(imageURL string) bool {
	return s.decorativePath(newImageRef(imageURL))
}

// Score computes the score for one image URL.
func (s *Scorer) Score(imageURL string) int {
	ref := newImageRef(imageURL)
	if s.decorativePath(ref) {
		return disqualifiedScore
	}
	total := 0
	for _, rule := range s.rules {
		total += rule(ref)
	}
	return total
}

// Rank scores every image and sorts them by descending score. Ties keep the
// input order.
func (s *Scorer) Rank(images []string) []ScoredImage {
	out := make([]ScoredImage, 0, len(images))
	for _, img := range images {
		out = append(out, ScoredImage{URL: img, Score: s.Score(img)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Select returns the highest scoring image with a positive score.
func (s *Scorer) Select(images []string) (string, bool) {
	ranked := s.Rank(images)
	if len(ranked) == 0 || ranked[0].Score <= 0 {
		return "", false
	}
	return ranked[0].URL, true
}

// Fallback returns the first image that is not disqualified.
func (s *Scorer) Fallback(images []string) (string, bool) {
	for _, img := range images {
		if strings.TrimSpace(img) == "" || s.Disqualified(img) {
			continue
		}
		return img, true
	}
	return "", false
}

// decorativePath matches decorative substrings anywhere in the directory
// part of the path. The filename only matches on whole words, so image IDs
// such as "81LogoQk2bL" stay eligible.
func (s *Scorer) decorativePath(ref imageRef) bool {
	p := strings.ToLower(ref.path)
	dir, file := path.Split(p)
	for _, d := range s.decorative {
		if strings.Contains(dir, d) {
			return true
		}
	}
	words := strings.FieldsFunc(file, func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
	for _, w := range words {
		for _, d := range s.decorative {
			d = strings.Trim(d, "-")
			if w == d || w == d+"s" {
				return true
			}
		}
	}
	return false
}

func (s *Scorer) pathConfidence(ref imageRef) int {
	if strings.Contains(ref.path, s.assetSegment) {
		return pathConfidenceBonus
	}
	return 0
}

func (s *Scorer) resolution(ref imageRef) int {
	size, ok := ExplicitSize(ref.raw)
	if !ok {
		return nativeResolutionBonus
	}
	return min(size, explicitSizeCap)
}

func (s *Scorer) identifierFilename(ref imageRef) int {
	base := path.Base(ref.path)
	stem, _, _ := strings.Cut(base, ".")
	if identifierRE.MatchString(strings.ToUpper(stem)) {
		return identifierFilenameBonus
	}
	return 0
}

func (s *Scorer) thumbnailSized(ref imageRef) int {
	for _, t := range s.thumbnails {
		if strings.Contains(ref.raw, t) {
			return thumbnailPenalty
		}
	}
	return 0
}

// ExplicitSize reports the size carried by an embedded size token. A token
// without a number counts as size 0.
func ExplicitSize(imageURL string) (int, bool) {
	m := sizeTokenRE.FindStringSubmatch(imageURL)
	if len(m) < 2 {
		return 0, false
	}
	v := sizeValueRE.FindStringSubmatch(m[1])
	if len(v) < 2 {
		return 0, true
	}
	n, err := strconv.Atoi(v[1])
	if err != nil {
		return 0, true
	}
	return n, true
}

// StripSizeToken removes the embedded size token so the marketplace serves the
// native resolution.
func StripSizeToken(imageURL string) string {
	return sizeTokenRE.ReplaceAllString(imageURL, ".")
}

// Package classifier decides whether a chat message carries a disallowed
// link. It is a pure library:
//
//   - No logging and no I/O (callers decide what to record)
//   - Functional options for the allow-list and matching mode
//   - Immutable after construction, safe for concurrent use
//
// Checks run in order and the first match wins: platform-internal links and
// @handles are always violations; otherwise every http(s) URL must resolve to
// an allow-listed host.
package classifier

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/purell"
	"golang.org/x/text/cases"

	"github.com/tbourn/go-link-guard/internal/domain"
)

// Reason names the check that produced a violation.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonInternalLink     Reason = "internal_link"
	ReasonDisallowedDomain Reason = "disallowed_domain"
)

// Result is the verdict for one message together with the substring that
// triggered it.
type Result struct {
	Verdict domain.Verdict
	Reason  Reason
	Match   string
}

// Violation reports whether the result requires enforcement.
func (r Result) Violation() bool { return r.Verdict == domain.Violation }

// Whitespace here includes Unicode separators (NBSP, thin spaces) so a link
// glued to Arabic text by a non-breaking space ends where a reader sees it end.
var (
	internalLinkPattern = regexp.MustCompile(`t\.me/[^\s\p{Z}]+|telegram\.me/[^\s\p{Z}]+|joinchat/[^\s\p{Z}]+|@[\p{L}\p{N}_]+`)
	externalLinkPattern = regexp.MustCompile(`https?://[^\s\p{Z}]+`)
)

// urlFlags lowercase the host, drop default ports and the "www." prefix.
const urlFlags = purell.FlagsSafe | purell.FlagRemoveWWW

// ----------------------------------------------------------------------------
// Options

type Option func(*Classifier)

// WithAllowedDomains appends domain suffixes to the allow-list. Entries are
// lowercased and a leading "www." is dropped; blanks are ignored.
func WithAllowedDomains(domains ...string) Option {
	return func(c *Classifier) {
		for _, d := range domains {
			d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
			if d != "" {
				c.allowed = append(c.allowed, d)
			}
		}
	}
}

// WithLooseSuffixMatch accepts any host that merely ends with an allow-listed
// string, so "evilreuters.com" passes for "reuters.com". Only useful to
// reproduce the historical behaviour of the bot.
func WithLooseSuffixMatch() Option {
	return func(c *Classifier) { c.loose = true }
}

// ----------------------------------------------------------------------------
// Classifier

// Classifier holds the static link policy.
type Classifier struct {
	allowed []string
	loose   bool
}

// New builds a Classifier. Without WithAllowedDomains every external link is
// a violation.
func New(opts ...Option) *Classifier {
	c := &Classifier{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AllowedDomains returns a copy of the allow-list in configured order.
func (c *Classifier) AllowedDomains() []string {
	return append([]string(nil), c.allowed...)
}

// Classify returns the verdict for raw message text (body or caption).
// Text without links is always clean, whatever else it contains.
func (c *Classifier) Classify(text string) Result {
	if text == "" {
		return Result{Verdict: domain.Clean}
	}
	// Caser values are stateful; build one per call.
	folded := cases.Fold().String(text)

	if m := internalLinkPattern.FindString(folded); m != "" {
		return Result{Verdict: domain.Violation, Reason: ReasonInternalLink, Match: m}
	}
	for _, link := range externalLinkPattern.FindAllString(folded, -1) {
		if !c.URLAllowed(link) {
			return Result{Verdict: domain.Violation, Reason: ReasonDisallowedDomain, Match: link}
		}
	}
	return Result{Verdict: domain.Clean}
}

// URLAllowed reports whether rawURL points at an allow-listed host. URLs that
// cannot be parsed, or have no host, are not allowed.
func (c *Classifier) URLAllowed(rawURL string) bool {
	host, ok := Host(rawURL)
	if !ok {
		return false
	}
	return c.HostAllowed(host)
}

// HostAllowed checks an already normalized host against the allow-list.
func (c *Classifier) HostAllowed(host string) bool {
	for _, d := range c.allowed {
		if c.loose {
			if strings.HasSuffix(host, d) {
				return true
			}
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Host extracts the normalized host of rawURL: lowercased, without port,
// userinfo, trailing dot or a leading "www.". Only the host is judged: a bad
// escape in the path, query or fragment does not hide an allowed host.
func Host(rawURL string) (string, bool) {
	u, err := parseNormalized(rawURL)
	if err != nil {
		if u, err = url.Parse(authority(rawURL)); err != nil {
			return "", false
		}
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", false
	}
	return host, true
}

func parseNormalized(rawURL string) (*url.URL, error) {
	normalized, err := purell.NormalizeURLString(rawURL, urlFlags)
	if err != nil {
		return nil, err
	}
	return url.Parse(normalized)
}

// authority cuts rawURL down to "scheme://authority", dropping everything
// from the first '/', '?' or '#' after the scheme separator.
func authority(rawURL string) string {
	i := strings.Index(rawURL, "://")
	if i < 0 {
		return rawURL
	}
	rest := rawURL[i+3:]
	if j := strings.IndexAny(rest, "/?#"); j >= 0 {
		rest = rest[:j]
	}
	return rawURL[:i+3] + rest
}

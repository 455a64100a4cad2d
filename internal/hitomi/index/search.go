package index

import (
	"context"
	"strings"

	"github.com/hitomidl/hitomidl/internal/logging"
)

// Term is one parsed query token: Negative marks a leading '-'.
type Term struct {
	Text     string
	Negative bool
}

// Tokenize parses a raw query: strip a leading
// '?', lower-case, split on whitespace, replace '_' with space within each
// token, and treat a leading '-' as a negation marker.
func Tokenize(query string) []Term {
	query = strings.TrimPrefix(query, "?")
	query = strings.ToLower(query)

	fields := strings.Fields(query)
	terms := make([]Term, 0, len(fields))
	for _, f := range fields {
		negative := strings.HasPrefix(f, "-")
		if negative {
			f = f[1:]
		}
		f = strings.ReplaceAll(f, "_", " ")
		if f == "" {
			continue
		}
		terms = append(terms, Term{Text: f, Negative: negative})
	}
	return terms
}

// resolveTerm resolves one positive/negative term to its id set:
// namespace-qualified terms route to a nozomi file, bare terms b-search
// the "galleries" field.
func (c *Client) resolveTerm(ctx context.Context, term string) (*IDSet, error) {
	if idx := strings.Index(term, ":"); idx >= 0 {
		ns := term[:idx]
		tag := term[idx+1:]

		switch ns {
		case "female", "male":
			return c.Nozomi(ctx, "tag", ns+":"+tag, "all")
		case "language":
			return c.Nozomi(ctx, "", "index", tag)
		default:
			return c.Nozomi(ctx, ns, tag, "all")
		}
	}

	return c.SearchField(ctx, term)
}

// Search runs the full query composition: tokenize,
// resolve a base set, resolve every positive/negative term, and combine
// them via insertion-ordered intersect/subtract.
func (c *Client) Search(ctx context.Context, query string, sortByPopularity bool) (*IDSet, error) {
	terms := Tokenize(query)

	var positives, negatives []string
	for _, t := range terms {
		if t.Negative {
			negatives = append(negatives, t.Text)
		} else {
			positives = append(positives, t.Text)
		}
	}

	base, err := c.baseSet(ctx, sortByPopularity, len(positives) > 0)
	if err != nil {
		return nil, err
	}

	result := base
	for _, p := range positives {
		set := c.resolveTermOrEmpty(ctx, p)
		if result.Len() == 0 {
			result = set
		} else {
			result = result.Intersect(set)
		}
	}

	for _, n := range negatives {
		set := c.resolveTermOrEmpty(ctx, n)
		result = result.Subtract(set)
	}

	return result, nil
}

// resolveTermOrEmpty resolves term like resolveTerm, but degrades a failed
// lookup to an empty set rather than aborting the whole query: a single
// term's transient b-search/nozomi failure shouldn't fail every other term
// already resolved. Only the base-set fetch is allowed to fail the query.
func (c *Client) resolveTermOrEmpty(ctx context.Context, term string) *IDSet {
	set, err := c.resolveTerm(ctx, term)
	if err != nil {
		logging.Warnf("index", "resolving term %q failed, treating as empty: %s", term, err)
		return NewIDSet()
	}
	return set
}

// baseSet picks the starting id set: popular when sorting by popularity,
// the full index when the query has no positive terms, empty otherwise.
func (c *Client) baseSet(ctx context.Context, sortByPopularity bool, hasPositives bool) (*IDSet, error) {
	if sortByPopularity {
		return c.Nozomi(ctx, "", "popular", "all")
	}
	if !hasPositives {
		return c.Nozomi(ctx, "", "index", "all")
	}
	return NewIDSet(), nil
}

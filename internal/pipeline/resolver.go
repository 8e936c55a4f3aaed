package pipeline

import (
	"context"
	"strings"

	"worksync/internal"
	"worksync/internal/matchstore"
	"worksync/internal/util"
)

// Resolver finds the contact for a work-order row, creating one through
// the API when nothing matches. The contact list is scanned in fetch
// order and the FIRST qualifying contact wins, for exact and fuzzy
// matching alike; with duplicate-named contacts this decides which one
// gets the job, so the scan order must not be replaced by a keyed lookup.
type Resolver struct {
	api       ContactAPI
	contacts  []internal.Contact
	matches   matchstore.Store
	threshold int
}

// ContactAPI is the slice of the simPRO client contact resolution needs.
type ContactAPI interface {
	CreateContact(ctx context.Context, first, last, mobile string) (internal.Contact, error)
}

func NewResolver(api ContactAPI, contacts []internal.Contact, matches matchstore.Store, threshold int) *Resolver {
	return &Resolver{api: api, contacts: contacts, matches: matches, threshold: threshold}
}

// MatchExact returns the first contact whose names equal the inputs
// case-insensitively.
func (r *Resolver) MatchExact(first, last string) (internal.Contact, bool) {
	for _, c := range r.contacts {
		if strings.EqualFold(c.GivenName, first) && strings.EqualFold(c.FamilyName, last) {
			return c, true
		}
	}
	return internal.Contact{}, false
}

// MatchFuzzy returns the first contact whose first-name and last-name
// similarities both exceed the threshold. First match, not best match.
func (r *Resolver) MatchFuzzy(first, last string) (internal.Contact, bool) {
	lowerFirst := util.NormalizeName(first)
	lowerLast := util.NormalizeName(last)

	for _, c := range r.contacts {
		if util.Ratio(util.NormalizeName(c.GivenName), lowerFirst) > r.threshold &&
			util.Ratio(util.NormalizeName(c.FamilyName), lowerLast) > r.threshold {
			return c, true
		}
	}
	return internal.Contact{}, false
}

// Resolve runs exact match, then the confirmed-match cache, then fuzzy
// match, then contact creation. Newly created contacts join the local
// list so later rows in the run can match them; fuzzy hits are recorded
// in the cache for the next run.
func (r *Resolver) Resolve(ctx context.Context, first, last, mobile string) (internal.Contact, error) {
	if c, ok := r.MatchExact(first, last); ok {
		return c, nil
	}

	key := util.MatchKey(first, last)
	if id, ok := r.matches.Lookup(key); ok {
		if c, found := r.byID(id); found {
			return c, nil
		}
	}

	if c, ok := r.MatchFuzzy(first, last); ok {
		r.matches.Record(key, c.ID)
		return c, nil
	}

	created, err := r.api.CreateContact(ctx, first, last, mobile)
	if err != nil {
		return internal.Contact{}, err
	}
	r.contacts = append(r.contacts, created)
	return created, nil
}

func (r *Resolver) byID(id int) (internal.Contact, bool) {
	for _, c := range r.contacts {
		if c.ID == id {
			return c, true
		}
	}
	return internal.Contact{}, false
}

// Contacts exposes the current list, including contacts created during
// the run.
func (r *Resolver) Contacts() []internal.Contact {
	return r.contacts
}

package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"worksync/internal"
	"worksync/internal/matchstore"
)

type fakeContactAPI struct {
	nextID  int
	created []internal.Contact
	err     error
}

func (f *fakeContactAPI) CreateContact(_ context.Context, first, last, mobile string) (internal.Contact, error) {
	if f.err != nil {
		return internal.Contact{}, f.err
	}
	f.nextID++
	c := internal.Contact{ID: f.nextID + 1000, GivenName: first, FamilyName: last, CellPhone: mobile}
	f.created = append(f.created, c)
	return c, nil
}

func testStore(t *testing.T) *matchstore.FileStore {
	t.Helper()
	store, err := matchstore.Load(filepath.Join(t.TempDir(), "matches.json"))
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestMatchExactIgnoresCase(t *testing.T) {
	r := NewResolver(&fakeContactAPI{}, []internal.Contact{
		{ID: 1, GivenName: "John", FamilyName: "Smith"},
	}, testStore(t), 80)

	c, ok := r.MatchExact("JOHN", "smith")
	if !ok || c.ID != 1 {
		t.Fatalf("ok=%v id=%d", ok, c.ID)
	}
}

func TestMatchExactPicksFirstOfDuplicates(t *testing.T) {
	r := NewResolver(&fakeContactAPI{}, []internal.Contact{
		{ID: 7, GivenName: "John", FamilyName: "Smith"},
		{ID: 9, GivenName: "John", FamilyName: "Smith"},
	}, testStore(t), 80)

	c, ok := r.MatchExact("John", "Smith")
	if !ok || c.ID != 7 {
		t.Fatalf("ok=%v id=%d, want the contact listed first", ok, c.ID)
	}
}

func TestMatchFuzzyRequiresBothNames(t *testing.T) {
	r := NewResolver(&fakeContactAPI{}, []internal.Contact{
		{ID: 3, GivenName: "Jonathan", FamilyName: "Smith"},
		{ID: 4, GivenName: "Johnn", FamilyName: "Smith"},
	}, testStore(t), 80)

	// "John" vs "Jonathan" scores 50 and "John" vs "Johnn" scores
	// exactly 80; the strict comparison rejects both.
	if _, ok := r.MatchFuzzy("John", "Smith"); ok {
		t.Fatal("expected no fuzzy match at threshold 80")
	}

	r2 := NewResolver(&fakeContactAPI{}, []internal.Contact{
		{ID: 5, GivenName: "Johnn", FamilyName: "Smyth"},
	}, testStore(t), 70)
	c, ok := r2.MatchFuzzy("John", "Smith")
	if !ok || c.ID != 5 {
		t.Fatalf("ok=%v id=%d", ok, c.ID)
	}
}

func TestResolveRecordsFuzzyMatch(t *testing.T) {
	store := testStore(t)
	r := NewResolver(&fakeContactAPI{}, []internal.Contact{
		{ID: 12, GivenName: "Jonathan", FamilyName: "Smithers"},
	}, store, 70)

	c, err := r.Resolve(context.Background(), "Jonathon", "Smithers", "07000")
	if err != nil {
		t.Fatal(err)
	}
	if c.ID != 12 {
		t.Fatalf("id=%d", c.ID)
	}
	if id, ok := store.Lookup("jonathon|smithers"); !ok || id != 12 {
		t.Fatalf("cache lookup ok=%v id=%d", ok, id)
	}
}

func TestResolvePrefersConfirmedMatchOverFuzzy(t *testing.T) {
	store := testStore(t)
	store.Record("jon|smith", 2)
	r := NewResolver(&fakeContactAPI{}, []internal.Contact{
		{ID: 1, GivenName: "Jone", FamilyName: "Smith"},
		{ID: 2, GivenName: "Jonathan", FamilyName: "Smith"},
	}, store, 60)

	c, err := r.Resolve(context.Background(), "Jon", "Smith", "")
	if err != nil {
		t.Fatal(err)
	}
	if c.ID != 2 {
		t.Fatalf("id=%d, want the cached contact", c.ID)
	}
}

func TestResolveCreatesAndRemembersContact(t *testing.T) {
	api := &fakeContactAPI{}
	r := NewResolver(api, nil, testStore(t), 80)

	created, err := r.Resolve(context.Background(), "Ada", "Lovelace", "07123456789")
	if err != nil {
		t.Fatal(err)
	}
	if len(api.created) != 1 || api.created[0].CellPhone != "07123456789" {
		t.Fatalf("created=%+v", api.created)
	}

	// A later row with the same name matches the contact created above
	// instead of creating a second one.
	again, err := r.Resolve(context.Background(), "ada", "LOVELACE", "07123456789")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != created.ID {
		t.Fatalf("again.ID=%d created.ID=%d", again.ID, created.ID)
	}
	if len(api.created) != 1 {
		t.Fatalf("created %d contacts, want 1", len(api.created))
	}
}

func TestResolvePropagatesCreateError(t *testing.T) {
	api := &fakeContactAPI{err: errors.New("boom")}
	r := NewResolver(api, nil, testStore(t), 80)

	if _, err := r.Resolve(context.Background(), "Ada", "Lovelace", ""); err == nil {
		t.Fatal("expected error")
	}
}

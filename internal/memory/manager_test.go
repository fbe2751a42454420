package memory

import (
	"context"
	"strings"
	"testing"

	memmodel "veritas/internal/domain/models/memory"
	"veritas/internal/memory/vectorstore"
)

// fakeStore is a minimal in-memory vectorstore.Store stand-in for
// exercising RoleHistory's filtering without a real database.
type fakeStore struct {
	records []memmodel.Record
}

func (f *fakeStore) Add(ctx context.Context, text string, meta memmodel.Metadata, dedup bool) (string, error) {
	id := text
	f.records = append(f.records, memmodel.Record{ID: id, Text: text, Metadata: meta})
	return id, nil
}

func (f *fakeStore) Search(ctx context.Context, queryText string, k int, filter map[string]string) ([]vectorstore.SearchHit, error) {
	var hits []vectorstore.SearchHit
	for _, r := range f.records {
		if !r.Metadata.Matches(filter) {
			continue
		}
		hits = append(hits, vectorstore.SearchHit{ID: r.ID, Text: r.Text, Metadata: r.Metadata})
		if len(hits) >= k {
			break
		}
	}
	return hits, nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeStore) DeleteWhere(ctx context.Context, filter map[string]string) error { return nil }

func TestRoleHistory_FiltersByRoleAndDebate(t *testing.T) {
	store := &fakeStore{}
	store.Add(context.Background(), "proponent said X", memmodel.Metadata{Role: "proponent", DebateID: "d1"}, false)
	store.Add(context.Background(), "proponent said Y", memmodel.Metadata{Role: "proponent", DebateID: "d2"}, false)
	store.Add(context.Background(), "opponent said Z", memmodel.Metadata{Role: "opponent", DebateID: "d1"}, false)

	m := New(nil, store, nil)

	all, err := m.RoleHistory(context.Background(), "proponent", "")
	if err != nil {
		t.Fatalf("RoleHistory: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("want 2 proponent statements, got %d: %v", len(all), all)
	}

	scoped, err := m.RoleHistory(context.Background(), "proponent", "d1")
	if err != nil {
		t.Fatalf("RoleHistory: %v", err)
	}
	if len(scoped) != 1 || scoped[0] != "proponent said X" {
		t.Fatalf("want exactly the d1 proponent statement, got %v", scoped)
	}
}

func TestRoleHistory_NilStoreReturnsEmpty(t *testing.T) {
	m := New(nil, nil, nil)
	hits, err := m.RoleHistory(context.Background(), "proponent", "")
	if err != nil {
		t.Fatalf("RoleHistory: %v", err)
	}
	if hits != nil {
		t.Fatalf("want nil hits for a nil store, got %v", hits)
	}
}

func TestBuildContext_OmitsEmptySections(t *testing.T) {
	m := New(nil, nil, nil)
	payload, err := m.BuildContext(context.Background(), Request{
		SystemPrompt: "you are a fact-checker",
		CurrentTask:  "is the sky blue?",
		Flags:        Flags{FormatStyle: "conversational"},
	})
	if err != nil {
		t.Fatalf("BuildContext: %v", err)
	}
	if payload.Text == "" {
		t.Fatal("expected non-empty context text")
	}
	if got := payload.Text; !strings.Contains(got, "Question:") {
		t.Errorf("expected the user-question section, got %q", got)
	}
	if strings.Contains(payload.Text, "Recent conversation:") {
		t.Error("expected the recent-conversation section to be omitted when ShortTerm is empty")
	}
}

// Package memory implements the Memory Manager (C8): assembles the
// composite prompt context for a turn from system prompt, recent
// conversation, retrieved evidence, and live web content, producing a
// structured (ContextPayload, EvidenceBundle) pair rather than a loose
// string concatenation — the teacher's streaming/response_generator.go
// buildMessages helper assembles a similar ordered multi-section
// message list, generalized here to include a retrieval and live-web
// stage the teacher never had.
package memory

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"veritas/internal/domain/models/debate"
	"veritas/internal/domain/models/memory"
	"veritas/internal/memory/retriever"
	"veritas/internal/memory/vectorstore"
)

// ShortTermTurn is one prior turn surfaced in the RECENT CONVERSATION section.
type ShortTermTurn struct {
	Role    string
	Content string
}

// Flags control which sections the Memory Manager assembles (spec §4.8).
type Flags struct {
	UseLongTerm  bool
	UseShortTerm bool
	EnableWebRAG bool
	FormatStyle  string // "conversational" | "debate"
}

// Request is the Memory Manager's input for one turn.
type Request struct {
	SystemPrompt string
	CurrentTask  string
	Query        string
	ShortTerm    []ShortTermTurn
	Flags        Flags
	DebateID     string
	// SeedBundle, if non-empty, is the evidence already gathered for
	// this turn/debate (e.g. by the Evidence Gatherer); new items this
	// call appends continue its citation numbering rather than
	// restarting at 1, keeping indices unique and stable per invariant I1.
	SeedBundle debate.EvidenceBundle
}

// ContextPayload is the assembled context handed to the Gateway, paired
// with the EvidenceBundle the citation indices inside it resolve
// against (invariant I1).
type ContextPayload struct {
	Text     string
	Bundle   debate.EvidenceBundle
}

// URLPipeline fetches, caches, and summarizes one URL (the
// Cache→Fetcher→Summarizer chain). Shape-compatible with
// evidence.URLPipeline; kept as its own local interface so this package
// doesn't import the evidence package.
type URLPipeline interface {
	FetchAndSummarize(ctx context.Context, rawURL string) (summary string, method debate.Method, err error)
}

const maxShortTermTurns = 6

// Manager implements the Memory Manager (C8).
type Manager struct {
	retriever *retriever.Retriever
	store     vectorstore.Store
	urlFetch  URLPipeline
}

// New builds a Manager.
func New(r *retriever.Retriever, store vectorstore.Store, urlFetch URLPipeline) *Manager {
	return &Manager{retriever: r, store: store, urlFetch: urlFetch}
}

// BuildContext assembles the context payload per spec §4.8's stable
// five-part order, omitting empty sections rather than emitting empty
// headers.
func (m *Manager) BuildContext(ctx context.Context, req Request) (ContextPayload, error) {
	var sb strings.Builder
	bundle := req.SeedBundle
	headers := headerStyle(req.Flags.FormatStyle)

	// 1. SYSTEM
	if req.SystemPrompt != "" {
		sb.WriteString(req.SystemPrompt)
		sb.WriteString("\n\n")
	}

	// 2. RECENT CONVERSATION
	if req.Flags.UseShortTerm && len(req.ShortTerm) > 0 {
		turns := req.ShortTerm
		if len(turns) > maxShortTermTurns {
			turns = turns[len(turns)-maxShortTermTurns:]
		}
		sb.WriteString(headers.recentConversation)
		sb.WriteString("\n")
		for _, t := range turns {
			fmt.Fprintf(&sb, "%s: %s\n", t.Role, t.Content)
		}
		sb.WriteString("\n")
	}

	// 3. RETRIEVED EVIDENCE — seed items (e.g. from the Evidence
	// Gatherer) are rendered alongside whatever the retriever adds, all
	// under one header, so the section reflects the debate's full
	// evidence bundle rather than only this call's new items.
	var newHits []vectorstore.SearchHit
	if req.Flags.UseLongTerm && m.retriever != nil && req.Query != "" {
		result, err := m.retriever.Search(ctx, req.Query, map[string]string{"debate_id": req.DebateID})
		if err == nil {
			newHits = result.Hits
		}
	}
	if len(bundle.Items) > 0 || len(newHits) > 0 {
		sb.WriteString(headers.retrievedEvidence)
		sb.WriteString("\n")
		for _, item := range bundle.Items {
			fmt.Fprintf(&sb, "[%d] %s\n", item.CitationIdx, item.Snippet)
		}
		for _, hit := range newHits {
			item := bundle.Append(debate.EvidenceItem{
				URL:        hit.Metadata.Source,
				Snippet:    hit.Text,
				Authority:  hit.Score,
				SourceType: debate.SourceTypeMemory,
				Method:     debate.MethodVectorRecall,
				FetchedAt:  time.Now(),
			})
			fmt.Fprintf(&sb, "[%d] %s\n", item.CitationIdx, hit.Text)
		}
		sb.WriteString("\n")
	}

	// 4. LIVE WEB CONTENT
	if req.Flags.EnableWebRAG && m.urlFetch != nil {
		if u, ok := extractURL(req.Query); ok {
			summary, method, err := m.urlFetch.FetchAndSummarize(ctx, u)
			if err == nil && summary != "" {
				item := bundle.Append(debate.EvidenceItem{
					URL:        u,
					Domain:     hostOf(u),
					Snippet:    summary,
					Authority:  0.5,
					SourceType: debate.SourceTypeWeb,
					Method:     method,
					FetchedAt:  time.Now(),
				})
				sb.WriteString(headers.liveWebContent)
				sb.WriteString("\n")
				fmt.Fprintf(&sb, "[%d] %s\n\n", item.CitationIdx, summary)

				if m.store != nil {
					_, _ = m.store.Add(ctx, summary, memory.Metadata{
						Type:      memory.TypeWebMemory,
						Source:    u,
						DebateID:  req.DebateID,
						Timestamp: time.Now(),
					}, true)
				}
			}
		}
	}

	// 5. USER QUESTION
	sb.WriteString(headers.userQuestion)
	sb.WriteString("\n")
	sb.WriteString(req.CurrentTask)

	return ContextPayload{Text: sb.String(), Bundle: bundle}, nil
}

const roleHistoryLimit = 20

// RoleHistory returns every stored statement made under role (optionally
// narrowed to one debate), newest-similarity-ranked, for the
// /memory/role/reversal, /memory/role/history, and
// /memory/consistency/check endpoints (spec §6).
func (m *Manager) RoleHistory(ctx context.Context, role, debateID string) ([]string, error) {
	if m.store == nil {
		return nil, nil
	}
	filter := map[string]string{"role": role}
	if debateID != "" {
		filter["debate_id"] = debateID
	}

	hits, err := m.store.Search(ctx, role, roleHistoryLimit, filter)
	if err != nil {
		return nil, err
	}

	statements := make([]string, 0, len(hits))
	for _, hit := range hits {
		statements = append(statements, hit.Text)
	}
	return statements, nil
}

// WriteBack persists a debate_turn or role_statement record after a
// successful turn (spec §4.8: "Memory write-back").
func (m *Manager) WriteBack(ctx context.Context, recordType memory.RecordType, text string, role, debateID string) error {
	if m.store == nil {
		return nil
	}
	_, err := m.store.Add(ctx, text, memory.Metadata{
		Type:      recordType,
		Role:      role,
		DebateID:  debateID,
		Timestamp: time.Now(),
	}, false)
	return err
}

type sectionHeaders struct {
	recentConversation string
	retrievedEvidence  string
	liveWebContent     string
	userQuestion       string
}

// headerStyle picks compact or role-labeled section headers (spec
// §4.8: "If format_style=conversational, section headers are compact;
// if debate, headers include explicit role labels").
func headerStyle(style string) sectionHeaders {
	if style == "debate" {
		return sectionHeaders{
			recentConversation: "=== RECENT DEBATE TURNS ===",
			retrievedEvidence:  "=== RETRIEVED EVIDENCE (cite as [n]) ===",
			liveWebContent:     "=== LIVE WEB CONTENT (cite as [n]) ===",
			userQuestion:       "=== CURRENT PROMPT ===",
		}
	}
	return sectionHeaders{
		recentConversation: "Recent conversation:",
		retrievedEvidence:  "Relevant context:",
		liveWebContent:     "From the web:",
		userQuestion:       "Question:",
	}
}

// extractURL returns the first http(s) URL found in text, if any.
func extractURL(text string) (string, bool) {
	for _, field := range strings.Fields(text) {
		if u, err := url.Parse(field); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
			return field, true
		}
	}
	return "", false
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(u.Host, "www."))
}

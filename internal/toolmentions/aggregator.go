package toolmentions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/conversation"
	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/docstore"
	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/sanitize"
	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/users"
)

const instrumentationName = "github.com/scsuvizlab/tiis-chatbot-sub000/internal/toolmentions"

// ErrToolNotFound is returned by ToolDetail for a name outside the
// dictionary or never mentioned in the corpus.
var ErrToolNotFound = errors.New("tool not found")

// Aggregator is a stateless batch scanner over the document store. Every
// view re-runs the full scan; nothing is cached or incrementally updated,
// so the output is always a best-effort snapshot of the live corpus.
type Aggregator struct {
	docs    *docstore.Store
	entries []entry
	logger  *zap.Logger

	tracer      trace.Tracer
	meter       metric.Meter
	scanCounter metric.Int64Counter
}

// NewAggregator creates an aggregator over the given store using the
// default dictionary.
func NewAggregator(docs *docstore.Store, logger *zap.Logger) (*Aggregator, error) {
	if docs == nil {
		return nil, errors.New("document store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &Aggregator{
		docs:    docs,
		entries: compileDictionary(DefaultDictionary),
		logger:  logger,
		tracer:  otel.Tracer(instrumentationName),
		meter:   otel.Meter(instrumentationName),
	}

	counter, err := a.meter.Int64Counter("tiis.toolmentions.scans_total",
		metric.WithDescription("Full-corpus aggregation scans"))
	if err != nil {
		logger.Warn("failed to create scan counter", zap.Error(err))
	}
	a.scanCounter = counter

	return a, nil
}

// toolAccum accumulates one tool's mentions during a scan. Per-user maps
// are keyed by raw storage key, not identifier, so namespaces with
// hash-truncated keys are counted like any other; keys decode to
// identifiers only at the view boundary.
type toolAccum struct {
	category  Category
	total     int
	perUser   map[string]map[string]int // user key -> conversation id -> count
	firstSeen time.Time
	lastSeen  time.Time
}

// scan walks every user namespace and every document once, returning the
// per-tool accumulation plus the number of documents read.
func (a *Aggregator) scan(ctx context.Context) (map[string]*toolAccum, int, error) {
	ctx, span := a.tracer.Start(ctx, "toolmentions.scan")
	defer span.End()

	if a.scanCounter != nil {
		a.scanCounter.Add(ctx, 1)
	}

	userKeys, err := a.docs.ListUserKeys()
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}

	accum := make(map[string]*toolAccum)
	docsRead := 0
	for _, userKey := range userKeys {
		n, err := a.scanUser(userKey, accum)
		if err != nil {
			return nil, 0, err
		}
		docsRead += n
	}
	return accum, docsRead, nil
}

func (a *Aggregator) scanUser(userKey string, accum map[string]*toolAccum) (int, error) {
	docIDs, err := a.docs.ListIDsByKey(userKey)
	if err != nil {
		return 0, fmt.Errorf("listing documents for %s: %w", userKey, err)
	}

	docsRead := 0
	for _, docID := range docIDs {
		if docID == users.ProfileDocID {
			continue
		}
		var conv conversation.Conversation
		if err := a.docs.LoadByKey(userKey, docID, &conv); err != nil {
			// Skip documents that vanish or fail to parse mid-scan; the
			// aggregation is advisory, not transactional.
			a.logger.Warn("skipping unreadable document",
				zap.String("user_key", userKey),
				zap.String("doc", docID),
				zap.Error(err))
			continue
		}
		a.scanDocument(userKey, &conv, accum)
		docsRead++
	}
	return docsRead, nil
}

// scanDocument matches every dictionary entry against one document's
// combined text corpus and credits hits to the (user, document) pair.
func (a *Aggregator) scanDocument(userKey string, conv *conversation.Conversation, accum map[string]*toolAccum) {
	corpus := documentCorpus(conv)
	if corpus == "" {
		return
	}

	for i := range a.entries {
		e := &a.entries[i]
		hits := len(e.re.FindAllStringIndex(corpus, -1))
		if hits == 0 {
			continue
		}

		acc := accum[e.name]
		if acc == nil {
			acc = &toolAccum{
				category: e.category,
				perUser:  make(map[string]map[string]int),
			}
			accum[e.name] = acc
		}
		acc.total += hits
		if acc.perUser[userKey] == nil {
			acc.perUser[userKey] = make(map[string]int)
		}
		acc.perUser[userKey][conv.ID] += hits

		if acc.firstSeen.IsZero() || conv.CreatedAt.Before(acc.firstSeen) {
			acc.firstSeen = conv.CreatedAt
		}
		if conv.LastUpdated.After(acc.lastSeen) {
			acc.lastSeen = conv.LastUpdated
		}
	}
}

// documentCorpus concatenates all text-typed content parts of every
// message plus the summary field, one search corpus per document.
func documentCorpus(conv *conversation.Conversation) string {
	var b strings.Builder
	for i := range conv.Messages {
		for _, p := range conv.Messages[i].Parts {
			if p.Kind == conversation.PartText && p.Text != "" {
				b.WriteString(p.Text)
				b.WriteByte('\n')
			}
		}
	}
	if conv.Summary != nil && *conv.Summary != "" {
		b.WriteString(*conv.Summary)
	}
	return b.String()
}

func statFromAccum(name string, acc *toolAccum) ToolStat {
	userList := make([]string, 0, len(acc.perUser))
	convCount := 0
	for userKey, convs := range acc.perUser {
		userList = append(userList, sanitize.DisplayID(userKey))
		convCount += len(convs)
	}
	sort.Strings(userList)

	return ToolStat{
		Name:              name,
		Category:          acc.category,
		TotalMentions:     acc.total,
		UserCount:         len(acc.perUser),
		ConversationCount: convCount,
		Users:             userList,
		FirstSeen:         acc.firstSeen,
		LastSeen:          acc.lastSeen,
	}
}

// AllTools returns the global tool table sorted by distinct-user count
// descending, then mention count descending, then name for stability.
func (a *Aggregator) AllTools(ctx context.Context) ([]ToolStat, error) {
	accum, _, err := a.scan(ctx)
	if err != nil {
		return nil, err
	}

	stats := make([]ToolStat, 0, len(accum))
	for name, acc := range accum {
		stats = append(stats, statFromAccum(name, acc))
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].UserCount != stats[j].UserCount {
			return stats[i].UserCount > stats[j].UserCount
		}
		if stats[i].TotalMentions != stats[j].TotalMentions {
			return stats[i].TotalMentions > stats[j].TotalMentions
		}
		return stats[i].Name < stats[j].Name
	})
	return stats, nil
}

// ByCategory groups the global table per category, categories ordered by
// total mentions descending.
func (a *Aggregator) ByCategory(ctx context.Context) ([]CategoryGroup, error) {
	stats, err := a.AllTools(ctx)
	if err != nil {
		return nil, err
	}

	byCat := make(map[Category]*CategoryGroup)
	for _, s := range stats {
		g := byCat[s.Category]
		if g == nil {
			g = &CategoryGroup{Category: s.Category}
			byCat[s.Category] = g
		}
		g.ToolCount++
		g.TotalMentions += s.TotalMentions
		g.Tools = append(g.Tools, s)
	}

	groups := make([]CategoryGroup, 0, len(byCat))
	for _, g := range byCat {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].TotalMentions != groups[j].TotalMentions {
			return groups[i].TotalMentions > groups[j].TotalMentions
		}
		return groups[i].Category < groups[j].Category
	})
	return groups, nil
}

// Detail returns the drill-down for one named tool. The lookup is
// case-insensitive against dictionary names.
func (a *Aggregator) Detail(ctx context.Context, toolName string) (*ToolDetail, error) {
	accum, _, err := a.scan(ctx)
	if err != nil {
		return nil, err
	}

	var name string
	var acc *toolAccum
	for n, candidate := range accum {
		if strings.EqualFold(n, toolName) {
			name, acc = n, candidate
			break
		}
	}
	if acc == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, toolName)
	}

	detail := &ToolDetail{
		Name:          name,
		Category:      acc.category,
		TotalMentions: acc.total,
		UserCount:     len(acc.perUser),
	}
	for userKey, convs := range acc.perUser {
		um := UserMentions{UserID: sanitize.DisplayID(userKey)}
		for convID, count := range convs {
			um.TotalMentions += count
			um.Conversations = append(um.Conversations, ConversationMentions{
				ConversationID: convID,
				Mentions:       count,
			})
		}
		sort.Slice(um.Conversations, func(i, j int) bool {
			return um.Conversations[i].ConversationID < um.Conversations[j].ConversationID
		})
		detail.Users = append(detail.Users, um)
	}
	sort.Slice(detail.Users, func(i, j int) bool {
		if detail.Users[i].TotalMentions != detail.Users[j].TotalMentions {
			return detail.Users[i].TotalMentions > detail.Users[j].TotalMentions
		}
		return detail.Users[i].UserID < detail.Users[j].UserID
	})
	return detail, nil
}

// ByUser returns the tools one user has mentioned, sorted by mention
// count descending then name.
func (a *Aggregator) ByUser(ctx context.Context, userID string) ([]UserToolStat, error) {
	accum, _, err := a.scan(ctx)
	if err != nil {
		return nil, err
	}

	userKey := sanitize.StorageKey(userID)
	stats := make([]UserToolStat, 0)
	for name, acc := range accum {
		convs, ok := acc.perUser[userKey]
		if !ok {
			continue
		}
		total := 0
		for _, count := range convs {
			total += count
		}
		stats = append(stats, UserToolStat{
			Name:     name,
			Category: acc.category,
			Mentions: total,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Mentions != stats[j].Mentions {
			return stats[i].Mentions > stats[j].Mentions
		}
		return stats[i].Name < stats[j].Name
	})
	return stats, nil
}

// Stats summarizes a full scan.
func (a *Aggregator) Stats(ctx context.Context) (*Stats, error) {
	accum, docsRead, err := a.scan(ctx)
	if err != nil {
		return nil, err
	}

	out := &Stats{
		ToolCount:     len(accum),
		ByCategory:    make(map[Category]int),
		ScannedAt:     time.Now().UTC(),
		DocumentsRead: docsRead,
	}
	userSet := make(map[string]struct{})
	for _, acc := range accum {
		out.TotalMentions += acc.total
		out.ByCategory[acc.category]++
		for user := range acc.perUser {
			userSet[user] = struct{}{}
		}
	}
	out.CategoryCount = len(out.ByCategory)
	out.UserCount = len(userSet)
	return out, nil
}

package composer

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ZanRoberto/Tecnaria-V3-sub000/documents"
	"github.com/ZanRoberto/Tecnaria-V3-sub000/knowledge"
	"github.com/ZanRoberto/Tecnaria-V3-sub000/llmclient"
	"github.com/ZanRoberto/Tecnaria-V3-sub000/match"
	"github.com/ZanRoberto/Tecnaria-V3-sub000/site"
)

// NotFoundMessage is returned when every fallback stage comes up empty.
const NotFoundMessage = "Nessuna risposta trovata nei documenti o online."

// OffTopicMessage redirects questions outside the product perimeter.
const OffTopicMessage = "Rispondo esclusivamente su prodotti e sistemi Tecnaria S.p.A. " +
	"(CTF, CTL/MAXI, VCEM/CTCEM, DIAPASON, GTS, P560, accessori, ordini e forniture). " +
	"Riformula la domanda in questo perimetro."

const systemInstruction = "Sei un esperto tecnico dei prodotti Tecnaria. " +
	"Rispondi in modo preciso, chiaro e professionale usando esclusivamente le informazioni " +
	"contenute nel testo tecnico fornito. Se il testo non basta, dillo apertamente."

// Knowledge answers canonical lookups against the static knowledge set.
type Knowledge interface {
	Lookup(question string) (*knowledge.Hit, bool)
}

// Corpus rebuilds the local document set (cache-backed).
type Corpus interface {
	Index(ctx context.Context) ([]documents.Record, error)
}

// SiteSearcher runs the remote site search stage.
type SiteSearcher interface {
	Search(ctx context.Context, question string) (*site.Result, error)
}

// Completer is the hosted-model fallback.
type Completer interface {
	Chat(ctx context.Context, messages []llmclient.Message, temperature *float64) (string, error)
}

// LanguageNormalizer translates the question into the pivot language and
// the answer back out.
type LanguageNormalizer interface {
	Normalize(ctx context.Context, question string) (detected string, pivotQuestion string)
	Denormalize(ctx context.Context, answer, target string) string
}

// Answer is the composed reply with its provenance.
type Answer struct {
	Text   string
	Source string // knowledge, documents, site, llm, guard, none
	Origin string // entry id, document relpath or page URL
	Lang   string
	Score  int
}

// Options tune the pipeline; zero values get sensible defaults.
type Options struct {
	Temperature     float64
	ContextMaxChars int
	OffTopicTerms   []string
}

// Composer walks the ordered fallback chain: canonical knowledge, local
// documents, remote site, hosted model, fixed not-found message. Stage
// failures are contained and mean "try the next stage".
type Composer struct {
	knowledge Knowledge
	corpus    Corpus
	matcher   *match.Matcher
	site      SiteSearcher
	llm       Completer
	lang      LanguageNormalizer
	opts      Options
	logger    *zap.Logger

	// rand.Rand is not goroutine-safe and each request runs on its own
	// goroutine, so variant selection goes through the mutex.
	rngMu sync.Mutex
	rng   *rand.Rand
}

func New(kn Knowledge, corpus Corpus, matcher *match.Matcher, siteSearch SiteSearcher, llm Completer, langNorm LanguageNormalizer, opts Options, logger *zap.Logger) *Composer {
	if opts.ContextMaxChars <= 0 {
		opts.ContextMaxChars = 12000
	}
	return &Composer{
		knowledge: kn,
		corpus:    corpus,
		matcher:   matcher,
		site:      siteSearch,
		llm:       llm,
		lang:      langNorm,
		opts:      opts,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:    logger,
	}
}

// Answer runs the full pipeline for one question. It never returns an
// error: total failure yields the fixed not-found message.
func (c *Composer) Answer(ctx context.Context, question string) Answer {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{Text: NotFoundMessage, Source: "none"}
	}

	if c.isOffTopic(question) {
		return Answer{Text: OffTopicMessage, Source: "guard"}
	}

	detected, pivotQ := c.lang.Normalize(ctx, question)

	if hit, ok := c.lookupKnowledge(pivotQ); ok {
		c.rngMu.Lock()
		text := hit.Response(c.rng)
		c.rngMu.Unlock()
		return Answer{
			Text:   c.lang.Denormalize(ctx, text, detected),
			Source: "knowledge",
			Origin: hit.Entry.ID,
			Lang:   detected,
			Score:  hit.Score,
		}
	}

	records := c.indexCorpus(ctx)

	if res, ok := c.searchDocuments(pivotQ, records); ok {
		text := fmt.Sprintf("Dai documenti (%s):\n\n%s", res.ID, res.Text)
		return Answer{
			Text:   c.lang.Denormalize(ctx, text, detected),
			Source: "documents",
			Origin: res.ID,
			Lang:   detected,
			Score:  res.Score,
		}
	}

	if res, ok := c.searchSite(ctx, pivotQ); ok {
		text := fmt.Sprintf("Contenuto rilevante da %s:\n\n%s", res.URL, res.Snippet)
		return Answer{
			Text:   c.lang.Denormalize(ctx, text, detected),
			Source: "site",
			Origin: res.URL,
			Lang:   detected,
			Score:  res.Score,
		}
	}

	if text, ok := c.askModel(ctx, pivotQ, records); ok {
		return Answer{
			Text:   c.lang.Denormalize(ctx, text, detected),
			Source: "llm",
			Lang:   detected,
		}
	}

	return Answer{Text: NotFoundMessage, Source: "none", Lang: detected}
}

func (c *Composer) isOffTopic(question string) bool {
	q := strings.ToLower(question)
	for _, term := range c.opts.OffTopicTerms {
		if term != "" && strings.Contains(q, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func (c *Composer) lookupKnowledge(question string) (*knowledge.Hit, bool) {
	if c.knowledge == nil {
		return nil, false
	}
	return c.knowledge.Lookup(question)
}

func (c *Composer) indexCorpus(ctx context.Context) []documents.Record {
	if c.corpus == nil {
		return nil
	}
	records, err := c.corpus.Index(ctx)
	if err != nil {
		c.logger.Warn("Document indexing failed, continuing without corpus", zap.Error(err))
		return nil
	}
	return records
}

func (c *Composer) searchDocuments(question string, records []documents.Record) (*match.Result, bool) {
	if c.matcher == nil || len(records) == 0 {
		return nil, false
	}
	candidates := make([]match.Candidate, 0, len(records))
	for _, r := range records {
		candidates = append(candidates, match.Candidate{ID: r.RelPath, Text: r.Text})
	}
	return c.matcher.BestMatch(question, candidates)
}

func (c *Composer) searchSite(ctx context.Context, question string) (*site.Result, bool) {
	if c.site == nil {
		return nil, false
	}
	res, err := c.site.Search(ctx, question)
	if err != nil {
		c.logger.Warn("Site search stage failed, escalating", zap.Error(err))
		return nil, false
	}
	if res == nil {
		return nil, false
	}
	return res, true
}

func (c *Composer) askModel(ctx context.Context, question string, records []documents.Record) (string, bool) {
	if c.llm == nil {
		return "", false
	}

	contextText := c.assembleContext(records)
	prompt := fmt.Sprintf(
		"Il seguente testo tecnico contiene informazioni tratte dalla documentazione Tecnaria.\n\n"+
			"TESTO TECNICO:\n%s\n\nDOMANDA:\n%s\n\nRISPOSTA TECNICA:",
		contextText, question)

	temperature := c.opts.Temperature
	answer, err := c.llm.Chat(ctx, []llmclient.Message{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: prompt},
	}, &temperature)
	if err != nil {
		c.logger.Warn("LLM fallback stage failed", zap.Error(err))
		return "", false
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", false
	}
	return answer, true
}

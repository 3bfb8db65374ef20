package gourmet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yanqian/station-gourmet/internal/infra/llm/chatgpt"
	"github.com/yanqian/station-gourmet/pkg/metrics"
)

// InsightInput carries the signals available for one venue.
type InsightInput struct {
	Name     string
	Location string
	Category string
	Reviews  []string
	Usage    *metrics.UsageRecorder
}

// InsightStrategy produces a short blurb, or "" when it has nothing to offer.
type InsightStrategy interface {
	Insight(ctx context.Context, in InsightInput) string
}

// InsightChain tries strategies in order; the first non-empty result wins.
type InsightChain []InsightStrategy

func (c InsightChain) Insight(ctx context.Context, in InsightInput) string {
	for _, strategy := range c {
		if strategy == nil {
			continue
		}
		if out := strings.TrimSpace(strategy.Insight(ctx, in)); out != "" {
			return out
		}
	}
	return ""
}

// TokenCounter measures prompt text for the review budget.
type TokenCounter interface {
	Count(text string) int
}

const defaultInsightPrompt = "You are a friendly local food guide in Japan. Describe the restaurant in one or two short English sentences using ONLY facts contained in the supplied text. Never mention ratings, scores, stars or prices. Do not invent dishes or details. Reply with the description only."

// LLMInsight asks the text generation provider for a grounded description.
type LLMInsight struct {
	Client      ChatClient
	Counter     TokenCounter
	Model       string
	Temperature float32
	Prompt      string
	TokenBudget int
	Logger      *slog.Logger
}

func (s *LLMInsight) Insight(ctx context.Context, in InsightInput) string {
	if s == nil || s.Client == nil {
		return ""
	}
	prompt := strings.TrimSpace(s.Prompt)
	if prompt == "" {
		prompt = defaultInsightPrompt
	}
	resp, err := s.Client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model: s.Model,
		Messages: []chatgpt.Message{
			{Role: "system", Content: prompt},
			{Role: "user", Content: s.buildUserPrompt(in)},
		},
		Temperature: chatgpt.Temperature(s.Temperature),
		MaxTokens:   160,
	})
	if err != nil {
		s.logWarn("insight generation failed", "venue", in.Name, "error", err)
		return ""
	}
	recordUsage(in.Usage, resp)
	return sanitizeInsight(resp.FirstContent())
}

func (s *LLMInsight) buildUserPrompt(in InsightInput) string {
	reviews := fitReviews(in.Reviews, s.Counter, s.TokenBudget)
	var b strings.Builder
	fmt.Fprintf(&b, "Restaurant: %s\nArea: %s\nCraving: %s\n", in.Name, in.Location, in.Category)
	if len(reviews) == 0 {
		fmt.Fprintf(&b, "Source text: No reviews are available. This is a %s spot near %s. Write a short welcoming line without inventing specifics.", in.Category, in.Location)
		return b.String()
	}
	b.WriteString("Source text (guest reviews):\n")
	for _, review := range reviews {
		b.WriteString("- ")
		b.WriteString(review)
		b.WriteString("\n")
	}
	return b.String()
}

func (s *LLMInsight) logWarn(msg string, args ...any) {
	if s.Logger != nil {
		s.Logger.Warn(msg, args...)
	}
}

// fitReviews keeps reviews in order while they fit in the token budget. When
// even the first review is too long it is truncated so the prompt keeps one
// grounded excerpt.
func fitReviews(reviews []string, counter TokenCounter, budget int) []string {
	if len(reviews) == 0 {
		return nil
	}
	if counter == nil || budget <= 0 {
		return reviews
	}
	out := make([]string, 0, len(reviews))
	used := 0
	for _, review := range reviews {
		n := counter.Count(review)
		if used+n > budget {
			break
		}
		used += n
		out = append(out, review)
	}
	if len(out) == 0 {
		out = append(out, truncateRunes(reviews[0], budget*2))
	}
	return out
}

func truncateRunes(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

func sanitizeInsight(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.Trim(text, "\"“”「」")
	text = strings.Join(strings.Fields(text), " ")
	return truncateRunes(text, 280)
}

func recordUsage(rec *metrics.UsageRecorder, resp chatgpt.ChatCompletionResponse) {
	if rec == nil || resp.Usage == nil {
		return
	}
	rec.Add(metrics.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	})
}

// KeywordInsight summarizes reviews by detecting vocabulary buckets. It is
// deterministic and needs no provider. Latin terms match whole words only;
// Japanese terms match anywhere since the script has no word separators.
type KeywordInsight struct{}

type keywordBucket struct {
	phrase string
	terms  []string
}

var keywordBuckets = []keywordBucket{
	{phrase: "the flavors", terms: []string{"delicious", "tasty", "flavor", "flavorful", "flavour", "rich", "broth", "fresh", "juicy", "美味", "おいしい", "うまい", "旨い", "旨味", "絶品"}},
	{phrase: "the friendly service", terms: []string{"friendly", "staff", "service", "welcoming", "polite", "接客", "店員", "親切", "丁寧"}},
	{phrase: "the atmosphere", terms: []string{"atmosphere", "cozy", "cosy", "ambience", "ambiance", "interior", "quiet", "雰囲気", "落ち着", "おしゃれ"}},
	{phrase: "how popular it is, so expect a queue", terms: []string{"crowded", "queue", "queued", "line up", "lined up", "waited", "waiting", "busy", "popular", "行列", "混雑", "混んで", "並ぶ", "並んだ", "並んで", "待ち時間"}},
	{phrase: "the good value", terms: []string{"value", "reasonable", "affordable", "cheap", "generous", "portion", "portions", "コスパ", "安い", "リーズナブル", "ボリューム"}},
}

func (KeywordInsight) Insight(_ context.Context, in InsightInput) string {
	if len(in.Reviews) == 0 {
		return ""
	}
	corpus := strings.ToLower(strings.Join(in.Reviews, "\n"))
	words := " " + strings.Join(strings.FieldsFunc(corpus, isWordSeparator), " ") + " "
	phrases := make([]string, 0, len(keywordBuckets))
	for _, bucket := range keywordBuckets {
		for _, term := range bucket.terms {
			if matchesTerm(corpus, words, term) {
				phrases = append(phrases, bucket.phrase)
				break
			}
		}
	}
	if len(phrases) == 0 {
		return ""
	}
	return "Guests often mention " + joinPhrases(phrases) + "."
}

// matchesTerm checks Japanese terms against the raw corpus and Latin terms
// against the space padded word sequence.
func matchesTerm(corpus, words, term string) bool {
	if hasJapaneseScript(term) {
		return strings.Contains(corpus, term)
	}
	return strings.Contains(words, " "+term+" ")
}

func isWordSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
}

func joinPhrases(phrases []string) string {
	switch len(phrases) {
	case 0:
		return ""
	case 1:
		return phrases[0]
	default:
		return strings.Join(phrases[:len(phrases)-1], ", ") + " and " + phrases[len(phrases)-1]
	}
}

// Romanizer returns a Latin-script reading for a venue name, or "".
type Romanizer interface {
	Romanize(ctx context.Context, name string, usage *metrics.UsageRecorder) string
}

// LLMRomanizer asks the text generation provider for a Hepburn reading.
type LLMRomanizer struct {
	Client      ChatClient
	Model       string
	Temperature float32
	Logger      *slog.Logger
}

func (r *LLMRomanizer) Romanize(ctx context.Context, name string, usage *metrics.UsageRecorder) string {
	if r == nil || r.Client == nil || !hasJapaneseScript(name) {
		return ""
	}
	resp, err := r.Client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model: r.Model,
		Messages: []chatgpt.Message{
			{Role: "system", Content: "Convert Japanese restaurant names to Hepburn romanization. Reply with the romanized name only, no quotes or explanation."},
			{Role: "user", Content: name},
		},
		Temperature: chatgpt.Temperature(r.Temperature),
		MaxTokens:   40,
	})
	if err != nil {
		if r.Logger != nil {
			r.Logger.Warn("name romanization failed", "venue", name, "error", err)
		}
		return ""
	}
	recordUsage(usage, resp)
	return sanitizeRomanized(resp.FirstContent())
}

func sanitizeRomanized(raw string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(raw), "\n")
	line = strings.TrimSpace(strings.Trim(line, "\"'“”「」"))
	if line == "" || hasJapaneseScript(line) || utf8.RuneCountInString(line) > 80 {
		return ""
	}
	return line
}

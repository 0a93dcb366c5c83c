// File: internal/matching/orchestrator.go
package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/platform/metrics"
)

// MaxMatches is the most results a match request returns.
const MaxMatches = 5

// SystemPrompt frames the model's role for every match request.
const SystemPrompt = "You are a helpful assistant that matches donations to associations."

// Completer sends a system and user prompt to a language model and returns the raw reply.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Profile describes the association asking for matches.
type Profile struct {
	Name string
	Bio  string
}

// Result is one recommended donation.
type Result struct {
	DonationID uuid.UUID
	Score      int
	Reason     string
	Candidate  Candidate
}

// Orchestrator turns ranked candidates into model-scored matches.
type Orchestrator struct {
	completer Completer
	timeout   time.Duration
	logger    *zap.Logger
}

// NewOrchestrator creates an orchestrator. A nil completer makes every
// non-empty match request fail with MATCHING_ERROR.
func NewOrchestrator(completer Completer, timeout time.Duration, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{completer: completer, timeout: timeout, logger: logger.Named("match_orchestrator")}
}

type modelMatch struct {
	ID     string      `json:"id"`
	Score  json.Number `json:"score"`
	Reason string      `json:"reason"`
}

type modelReply struct {
	Matches []modelMatch `json:"matches"`
}

// Match asks the model to pick the best candidates for profile. Results keep
// the model's order; ids outside candidates and repeated ids are dropped.
func (o *Orchestrator) Match(ctx context.Context, profile Profile, candidates []Candidate) ([]Result, error) {
	if len(candidates) == 0 {
		metrics.ObserveMatch(metrics.MatchOutcomeEmpty, 0)
		return []Result{}, nil
	}
	if o.completer == nil {
		metrics.ObserveMatch(metrics.MatchOutcomeError, 0)
		return nil, common.ErrMatching.WithDetails("AI matching is not configured.")
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	raw, err := o.completer.Complete(callCtx, SystemPrompt, BuildPrompt(profile, candidates))
	latency := time.Since(start)
	if err != nil {
		metrics.ObserveMatch(metrics.MatchOutcomeError, latency)
		o.logger.Warn("Model call failed", zap.Duration("latency", latency), zap.Error(err))
		return nil, common.ErrMatching.WithCause(err)
	}

	results, err := reconcile(raw, candidates)
	if err != nil {
		metrics.ObserveMatch(metrics.MatchOutcomeError, latency)
		o.logger.Warn("Unparseable model reply", zap.Error(err))
		return nil, common.ErrMatching.WithCause(err)
	}

	metrics.ObserveMatch(metrics.MatchOutcomeSuccess, latency)
	o.logger.Debug("Match completed",
		zap.Int("candidates", len(candidates)), zap.Int("matches", len(results)), zap.Duration("latency", latency))
	return results, nil
}

// BuildPrompt renders the user prompt for profile and candidates.
func BuildPrompt(profile Profile, candidates []Candidate) string {
	bio := strings.TrimSpace(profile.Bio)
	if bio == "" {
		bio = "No bio provided"
	}

	var b strings.Builder
	b.WriteString("I need to match donations to an association based on the following information:\n\n")
	b.WriteString("Association profile:\n")
	fmt.Fprintf(&b, "- Name: %s\n", profile.Name)
	fmt.Fprintf(&b, "- Bio: %s\n\n", bio)
	b.WriteString("Available donations:\n")
	for i, c := range candidates {
		d := c.Donation
		fmt.Fprintf(&b, "%d. ID: %s\n", i+1, d.ID)
		fmt.Fprintf(&b, "   Title: %s\n", d.Title)
		fmt.Fprintf(&b, "   Category: %s\n", d.Category.Name)
		fmt.Fprintf(&b, "   Description: %s\n", d.Description)
		fmt.Fprintf(&b, "   Distance: %d km\n", int(math.Round(c.DistanceKm)))
		fmt.Fprintf(&b, "   Donor: %s\n", d.Donor.Name)
	}
	fmt.Fprintf(&b, "\nPlease rank the top %d donations that would be most suitable for this association based on relevance and proximity.\n", MaxMatches)
	b.WriteString("Return a JSON object with the following format:\n")
	b.WriteString(`{"matches": [{"id": "<donation id>", "score": <relevance score>, "reason": "<brief explanation>"}]}`)
	b.WriteString("\nOnly include the donation ID exactly as given, a score from 0-100, and a brief reason for the match.\n")
	return b.String()
}

// reconcile parses the model reply and maps it back onto candidates.
func reconcile(raw string, candidates []Candidate) ([]Result, error) {
	var reply modelReply
	decoder := json.NewDecoder(strings.NewReader(extractJSONObject(raw)))
	decoder.UseNumber()
	if err := decoder.Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode model reply: %w", err)
	}
	if reply.Matches == nil {
		return nil, fmt.Errorf("model reply has no matches field")
	}

	byID := make(map[uuid.UUID]Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.Donation.ID] = c
	}

	results := make([]Result, 0, MaxMatches)
	seen := make(map[uuid.UUID]bool, len(reply.Matches))
	for _, m := range reply.Matches {
		if len(results) == MaxMatches {
			break
		}
		id, err := uuid.Parse(strings.TrimSpace(m.ID))
		if err != nil {
			continue
		}
		candidate, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		results = append(results, Result{
			DonationID: id,
			Score:      clampScore(m.Score),
			Reason:     strings.TrimSpace(m.Reason),
			Candidate:  candidate,
		})
	}
	return results, nil
}

func clampScore(n json.Number) int {
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(100, f))))
}

// extractJSONObject trims anything around the outermost JSON object, such as
// a markdown code fence.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return raw
	}
	return raw[start : end+1]
}

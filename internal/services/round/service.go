// Package roundservice orchestrates one negotiation round: context
// assembly, proposal generation, solving, scoring, tracing, grading,
// and persistence of the audit record.
package roundservice

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"parley/internal/domain/clause"
	"parley/internal/domain/negotiation"
	"parley/internal/domain/persona"
	"parley/internal/domain/snippet"
	"parley/internal/events"
	"parley/internal/metrics"
	"parley/internal/services/derivation"
	"parley/internal/services/market"
	"parley/internal/services/policy"
	"parley/internal/services/proposal"
	"parley/internal/services/solver"
	"parley/internal/services/utility"
	"parley/pkg/errors"
	"parley/pkg/logger"
)

// Locker serializes rounds per session. At most one round may execute
// on a session at a time; the lease covers round-number assignment and
// term upserts, both read-then-write against shared state.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// Publisher publishes round lifecycle events, best effort
type Publisher interface {
	PublishRoundCompleted(ctx context.Context, event *events.RoundCompletedEvent)
}

// Request is the input of one round execution
type Request struct {
	SessionID uuid.UUID
	RoundNo   *int
	Overrides map[clause.Key]clause.Value
}

// Result is the complete outcome of one round
type Result struct {
	RoundNo           int
	CompanyProposals  []*negotiation.TermProposal
	InvestorProposals []*negotiation.TermProposal
	FinalTerms        map[clause.Key]clause.Value
	Utilities         utility.PartyScores
	Rationale         string
	Trace             []negotiation.ClauseTrace
	Citations         []*snippet.Snippet
	Grading           negotiation.Grading
	Decided           bool
	AnchoredBy        uuid.UUID
	InvestorWeights   map[uuid.UUID]float64
}

// Service executes negotiation rounds
type Service struct {
	sessions  negotiation.SessionRepository
	personas  persona.Repository
	terms     negotiation.TermRepository
	rounds    negotiation.RoundRepository
	snippets  snippet.Repository
	market    *market.Service
	skills    *proposal.Registry
	derive    *derivation.Service
	locker    Locker
	publisher Publisher
	lockTTL   time.Duration
	log       *logger.Logger
}

// NewService creates a new round orchestrator
func NewService(
	sessions negotiation.SessionRepository,
	personas persona.Repository,
	terms negotiation.TermRepository,
	rounds negotiation.RoundRepository,
	snippets snippet.Repository,
	marketSvc *market.Service,
	skills *proposal.Registry,
	derive *derivation.Service,
	locker Locker,
	publisher Publisher,
	lockTTL time.Duration,
) *Service {
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	return &Service{
		sessions:  sessions,
		personas:  personas,
		terms:     terms,
		rounds:    rounds,
		snippets:  snippets,
		market:    marketSvc,
		skills:    skills,
		derive:    derive,
		locker:    locker,
		publisher: publisher,
		lockTTL:   lockTTL,
		log:       logger.Get().With("component", "round_service"),
	}
}

// ExecuteRound runs one full negotiation round. Each round is a pure
// function of persisted state at call time; nothing survives in memory
// between rounds. The only fatal failure is context resolution - every
// per-clause failure degrades by dropping that clause.
func (s *Service) ExecuteRound(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	lockKey := "session:" + req.SessionID.String()
	if s.locker != nil {
		acquired, err := s.locker.AcquireLock(ctx, lockKey, s.lockTTL)
		if err != nil {
			metrics.RecordRound("error", time.Since(start))
			return nil, errors.Wrap(err, "failed to acquire session lock")
		}
		if !acquired {
			metrics.RecordRound("locked", time.Since(start))
			return nil, errors.Wrapf(errors.ErrSessionLocked, "session %s", req.SessionID)
		}
		defer func() {
			if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), lockKey); err != nil {
				s.log.Warn("Failed to release session lock", "session_id", req.SessionID, "error", err)
			}
		}()
	}

	nctx, err := s.buildContext(ctx, req)
	if err != nil {
		status := "error"
		if errors.Is(err, errors.ErrNotFound) {
			status = "not_found"
		}
		metrics.RecordRound(status, time.Since(start))
		return nil, err
	}

	companyP, investorP := s.generateProposals(ctx, nctx)

	anchor := derivation.AnchorInvestor(nctx.Investors)
	weights := solver.Normalize(nctx.Company.LeverageScore, anchor.LeverageScore)

	final := solver.Solve(companyP, investorP, weights, nctx)

	s.persistTerms(ctx, nctx, final)

	scores := utility.ScoreBothParties(final, nctx)

	trace := buildTrace(final, companyP, investorP, nctx)
	citations := s.fetchCitations(ctx, trace)
	grading := s.grade(final, citations, nctx)

	result := &Result{
		RoundNo:           nctx.RoundNo,
		CompanyProposals:  orderedProposals(companyP),
		InvestorProposals: orderedProposals(investorP),
		FinalTerms:        final,
		Utilities:         scores,
		Trace:             trace,
		Citations:         citations,
		Grading:           grading,
		Decided:           decided(final),
		AnchoredBy:        anchor.ID,
		InvestorWeights:   derivation.InvestorWeights(nctx.Investors),
	}
	result.Rationale = renderRationale(nctx, result, weights)

	if err := s.persistRound(ctx, nctx, result); err != nil {
		metrics.RecordRound("error", time.Since(start))
		return nil, err
	}

	s.publish(ctx, nctx, result)
	s.record(nctx, result, start)

	return result, nil
}

// buildContext resolves everything the round needs up front. An unknown
// session is the one fatal condition of a round.
func (s *Service) buildContext(ctx context.Context, req Request) (*negotiation.Context, error) {
	sess, err := s.sessions.GetByID(ctx, req.SessionID)
	if err != nil {
		return nil, errors.Wrapf(err, "session %s", req.SessionID)
	}

	people, err := s.personas.ListBySession(ctx, req.SessionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load personas")
	}

	var company *persona.Persona
	var investors []*persona.Persona
	for _, p := range people {
		switch p.Kind {
		case persona.KindCompany:
			if company == nil {
				company = p
			}
		case persona.KindInvestor:
			investors = append(investors, p)
		}
	}
	if company == nil || len(investors) == 0 {
		return nil, errors.Wrapf(errors.ErrPersonaMissing, "session %s", req.SessionID)
	}

	// Recompute and persist derived positions so the solver and
	// utility engine never read a stale triple
	if err := s.derive.RefreshAll(ctx, people); err != nil {
		return nil, errors.Wrap(err, "failed to refresh derived positions")
	}

	roundNo := 0
	if req.RoundNo != nil {
		roundNo = *req.RoundNo
	} else {
		maxNo, err := s.rounds.MaxRoundNo(ctx, req.SessionID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve round number")
		}
		roundNo = maxNo + 1
	}

	guidance, err := s.market.GuidanceMap(ctx, sess.Stage, sess.Region)
	if err != nil {
		return nil, err
	}
	benchmarks, err := s.market.BenchmarkMap(ctx, sess.Stage, sess.Region)
	if err != nil {
		return nil, err
	}

	termList, err := s.terms.ListBySession(ctx, req.SessionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load session terms")
	}
	termMap := make(map[clause.Key]*negotiation.SessionTerm, len(termList))
	for _, t := range termList {
		termMap[t.ClauseKey] = t
	}

	return &negotiation.Context{
		SessionID:  sess.ID,
		RoundNo:    roundNo,
		Stage:      sess.Stage,
		Region:     sess.Region,
		Company:    company,
		Investors:  investors,
		Guidance:   guidance,
		Benchmarks: benchmarks,
		Terms:      termMap,
		Overrides:  req.Overrides,
	}, nil
}

// generateProposals runs every registered skill for both sides.
// Pinned and overridden clauses are skipped entirely; a skill failure
// drops only its own clause from the round.
func (s *Service) generateProposals(ctx context.Context, nctx *negotiation.Context) (
	map[clause.Key]*negotiation.TermProposal,
	map[clause.Key]*negotiation.TermProposal,
) {
	company := make(map[clause.Key]*negotiation.TermProposal)
	investor := make(map[clause.Key]*negotiation.TermProposal)

	for _, key := range s.skills.Keys() {
		if nctx.Skip(key) {
			continue
		}
		skill, ok := s.skills.Get(key)
		if !ok {
			continue
		}

		cp, ip, err := s.runSkill(ctx, skill, nctx)
		if err != nil {
			s.log.Warn("Skill failed, dropping clause from round",
				"clause", key, "session_id", nctx.SessionID, "error", err)
			metrics.ClauseDegradations.WithLabelValues(string(key)).Inc()
			continue
		}
		company[key] = cp
		investor[key] = ip
	}

	return company, investor
}

// runSkill invokes both sides of one skill, converting panics into
// errors so a defective skill cannot abort the round
func (s *Service) runSkill(ctx context.Context, skill proposal.Skill, nctx *negotiation.Context) (
	cp *negotiation.TermProposal, ip *negotiation.TermProposal, err error,
) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("skill %s panicked: %v", skill.Key(), r)
		}
	}()

	cp, err = skill.Company(ctx, nctx)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "company proposal for %s", skill.Key())
	}
	ip, err = skill.Investor(ctx, nctx)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "investor proposal for %s", skill.Key())
	}
	return cp, ip, nil
}

// persistTerms upserts the settled values as session terms. Pinned
// terms are never touched; override-sourced values record as manual.
// Upsert failures degrade (the round record still captures the value).
func (s *Service) persistTerms(ctx context.Context, nctx *negotiation.Context, final map[clause.Key]clause.Value) {
	for key, value := range final {
		if existing, ok := nctx.Terms[key]; ok && existing.Pinned() {
			continue
		}

		source := negotiation.SourceCopilot
		confidence := 0.8
		if _, ok := nctx.OverrideValue(key); ok {
			source = negotiation.SourceManual
			confidence = 1.0
		}

		term := &negotiation.SessionTerm{
			ID:         uuid.New(),
			SessionID:  nctx.SessionID,
			ClauseKey:  key,
			Source:     source,
			Confidence: confidence,
			UpdatedAt:  time.Now().UTC(),
		}
		if err := term.SetValue(value); err != nil {
			s.log.Warn("Failed to encode term value", "clause", key, "error", err)
			continue
		}
		if err := s.terms.Upsert(ctx, term); err != nil {
			s.log.Warn("Failed to upsert session term", "clause", key, "error", err)
		}
	}
}

// buildTrace assembles the per-clause audit trail
func buildTrace(
	final map[clause.Key]clause.Value,
	company map[clause.Key]*negotiation.TermProposal,
	investor map[clause.Key]*negotiation.TermProposal,
	nctx *negotiation.Context,
) []negotiation.ClauseTrace {
	trace := make([]negotiation.ClauseTrace, 0, len(final))

	for _, key := range orderedKeys(final) {
		entry := negotiation.ClauseTrace{
			ClauseKey:  key,
			FinalValue: final[key],
		}

		if _, pinned := nctx.PinnedValue(key); pinned {
			entry.Pinned = true
			entry.Rationale = "Pinned term carried forward unchanged."
		} else if _, overridden := nctx.OverrideValue(key); overridden {
			entry.Overridden = true
			entry.Rationale = "Caller override applied verbatim."
		}

		var rationales []string
		if cp, ok := company[key]; ok {
			entry.CompanyValue = cp.Value
			rationales = append(rationales, cp.Rationale)
			entry.Citations = append(entry.Citations, cp.Citations...)
		}
		if ip, ok := investor[key]; ok {
			entry.InvestorValue = ip.Value
			rationales = append(rationales, ip.Rationale)
			entry.Citations = append(entry.Citations, ip.Citations...)
		}
		if len(rationales) > 0 {
			entry.Rationale = joinRationales(rationales)
		}

		trace = append(trace, entry)
	}
	return trace
}

// fetchCitations loads the cited snippets. A store failure degrades to
// an empty citation list.
func (s *Service) fetchCitations(ctx context.Context, trace []negotiation.ClauseTrace) []*snippet.Snippet {
	seen := make(map[uuid.UUID]bool)
	ids := make([]uuid.UUID, 0)
	for _, entry := range trace {
		for _, id := range entry.Citations {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 || s.snippets == nil {
		return nil
	}

	citations, err := s.snippets.GetByIDs(ctx, ids)
	if err != nil {
		s.log.Warn("Failed to fetch citations", "count", len(ids), "error", err)
		metrics.SnippetRetrievals.WithLabelValues("degraded").Inc()
		return nil
	}
	metrics.SnippetRetrievals.WithLabelValues("success").Inc()
	return citations
}

// grade runs policy validation over the final terms as an independent
// second check and approximates grounding from citation confidence.
// A failing grade never blocks persistence.
func (s *Service) grade(final map[clause.Key]clause.Value, citations []*snippet.Snippet, nctx *negotiation.Context) negotiation.Grading {
	grading := negotiation.Grading{
		PolicyOK:         true,
		ValidationErrors: []string{},
	}

	for _, key := range orderedKeys(final) {
		if ok, msg := policy.Validate(key, final[key], nctx); !ok {
			grading.PolicyOK = false
			grading.ValidationErrors = append(grading.ValidationErrors, msg)
		}
	}
	if !grading.PolicyOK {
		metrics.PolicyViolations.Inc()
	}

	if len(citations) > 0 {
		sum := 0.0
		for _, c := range citations {
			sum += c.Confidence
		}
		grading.Grounding = sum / float64(len(citations))
		if grading.Grounding > 1 {
			grading.Grounding = 1
		}
	}

	return grading
}

// persistRound appends the immutable audit record
func (s *Service) persistRound(ctx context.Context, nctx *negotiation.Context, result *Result) error {
	round := &negotiation.Round{
		ID:              uuid.New(),
		SessionID:       nctx.SessionID,
		RoundNo:         result.RoundNo,
		CompanyUtility:  result.Utilities.Company,
		InvestorUtility: result.Utilities.Investor,
		Rationale:       result.Rationale,
		AnchoredBy:      &result.AnchoredBy,
		CreatedAt:       time.Now().UTC(),
	}

	if err := round.SetProposals(result.CompanyProposals, result.InvestorProposals); err != nil {
		return errors.Wrap(err, "failed to encode proposals")
	}
	if err := round.SetFinalTerms(result.FinalTerms); err != nil {
		return errors.Wrap(err, "failed to encode final terms")
	}
	if err := round.SetTrace(result.Trace); err != nil {
		return errors.Wrap(err, "failed to encode trace")
	}
	if err := round.SetGrading(result.Grading); err != nil {
		return errors.Wrap(err, "failed to encode grading")
	}
	if err := round.SetInvestorWeights(result.InvestorWeights); err != nil {
		return errors.Wrap(err, "failed to encode investor weights")
	}

	if err := s.rounds.Create(ctx, round); err != nil {
		return errors.Wrap(err, "failed to persist round")
	}
	return nil
}

func (s *Service) publish(ctx context.Context, nctx *negotiation.Context, result *Result) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishRoundCompleted(ctx, &events.RoundCompletedEvent{
		SessionID:       nctx.SessionID,
		RoundNo:         result.RoundNo,
		CompanyUtility:  result.Utilities.Company,
		InvestorUtility: result.Utilities.Investor,
		PolicyOK:        result.Grading.PolicyOK,
		Grounding:       result.Grading.Grounding,
		ClauseCount:     len(result.FinalTerms),
		AnchoredBy:      &result.AnchoredBy,
		CompletedAt:     time.Now().UTC(),
	})
}

func (s *Service) record(nctx *negotiation.Context, result *Result, start time.Time) {
	for _, entry := range result.Trace {
		path := "compromise"
		switch {
		case entry.Pinned:
			path = "pinned"
		case entry.Overridden:
			path = "override"
		}
		metrics.ClausesResolved.WithLabelValues(string(entry.ClauseKey), path).Inc()
	}

	sid := nctx.SessionID.String()
	metrics.PartyUtility.WithLabelValues(sid, "company").Set(result.Utilities.Company)
	metrics.PartyUtility.WithLabelValues(sid, "investor").Set(result.Utilities.Investor)
	metrics.RecordRound("success", time.Since(start))

	s.log.Info("Round completed",
		"session_id", nctx.SessionID,
		"round_no", result.RoundNo,
		"clauses", len(result.FinalTerms),
		"company_utility", fmt.Sprintf("%.1f", result.Utilities.Company),
		"investor_utility", fmt.Sprintf("%.1f", result.Utilities.Investor),
		"policy_ok", result.Grading.PolicyOK,
	)
}

// decided reports whether every registered clause has a settled term
func decided(final map[clause.Key]clause.Value) bool {
	for _, key := range clause.Keys() {
		if _, ok := final[key]; !ok {
			return false
		}
	}
	return true
}

func orderedKeys(terms map[clause.Key]clause.Value) []clause.Key {
	order := make([]clause.Key, 0, len(terms))
	for _, key := range clause.Keys() {
		if _, ok := terms[key]; ok {
			order = append(order, key)
		}
	}
	extras := make([]clause.Key, 0)
	for key := range terms {
		if !clause.Known(key) {
			extras = append(extras, key)
		}
	}
	sort.Slice(extras, func(i, j int) bool { return extras[i] < extras[j] })
	return append(order, extras...)
}

func orderedProposals(proposals map[clause.Key]*negotiation.TermProposal) []*negotiation.TermProposal {
	out := make([]*negotiation.TermProposal, 0, len(proposals))
	for _, key := range clause.Keys() {
		if p, ok := proposals[key]; ok {
			out = append(out, p)
		}
	}
	return out
}

package proposal

import (
	"context"
	"fmt"
	"math"

	"parley/internal/domain/clause"
	"parley/internal/domain/negotiation"
	"parley/internal/domain/snippet"
	"parley/internal/services/market"
	"parley/internal/services/policy"
)

// companySkew pulls the founder-side numeric ask below the market floor
// of the default range
const companySkew = 0.67

// rangeFor resolves the default range for a clause from the round
// context without touching storage
func rangeFor(nctx *negotiation.Context, key clause.Key) (market.Range, bool) {
	return market.RangeFrom(nctx.GuidanceFor(key), nctx.BenchmarkFor(key))
}

// narrate appends the guidance narrative for one side, when present
func narrate(nctx *negotiation.Context, key clause.Key, company bool, rationale string) string {
	g := nctx.GuidanceFor(key)
	if g == nil {
		return rationale
	}
	view := g.InvestorView
	if company {
		view = g.CompanyView
	}
	if view == "" {
		return rationale
	}
	return rationale + " " + view
}

// exclusivitySkill negotiates the no-shop window length
type exclusivitySkill struct {
	retriever *Retriever
}

func (s *exclusivitySkill) Key() clause.Key { return clause.Exclusivity }

func (s *exclusivitySkill) Company(ctx context.Context, nctx *negotiation.Context) (*negotiation.TermProposal, error) {
	days := 30 // static anchor when no market data resolves
	rationale := "Company proposes a short exclusivity window to preserve optionality."
	if r, ok := rangeFor(nctx, clause.Exclusivity); ok && r.Low != nil {
		days = int(math.Round(companySkew * *r.Low))
		rationale = fmt.Sprintf(
			"Company proposes a %d-day exclusivity window, below the %s/%s market floor of %.0f days.",
			days, nctx.Stage, nctx.Region, *r.Low)
	}

	value := policy.Clamp(clause.Exclusivity, clause.Value{
		"period_days": clause.Int(days),
	}, nctx)

	return &negotiation.TermProposal{
		ClauseKey: clause.Exclusivity,
		Value:     value,
		Rationale: narrate(nctx, clause.Exclusivity, true, rationale),
		Citations: s.retriever.Citations(ctx, clause.Exclusivity, nctx.Stage, nctx.Region, snippet.PerspectiveFounder),
	}, nil
}

func (s *exclusivitySkill) Investor(ctx context.Context, nctx *negotiation.Context) (*negotiation.TermProposal, error) {
	days := 90
	rationale := "Investor requires a full exclusivity window to justify diligence spend."
	if r, ok := rangeFor(nctx, clause.Exclusivity); ok && r.High != nil {
		days = int(math.Round(*r.High))
		rationale = fmt.Sprintf(
			"Investor asks for the %d-day ceiling of the %s/%s market range.",
			days, nctx.Stage, nctx.Region)
	}

	value := policy.Clamp(clause.Exclusivity, clause.Value{
		"period_days": clause.Int(days),
	}, nctx)

	return &negotiation.TermProposal{
		ClauseKey: clause.Exclusivity,
		Value:     value,
		Rationale: narrate(nctx, clause.Exclusivity, false, rationale),
		Citations: s.retriever.Citations(ctx, clause.Exclusivity, nctx.Stage, nctx.Region, snippet.PerspectiveInvestor),
	}, nil
}

// vestingSkill negotiates founder vesting schedule and cliff
type vestingSkill struct {
	retriever *Retriever
}

func (s *vestingSkill) Key() clause.Key { return clause.Vesting }

func (s *vestingSkill) Company(ctx context.Context, nctx *negotiation.Context) (*negotiation.TermProposal, error) {
	months := 36
	if r, ok := rangeFor(nctx, clause.Vesting); ok && r.Low != nil {
		months = int(math.Round(*r.Low))
	}

	value := policy.Clamp(clause.Vesting, clause.Value{
		"vesting_months": clause.Int(months),
		"cliff_months":   clause.Int(0),
	}, nctx)

	rationale := fmt.Sprintf(
		"Company proposes %d-month vesting with no cliff, crediting time already served.", months)

	return &negotiation.TermProposal{
		ClauseKey: clause.Vesting,
		Value:     value,
		Rationale: narrate(nctx, clause.Vesting, true, rationale),
		Citations: s.retriever.Citations(ctx, clause.Vesting, nctx.Stage, nctx.Region, snippet.PerspectiveFounder),
	}, nil
}

func (s *vestingSkill) Investor(ctx context.Context, nctx *negotiation.Context) (*negotiation.TermProposal, error) {
	months := 48
	if r, ok := rangeFor(nctx, clause.Vesting); ok && r.High != nil {
		months = int(math.Round(*r.High))
	}

	// Proven founders earn a shorter cliff
	cliff := 12
	if attrs, err := nctx.Company.Attrs(); err == nil && attrs.RepeatFounder {
		cliff = 6
	}

	value := policy.Clamp(clause.Vesting, clause.Value{
		"vesting_months": clause.Int(months),
		"cliff_months":   clause.Int(cliff),
	}, nctx)

	rationale := fmt.Sprintf(
		"Investor asks for a fresh %d-month schedule with a %d-month cliff to secure founder commitment.",
		months, cliff)

	return &negotiation.TermProposal{
		ClauseKey: clause.Vesting,
		Value:     value,
		Rationale: narrate(nctx, clause.Vesting, false, rationale),
		Citations: s.retriever.Citations(ctx, clause.Vesting, nctx.Stage, nctx.Region, snippet.PerspectiveInvestor),
	}, nil
}

// preemptionSkill negotiates pro-rata participation in future rounds.
// Non-numeric clause: both sides hold canonical opposing stances.
type preemptionSkill struct {
	retriever *Retriever
}

func (s *preemptionSkill) Key() clause.Key { return clause.PreemptionRights }

func (s *preemptionSkill) Company(ctx context.Context, nctx *negotiation.Context) (*negotiation.TermProposal, error) {
	return &negotiation.TermProposal{
		ClauseKey: clause.PreemptionRights,
		Value: clause.Value{
			"granted": clause.Bool(true),
			"scope":   clause.Text("major_investors"),
		},
		Rationale: narrate(nctx, clause.PreemptionRights, true,
			"Company limits pre-emption to major investors to keep future rounds clean."),
		Citations: s.retriever.Citations(ctx, clause.PreemptionRights, nctx.Stage, nctx.Region, snippet.PerspectiveFounder),
	}, nil
}

func (s *preemptionSkill) Investor(ctx context.Context, nctx *negotiation.Context) (*negotiation.TermProposal, error) {
	return &negotiation.TermProposal{
		ClauseKey: clause.PreemptionRights,
		Value: clause.Value{
			"granted": clause.Bool(true),
			"scope":   clause.Text("all_investors"),
		},
		Rationale: narrate(nctx, clause.PreemptionRights, false,
			"Investor requires full pro-rata rights to maintain ownership through later rounds."),
		Citations: s.retriever.Citations(ctx, clause.PreemptionRights, nctx.Stage, nctx.Region, snippet.PerspectiveInvestor),
	}, nil
}

// transferSkill negotiates share transfer restrictions
type transferSkill struct {
	retriever *Retriever
}

func (s *transferSkill) Key() clause.Key { return clause.TransferRestrictions }

func (s *transferSkill) Company(ctx context.Context, nctx *negotiation.Context) (*negotiation.TermProposal, error) {
	return &negotiation.TermProposal{
		ClauseKey: clause.TransferRestrictions,
		Value: clause.Value{
			"rofr":    clause.Bool(true),
			"co_sale": clause.Bool(false),
		},
		Rationale: narrate(nctx, clause.TransferRestrictions, true,
			"Company accepts a right of first refusal but resists co-sale obligations on founder shares."),
		Citations: s.retriever.Citations(ctx, clause.TransferRestrictions, nctx.Stage, nctx.Region, snippet.PerspectiveFounder),
	}, nil
}

func (s *transferSkill) Investor(ctx context.Context, nctx *negotiation.Context) (*negotiation.TermProposal, error) {
	return &negotiation.TermProposal{
		ClauseKey: clause.TransferRestrictions,
		Value: clause.Value{
			"rofr":    clause.Bool(true),
			"co_sale": clause.Bool(true),
		},
		Rationale: narrate(nctx, clause.TransferRestrictions, false,
			"Investor requires both ROFR and co-sale so founders cannot exit ahead of the fund."),
		Citations: s.retriever.Citations(ctx, clause.TransferRestrictions, nctx.Stage, nctx.Region, snippet.PerspectiveInvestor),
	}, nil
}

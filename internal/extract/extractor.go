// Package extract pulls the structured entities out of a classified
// statement: business profile, stated balances, and the ordered transaction
// sequence. Every field is extracted independently and carries its own
// presence and confidence; partial extraction is normal, not an error.
package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/logger"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/model"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/money"
	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/perception"
)

const dateLayout = "2006-01-02"

// Result is the extractor's full output. Notes record recoverable anomalies
// (continuity breaks, unparseable lines) that downstream detectors may use
// as evidence.
type Result struct {
	Profile      model.BusinessProfile
	Balances     model.StatementBalances
	Transactions []model.Transaction
	Summary      model.StatementSummary
	Notes        []string
}

// Extractor drives the perception capability field by field.
type Extractor struct {
	client *perception.Client
}

// New creates an extractor.
func New(client *perception.Client) *Extractor {
	return &Extractor{client: client}
}

// Extract runs profile extraction over the sampled pages and transaction
// extraction page by page, concatenating in page order. It returns
// model.ErrExtractionFailed only when nothing usable came out at all.
func (e *Extractor) Extract(ctx context.Context, doc *model.Document, images [][]byte) (*Result, error) {
	log := logger.FromContext(ctx)
	res := &Result{}

	profileErr := e.extractProfile(ctx, images, &res.Profile)
	if profileErr != nil {
		log.Warn().Err(profileErr).Msg("business profile extraction failed")
		res.Notes = append(res.Notes, fmt.Sprintf("business profile unavailable: %v", profileErr))
	}

	e.extractFinancial(ctx, doc, images, res)

	if len(res.Transactions) == 0 && !res.Balances.Opening.Present && !res.Balances.Closing.Present {
		return nil, fmt.Errorf("%w: no transactions and no balances extracted", model.ErrExtractionFailed)
	}

	res.Summary = model.Summarize(res.Transactions)
	res.Summary.ContinuityBreaks = countContinuityBreaks(res)

	log.Info().
		Int("transactions", len(res.Transactions)).
		Bool("opening", res.Balances.Opening.Present).
		Bool("closing", res.Balances.Closing.Present).
		Int("continuity_breaks", res.Summary.ContinuityBreaks).
		Msg("extraction complete")

	return res, nil
}

const profilePrompt = `Extract the following from this business bank statement:

1. Business name
2. Business address, complete with postal code if shown
3. Bank / financial institution name
4. Account number (LAST 4 DIGITS ONLY)
5. Company registration number if shown
6. Statement period start and end dates (YYYY-MM-DD)
7. Whether the bank's logo is visibly present

For every field return an object {"value": ..., "found": boolean, "confidence": number 0-1}.
When a field is not readable, return {"found": false, "confidence": 0} and omit guessing.

Return a JSON object with keys: business_name, address, institution,
account_last4, registration_number, period_start, period_end, logo_present.`

type extractedField struct {
	Value      string  `json:"value"`
	Found      bool    `json:"found"`
	Confidence float64 `json:"confidence"`
}

type extractedBool struct {
	Value      bool    `json:"value"`
	Found      bool    `json:"found"`
	Confidence float64 `json:"confidence"`
}

type profileReply struct {
	BusinessName       extractedField `json:"business_name"`
	Address            extractedField `json:"address"`
	Institution        extractedField `json:"institution"`
	AccountLast4       extractedField `json:"account_last4"`
	RegistrationNumber extractedField `json:"registration_number"`
	PeriodStart        extractedField `json:"period_start"`
	PeriodEnd          extractedField `json:"period_end"`
	LogoPresent        extractedBool  `json:"logo_present"`
}

var fieldSchema = map[string]any{
	"type":     "object",
	"required": []string{"found"},
	"properties": map[string]any{
		"found":      map[string]any{"type": "boolean"},
		"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
	},
}

var profileSchema = perception.MustCompileSchema(map[string]any{
	"type": "object",
	"required": []string{
		"business_name", "address", "institution", "account_last4",
		"period_start", "period_end", "logo_present",
	},
	"properties": map[string]any{
		"business_name":       fieldSchema,
		"address":             fieldSchema,
		"institution":         fieldSchema,
		"account_last4":       fieldSchema,
		"registration_number": fieldSchema,
		"period_start":        fieldSchema,
		"period_end":          fieldSchema,
		"logo_present":        fieldSchema,
	},
})

func (e *Extractor) extractProfile(ctx context.Context, images [][]byte, out *model.BusinessProfile) error {
	var reply profileReply
	err := e.client.CompleteJSON(ctx, perception.Request{
		Task:   "extract-profile",
		Prompt: profilePrompt,
		Images: images,
	}, profileSchema, &reply)
	if err != nil {
		return err
	}

	out.BusinessName = stringField(reply.BusinessName)
	out.Address = stringField(reply.Address)
	out.Institution = stringField(reply.Institution)
	out.AccountNumber = stringField(reply.AccountLast4)
	out.RegistrationNumber = stringField(reply.RegistrationNumber)
	out.PeriodStart = dateField(reply.PeriodStart)
	out.PeriodEnd = dateField(reply.PeriodEnd)
	if reply.LogoPresent.Found {
		out.LogoPresent = model.FieldOf(reply.LogoPresent.Value, reply.LogoPresent.Confidence)
	}
	return nil
}

const financialPromptFmt = `This is page %d of a business bank statement. Extract every financial figure visible on THIS PAGE ONLY:

1. Opening/brought-forward balance shown on this page, if any
2. Closing/carried-forward balance shown on this page, if any
3. Every transaction row, in the order printed, with:
   - date (YYYY-MM-DD)
   - description
   - amount as printed (negative or parenthesised for debits, positive for credits)
   - running balance as printed, or "" if the statement shows none

Do not invent rows, do not reorder, do not deduplicate.

Return JSON:
{
  "opening_balance": {"value": "...", "found": bool, "confidence": n},
  "closing_balance": {"value": "...", "found": bool, "confidence": n},
  "transactions": [{"date": "...", "description": "...", "amount": "...", "running_balance": "..."}],
  "confidence": n
}`

type transactionReply struct {
	Date           string `json:"date"`
	Description    string `json:"description"`
	Amount         string `json:"amount"`
	RunningBalance string `json:"running_balance"`
}

type financialReply struct {
	OpeningBalance extractedField     `json:"opening_balance"`
	ClosingBalance extractedField     `json:"closing_balance"`
	Transactions   []transactionReply `json:"transactions"`
	Confidence     float64            `json:"confidence"`
}

var financialSchema = perception.MustCompileSchema(map[string]any{
	"type":     "object",
	"required": []string{"opening_balance", "closing_balance", "transactions"},
	"properties": map[string]any{
		"opening_balance": fieldSchema,
		"closing_balance": fieldSchema,
		"confidence":      map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		"transactions": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"date", "description", "amount"},
				"properties": map[string]any{
					"date":            map[string]any{"type": "string"},
					"description":     map[string]any{"type": "string"},
					"amount":          map[string]any{"type": "string"},
					"running_balance": map[string]any{"type": "string"},
				},
			},
		},
	},
})

// extractFinancial walks the pages in order. Per-page failures degrade to
// notes; statement-level opening comes from the first page reporting one and
// closing from the last.
func (e *Extractor) extractFinancial(ctx context.Context, doc *model.Document, images [][]byte, res *Result) {
	log := logger.FromContext(ctx)

	for i, img := range images {
		var reply financialReply
		err := e.client.CompleteJSON(ctx, perception.Request{
			Task:   fmt.Sprintf("extract-financial-p%d", i),
			Prompt: fmt.Sprintf(financialPromptFmt, i+1),
			Images: [][]byte{img},
		}, financialSchema, &reply)
		if err != nil {
			log.Warn().Err(err).Int("page", i).Msg("financial extraction failed for page")
			res.Notes = append(res.Notes, fmt.Sprintf("page %d: financial extraction failed: %v", i+1, err))
			continue
		}

		if f, ok := moneyField(reply.OpeningBalance); ok && !res.Balances.Opening.Present {
			res.Balances.Opening = f
		}
		if f, ok := moneyField(reply.ClosingBalance); ok {
			res.Balances.Closing = f // last page reporting one wins
		}

		for _, tx := range reply.Transactions {
			amount, err := money.Parse(tx.Amount)
			if err != nil {
				res.Notes = append(res.Notes,
					fmt.Sprintf("page %d: dropped line %q: %v", i+1, tx.Description, err))
				continue
			}
			t := model.Transaction{
				Description: tx.Description,
				Amount:      amount,
				Page:        i,
			}
			if parsed, err := time.Parse(dateLayout, tx.Date); err == nil {
				t.Date = parsed
			} else {
				t.RawDate = tx.Date
			}
			if tx.RunningBalance != "" {
				if rb, err := money.Parse(tx.RunningBalance); err == nil {
					t.RunningBalance = &rb
				}
			}
			res.Transactions = append(res.Transactions, t)
		}
	}
}

// countContinuityBreaks checks that the last running balance on page k lines
// up with the first on page k+1. A break is evidence, never a blocker.
func countContinuityBreaks(res *Result) int {
	type pageEdge struct {
		first, last *decimal.Decimal
		firstAmt    decimal.Decimal
	}
	edges := map[int]*pageEdge{}
	for i := range res.Transactions {
		tx := &res.Transactions[i]
		if tx.RunningBalance == nil {
			continue
		}
		e, ok := edges[tx.Page]
		if !ok {
			e = &pageEdge{}
			edges[tx.Page] = e
		}
		if e.first == nil {
			e.first = tx.RunningBalance
			e.firstAmt = tx.Amount
		}
		e.last = tx.RunningBalance
	}

	breaks := 0
	for page, e := range edges {
		next, ok := edges[page+1]
		if !ok || e.last == nil || next.first == nil {
			continue
		}
		expected := e.last.Add(next.firstAmt)
		if !expected.Equal(*next.first) {
			breaks++
			res.Notes = append(res.Notes, fmt.Sprintf(
				"balance continuity break between pages %d and %d: %s then %s",
				page+1, page+2, e.last, next.first))
		}
	}
	return breaks
}

func stringField(f extractedField) model.Field[string] {
	if !f.Found || f.Value == "" {
		return model.Absent[string]()
	}
	return model.FieldOf(f.Value, f.Confidence)
}

func dateField(f extractedField) model.Field[time.Time] {
	if !f.Found {
		return model.Absent[time.Time]()
	}
	t, err := time.Parse(dateLayout, f.Value)
	if err != nil {
		return model.Absent[time.Time]()
	}
	return model.FieldOf(t, f.Confidence)
}

func moneyField(f extractedField) (model.Field[decimal.Decimal], bool) {
	if !f.Found {
		return model.Absent[decimal.Decimal](), false
	}
	d, err := money.Parse(f.Value)
	if err != nil {
		return model.Absent[decimal.Decimal](), false
	}
	return model.FieldOf(d, f.Confidence), true
}

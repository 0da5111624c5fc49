package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/doclab/doclab/internal/core/domain"
)

// ResultMapper turns a raw analyzer response into summary/field drafts.
// It is pure: no persistence, no network.
type ResultMapper struct{}

// ToSummary prefers the analyzer-supplied title; otherwise it derives one from
// the original filename with the extension after the last dot stripped, and
// falls back to "Untitled" for blank filenames.
func (ResultMapper) ToSummary(doc *domain.Document, resp *domain.AnalysisResult) domain.SummaryDraft {
	title := ""
	if resp != nil {
		title = strings.TrimSpace(resp.Title)
	}
	if title == "" {
		base := doc.FileName
		if i := strings.LastIndex(base, "."); i >= 0 {
			base = base[:i]
		}
		if strings.TrimSpace(base) == "" {
			base = "Untitled"
		}
		title = base
	}

	text := ""
	if resp != nil {
		text = resp.Summary
	}
	return domain.SummaryDraft{Title: title, SummaryText: text}
}

// Canonical labels recognized by the heuristics below.
const (
	labelLender        = "LENDER"
	labelBorrower      = "BORROWER"
	labelEffectiveDate = "EFFECTIVE_DATE"
	labelGoverningLaw  = "GOVERNING_LAW"
	labelPrincipal     = "PRINCIPAL_AMOUNT"
	labelInterestRate  = "INTEREST_RATE"
	labelLateFee       = "LATE_FEE"
	labelMaxAddlDebt   = "MAXIMUM_ADDITIONAL_DEBT"
	labelGracePeriod   = "GRACE_PERIOD"
	labelDefaultNotice = "DEFAULT_NOTICE_PERIOD"
	labelLenderAddress = "LENDER_ADDRESS"
	labelBorrowerPlace = "BORROWER_LOCATION"
)

// ToFields builds the replacement field set for one processing pass.
// Explicit "Label: value" lines in the summary text win over entity heuristics;
// recognized NER labels (MONEY/PERCENT/DATE/GPE) map to canonical field names,
// any other non-blank entity keeps its own label. First value per label wins,
// blank labels or values are dropped. Page numbers are unknown at this stage.
func (ResultMapper) ToFields(doc *domain.Document, resp *domain.AnalysisResult) []domain.FieldDraft {
	if resp == nil {
		return nil
	}

	set := newFieldSet()
	summary := resp.Summary

	set.put(labelLender, extractAfterLabel(summary, "Lender"))
	set.put(labelBorrower, extractAfterLabel(summary, "Borrower"))
	set.put(labelEffectiveDate, extractAfterLabel(summary, "Effective Date"))
	set.put(labelGoverningLaw, extractByKeyphrase(summary, "Governing Law"))
	set.put(labelGracePeriod, extractByKeyphrase(summary, "Grace Period"))
	set.put(labelDefaultNotice, extractByKeyphrase(summary, "Default Notice Period"))
	set.put(labelLenderAddress, extractByKeyphrase(summary, "Lender Address"))
	set.put(labelBorrowerPlace, extractByKeyphrase(summary, "Borrower Location"))

	lowerSummary := strings.ToLower(summary)
	for _, entity := range resp.Entities {
		label := strings.TrimSpace(entity.Label)
		text := strings.TrimSpace(entity.Text)
		if label == "" || text == "" {
			continue
		}

		switch strings.ToUpper(label) {
		case "MONEY":
			money := normalizeMoney(text)
			switch {
			case strings.Contains(lowerSummary, "late fee") && !set.has(labelLateFee):
				set.put(labelLateFee, money)
			case strings.Contains(lowerSummary, "maximum additional debt") && !set.has(labelMaxAddlDebt):
				set.put(labelMaxAddlDebt, money)
			default:
				set.put(labelPrincipal, money)
			}
		case "PERCENT":
			set.put(labelInterestRate, normalizePercent(text))
		case "DATE":
			set.put(labelEffectiveDate, text)
		case "GPE":
			set.put(labelGoverningLaw, text)
		default:
			set.put(strings.ToUpper(label), text)
		}
	}

	drafts := make([]domain.FieldDraft, 0, len(set.order))
	for _, label := range set.order {
		drafts = append(drafts, domain.FieldDraft{
			FieldName:  label,
			FieldValue: set.values[label],
		})
	}
	return drafts
}

// fieldSet is an insertion-ordered label→value map with first-wins semantics.
type fieldSet struct {
	order  []string
	values map[string]string
}

func newFieldSet() *fieldSet {
	return &fieldSet{values: make(map[string]string)}
}

func (s *fieldSet) put(label, value string) {
	if value == "" {
		return
	}
	if _, ok := s.values[label]; ok {
		return
	}
	s.order = append(s.order, label)
	s.values[label] = value
}

func (s *fieldSet) has(label string) bool {
	_, ok := s.values[label]
	return ok
}

var (
	moneyRx   = regexp.MustCompile(`\$?\s?\d{1,3}(?:,\d{3})*(?:\.\d+)?`)
	percentRx = regexp.MustCompile(`\d+(?:\.\d+)?\s?%`)
	numericRx = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

func normalizeMoney(s string) string {
	if m := moneyRx.FindString(s); m != "" {
		raw := strings.NewReplacer(",", "", "$", "", " ", "").Replace(m)
		if amount, err := strconv.ParseFloat(raw, 64); err == nil {
			return formatUSD(amount)
		}
	}
	if strings.HasPrefix(s, "$") {
		return s
	}
	return "$" + strings.Join(strings.Fields(s), "")
}

func normalizePercent(s string) string {
	if m := percentRx.FindString(s); m != "" {
		return strings.Join(strings.Fields(m), "") + " per annum"
	}
	if numericRx.MatchString(s) {
		return s + "% per annum"
	}
	return s
}

func formatUSD(amount float64) string {
	s := strconv.FormatFloat(amount, 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i := 0; i < len(whole); i++ {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(whole[i])
	}
	return "$" + b.String() + "." + frac
}

// extractAfterLabel scrapes "Label: value" lines from the summary text, value
// cut at the first sentence or line break.
func extractAfterLabel(text, label string) string {
	return scrape(text, `(?i)\b`+regexp.QuoteMeta(label)+`\s*:\s*(.+)`)
}

// extractByKeyphrase is the looser form where the colon is optional.
func extractByKeyphrase(text, key string) string {
	return scrape(text, `(?i)\b`+regexp.QuoteMeta(key)+`\b\s*:?\s*(.+)`)
}

func scrape(text, pattern string) string {
	if text == "" {
		return ""
	}
	m := regexp.MustCompile(pattern).FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(cutAt(strings.TrimSpace(m[1]), '\n', '.'))
}

func cutAt(s string, boundaries ...byte) string {
	cut := len(s)
	for _, b := range boundaries {
		if i := strings.IndexByte(s, b); i >= 0 && i < cut {
			cut = i
		}
	}
	return s[:cut]
}

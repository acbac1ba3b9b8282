package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/campus-support/internal/domain"
)

// Keyword groups for the deterministic fallback heuristics. The campus runs
// bilingual, so the lists mix Turkish and English terms.
var (
	urgencyKeywords = []string{"acil", "urgent", "kopuyor", "kilit", "down", "calismiyor"}
	delayKeywords   = []string{"yavas", "gecik", "slow"}

	internetKeywords = []string{"wifi", "internet", "lms", "vpn", "modem"}
	hardwareKeywords = []string{"projeksiyon", "monitor", "ekran", "donanim", "bilgisayar", "lab"}
	studentKeywords  = []string{"randevu", "danisman", "kayit", "transkript", "ogrenci"}
)

const (
	CategoryInternet = "Internet"
	CategoryHardware = "Donanim"
	CategoryStudent  = "Ogrenci Islemleri"
	CategoryGeneral  = "Genel"
)

var unitByCategory = map[string]string{
	CategoryInternet: "Network",
	CategoryHardware: "Donanim",
	CategoryStudent:  "OgrenciIsleri",
}

// GuessPriority maps description text to a priority by keyword matching.
// Deterministic: same input, same output.
func GuessPriority(text string) domain.TicketPriority {
	lowered := strings.ToLower(text)
	if containsAny(lowered, urgencyKeywords) {
		return domain.TicketPriorityHigh
	}
	if containsAny(lowered, delayKeywords) {
		return domain.TicketPriorityMedium
	}
	return domain.TicketPriorityLow
}

// GuessCategory maps description text to the first matching keyword group.
func GuessCategory(text string) string {
	lowered := strings.ToLower(text)
	if containsAny(lowered, internetKeywords) {
		return CategoryInternet
	}
	if containsAny(lowered, hardwareKeywords) {
		return CategoryHardware
	}
	if containsAny(lowered, studentKeywords) {
		return CategoryStudent
	}
	return CategoryGeneral
}

// UnitForCategory maps a category to the organizational unit handling it.
func UnitForCategory(category string) string {
	if unit, ok := unitByCategory[category]; ok {
		return unit
	}
	return CategoryGeneral
}

func containsAny(lowered string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// Classification is the triage result for a ticket description.
type Classification struct {
	Category string
	Priority domain.TicketPriority
	Unit     string
	UsedAI   bool
}

// Classifier combines the oracle with the heuristic fallback. It never
// fails: any oracle error degrades to the deterministic guess.
type Classifier struct {
	oracle Oracle
}

// NewClassifier constructs a classifier over the given oracle.
func NewClassifier(oracle Oracle) *Classifier {
	return &Classifier{oracle: oracle}
}

// Classify produces category, priority and routing unit for a description.
// The oracle answer is expected as "category, priority"; anything else
// falls back to the heuristics field by field.
func (c *Classifier) Classify(ctx context.Context, description string) Classification {
	category := ""
	priority := domain.TicketPriority("")
	usedAI := false

	prompt := fmt.Sprintf("Ticket aciklamasina gore kategori ve oncelik belirle: %s. Sonuc: kategori, oncelik.", description)
	if text, err := c.oracle.Complete(ctx, prompt, "classify"); err == nil && strings.Contains(text, ",") {
		parts := strings.SplitN(text, ",", 2)
		category = strings.TrimSpace(parts[0])
		priority = domain.TicketPriority(strings.ToLower(strings.TrimSpace(parts[1])))
		usedAI = true
	}

	if category == "" {
		category = GuessCategory(description)
	}
	if !domain.ValidPriority(priority) {
		priority = GuessPriority(description)
	}

	return Classification{
		Category: category,
		Priority: priority,
		Unit:     UnitForCategory(category),
		UsedAI:   usedAI,
	}
}

// Suggest returns the category/priority pair for the suggestion endpoint.
// The oracle only ever substitutes the category; the priority is always the
// heuristic guess.
func (c *Classifier) Suggest(ctx context.Context, description string) (string, domain.TicketPriority, bool) {
	prompt := fmt.Sprintf("Ticket aciklamasina gore kategori ve oncelik oner: %s\nYanit sadece kategori ve oncelik olsun.", description)
	if text, err := c.oracle.Complete(ctx, prompt, "suggest"); err == nil && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text), GuessPriority(description), true
	}
	return GuessCategory(description), GuessPriority(description), false
}

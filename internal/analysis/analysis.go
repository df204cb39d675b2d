// Package analysis stands in for the image-understanding pipeline: it assigns
// a category, a severity, a canned description and a neighbourhood label to a
// new complaint.
package analysis

import (
	"context"
	"math/rand/v2"
	"strings"

	"nagarneuron/backend/internal/models"
)

// Classifier assigns a category and a 0-100 confidence to a report.
// Implementations backed by a real model can replace KeywordClassifier.
type Classifier interface {
	Classify(ctx context.Context, image, notes string) (models.Category, int, error)
}

// IntN returns a pseudo-random int in [0, n).
type IntN func(n int) int

type keywordRule struct {
	category models.Category
	words    []string
}

// Rules are checked in order, first hit wins.
var keywordRules = []keywordRule{
	{models.CategoryPothole, []string{"pothole", "hole", "crack", "road damage"}},
	{models.CategoryGarbage, []string{"garbage", "trash", "waste", "litter"}},
	{models.CategoryStreetlight, []string{"streetlight", "light", "lamp", "dark"}},
	{models.CategoryDrainage, []string{"drain", "sewer", "water", "flood"}},
}

// KeywordClassifier matches keywords in the user's notes and ignores the
// image. Without notes it picks a category at random.
type KeywordClassifier struct {
	rand IntN
}

// NewKeywordClassifier uses r for every random choice; nil means math/rand/v2.
func NewKeywordClassifier(r IntN) *KeywordClassifier {
	if r == nil {
		r = rand.IntN
	}
	return &KeywordClassifier{rand: r}
}

func (k *KeywordClassifier) Classify(ctx context.Context, image, notes string) (models.Category, int, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	notes = strings.TrimSpace(notes)
	if notes == "" {
		c := models.Categories[k.rand(len(models.Categories))]
		return c, 50 + k.rand(21), nil
	}
	return CategorizeNotes(notes), 85 + k.rand(15), nil
}

// CategorizeNotes maps free text to a category, "other" when nothing matches.
func CategorizeNotes(notes string) models.Category {
	lower := strings.ToLower(notes)
	for _, r := range keywordRules {
		for _, w := range r.words {
			if strings.Contains(lower, w) {
				return r.category
			}
		}
	}
	return models.CategoryOther
}

// AssessSeverity draws high 30%, medium 40%, low 30%.
func AssessSeverity(r IntN) models.Severity {
	if r == nil {
		r = rand.IntN
	}
	switch n := r(100); {
	case n < 30:
		return models.SeverityHigh
	case n < 70:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

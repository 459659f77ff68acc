package recipe

import (
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
)

const (
	MinServingSize = 1
	MaxServingSize = 10
)

// Recipe is the only domain entity. ID is the store-assigned document id and
// is never written into the document body.
type Recipe struct {
	ID               string   `json:"id" firestore:"-"`
	Name             string   `json:"name" firestore:"name" validate:"required"`
	Ingredients      []string `json:"ingredients" firestore:"ingredients"`
	PreparationSteps []string `json:"preparationSteps" firestore:"preparationSteps"`
	CookingTime      string   `json:"cookingTime" firestore:"cookingTime"`
	ServingSize      int      `json:"servingSize" firestore:"servingSize" validate:"min=1,max=10"`
	Image            string   `json:"image" firestore:"image"`
}

var validate = validator.New()

// New returns a draft with the smallest valid serving size and empty lists.
func New(name string) Recipe {
	return Recipe{
		Name:             name,
		Ingredients:      []string{},
		PreparationSteps: []string{},
		ServingSize:      MinServingSize,
	}
}

// DocumentID implements docstore.Record.
func (r Recipe) DocumentID() string {
	return r.ID
}

// WithDocumentID implements docstore.Record.
func (r Recipe) WithDocumentID(id string) Recipe {
	r.ID = id
	return r
}

// Validate checks the struct tags.
func (r Recipe) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("recipe %q: %w", r.Name, err)
	}
	return nil
}

// ApplyDefaults sets fallback values after decode.
func (r *Recipe) ApplyDefaults() {
	if r.Ingredients == nil {
		r.Ingredients = []string{}
	}
	if r.PreparationSteps == nil {
		r.PreparationSteps = []string{}
	}
}

// AddIngredient appends an unfilled ingredient slot.
func (r *Recipe) AddIngredient() {
	r.Ingredients = append(r.Ingredients, "")
}

// AddStep appends an unfilled preparation step.
func (r *Recipe) AddStep() {
	r.PreparationSteps = append(r.PreparationSteps, "")
}

// Fields returns every document field, used as the merge set for updates.
func (r Recipe) Fields() map[string]any {
	r.ApplyDefaults()
	return map[string]any{
		"name":             r.Name,
		"ingredients":      slices.Clone(r.Ingredients),
		"preparationSteps": slices.Clone(r.PreparationSteps),
		"cookingTime":      r.CookingTime,
		"servingSize":      r.ServingSize,
		"image":            r.Image,
	}
}

// Clone deep-copies the slices so callers never share backing arrays with the cache.
func (r Recipe) Clone() Recipe {
	r.Ingredients = slices.Clone(r.Ingredients)
	r.PreparationSteps = slices.Clone(r.PreparationSteps)
	r.ApplyDefaults()
	return r
}

// Equal compares every field including ID.
func (r Recipe) Equal(o Recipe) bool {
	return r.ID == o.ID &&
		r.Name == o.Name &&
		slices.Equal(r.Ingredients, o.Ingredients) &&
		slices.Equal(r.PreparationSteps, o.PreparationSteps) &&
		r.CookingTime == o.CookingTime &&
		r.ServingSize == o.ServingSize &&
		r.Image == o.Image
}

// SameContent compares everything but ID.
func (r Recipe) SameContent(o Recipe) bool {
	o.ID = r.ID
	return r.Equal(o)
}

// CloneAll deep-copies a list.
func CloneAll(list []Recipe) []Recipe {
	out := make([]Recipe, len(list))
	for i := range list {
		out[i] = list[i].Clone()
	}
	return out
}

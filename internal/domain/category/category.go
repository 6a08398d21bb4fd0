package category

import "fmt"

// Category identifies a leave category. The set is fixed: balances exist for
// every category from onboarding, and the ledger dispatches on granularity
// rather than on the raw identifier.
type Category string

const (
	Short             Category = "short"
	HalfDay           Category = "half_day"
	Casual            Category = "casual"
	Medical           Category = "medical"
	Compensatory      Category = "compensatory"
	Earned            Category = "earned"
	WithoutPay        Category = "without_pay"
	Academic          Category = "academic"
	GrantedAdjustment Category = "granted_adjustment"
)

// Granularity describes how much of a day an entry blocks.
type Granularity int

const (
	FullDay Granularity = iota
	HalfDayPart
	SubDayRange
)

type attributes struct {
	granularity Granularity
	dayWeight   float64
	aggregate   bool
}

var catalog = map[Category]attributes{
	Short:        {SubDayRange, 1.0 / 3.0, true},
	HalfDay:      {HalfDayPart, 0.5, true},
	Casual:       {FullDay, 1.0, true},
	Medical:      {FullDay, 1.0, true},
	Compensatory: {FullDay, 1.0, true},
	Earned:       {FullDay, 1.0, true},
	WithoutPay:   {FullDay, 1.0, true},
	Academic:     {FullDay, 1.0, false},
	// The adjustment pseudo-category is a balance credit bucket, not a leave
	// day; it never produces entries but it does count toward the aggregate.
	GrantedAdjustment: {FullDay, 1.0, true},
}

// ordered listing for stable seeds, reports and snapshots.
var ordered = []Category{
	Short,
	HalfDay,
	Casual,
	Medical,
	Compensatory,
	Earned,
	WithoutPay,
	Academic,
	GrantedAdjustment,
}

func (c Category) Valid() bool {
	_, ok := catalog[c]
	return ok
}

func (c Category) Granularity() Granularity {
	return catalog[c].granularity
}

// DayWeight converts one unit of this category into institutional leave days.
func (c Category) DayWeight() float64 {
	return catalog[c].dayWeight
}

// CountsTowardAggregate reports whether the category contributes to the
// aggregate remaining-days figure. False only for academic leave.
func (c Category) CountsTowardAggregate() bool {
	return catalog[c].aggregate
}

func Parse(value string) (Category, error) {
	c := Category(value)
	if !c.Valid() {
		return "", fmt.Errorf("unknown leave category %q", value)
	}
	return c, nil
}

// All returns every category, adjustment bucket included, in stable order.
func All() []Category {
	out := make([]Category, len(ordered))
	copy(out, ordered)
	return out
}

// Bookable returns the categories that produce leave entries.
func Bookable() []Category {
	out := make([]Category, 0, len(ordered)-1)
	for _, c := range ordered {
		if c == GrantedAdjustment {
			continue
		}
		out = append(out, c)
	}
	return out
}

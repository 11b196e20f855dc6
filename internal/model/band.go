package model

// RiskBand groups applications by credit score.
type RiskBand string

// Risk bands, ordered from highest to lowest risk.
const (
	RiskSubprime   RiskBand = "subprime"
	RiskNearPrime  RiskBand = "near_prime"
	RiskPrime      RiskBand = "prime"
	RiskSuperPrime RiskBand = "super_prime"
)

// IncomeBand groups applications by annual income.
type IncomeBand string

// Income bands, ordered low to high.
const (
	IncomeUnder30K IncomeBand = "under_30k"
	Income30To60K  IncomeBand = "30k_60k"
	Income60To100K IncomeBand = "60k_100k"
	IncomeOver100K IncomeBand = "over_100k"
)

// AmountBand groups applications by requested loan amount.
type AmountBand string

// Amount bands, ordered low to high.
const (
	AmountMicro    AmountBand = "micro"
	AmountSmall    AmountBand = "small"
	AmountStandard AmountBand = "standard"
	AmountJumbo    AmountBand = "jumbo"
)

// TermBand groups applications by loan duration.
type TermBand string

// Term bands, ordered short to long.
const (
	TermShort    TermBand = "short"
	TermMedium   TermBand = "medium"
	TermLong     TermBand = "long"
	TermExtended TermBand = "extended"
)

// Ordered band values per group. Reports and feature encoding rely on these
// orderings, so they must match the breakpoint tables in the bands package.
var (
	RiskBands   = []RiskBand{RiskSubprime, RiskNearPrime, RiskPrime, RiskSuperPrime}
	IncomeBands = []IncomeBand{IncomeUnder30K, Income30To60K, Income60To100K, IncomeOver100K}
	AmountBands = []AmountBand{AmountMicro, AmountSmall, AmountStandard, AmountJumbo}
	TermBands   = []TermBand{TermShort, TermMedium, TermLong, TermExtended}
)

// Order returns the band's position in its group's ordering, or -1 for an
// unknown value.
func (b RiskBand) Order() int { return indexOf(RiskBands, b) }

// Valid reports whether the band is a known value.
func (b RiskBand) Valid() bool { return b.Order() >= 0 }

// Order returns the band's position in its group's ordering, or -1 for an
// unknown value.
func (b IncomeBand) Order() int { return indexOf(IncomeBands, b) }

// Valid reports whether the band is a known value.
func (b IncomeBand) Valid() bool { return b.Order() >= 0 }

// Order returns the band's position in its group's ordering, or -1 for an
// unknown value.
func (b AmountBand) Order() int { return indexOf(AmountBands, b) }

// Valid reports whether the band is a known value.
func (b AmountBand) Valid() bool { return b.Order() >= 0 }

// Order returns the band's position in its group's ordering, or -1 for an
// unknown value.
func (b TermBand) Order() int { return indexOf(TermBands, b) }

// Valid reports whether the band is a known value.
func (b TermBand) Valid() bool { return b.Order() >= 0 }

func indexOf[T comparable](values []T, v T) int {
	for i, candidate := range values {
		if candidate == v {
			return i
		}
	}
	return -1
}

// Bands holds the four derived categorical bands for one application.
type Bands struct {
	Risk   RiskBand
	Income IncomeBand
	Amount AmountBand
	Term   TermBand
}

// Valid reports whether every band is a known value. Bands derived in-process
// are always valid; rows pulled back from a staging store may not be.
func (b Bands) Valid() bool {
	return b.Risk.Valid() && b.Income.Valid() && b.Amount.Valid() && b.Term.Valid()
}

package engine

// Strategy is the way a dynasty member's children are generated. The
// strategy is chosen from the member's birth day alone.
type Strategy uint8

const (
	// StrategyMainline produces only the line of male heirs.
	StrategyMainline Strategy = iota
	// StrategyMaleOnly marries the member and materializes his sons.
	StrategyMaleOnly
	// StrategyNormal marries the member and materializes all children.
	StrategyNormal
)

var strategyNames = [...]string{"mainline", "male-only", "normal"}

func (s Strategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return "unknown"
}

// SelectStrategy picks the strategy for someone born on birthDay given the
// two switch-over days.
func SelectStrategy(birthDay, maleOnlyStart, normalStart int) Strategy {
	switch {
	case birthDay < maleOnlyStart:
		return StrategyMainline
	case birthDay < normalStart:
		return StrategyMaleOnly
	default:
		return StrategyNormal
	}
}

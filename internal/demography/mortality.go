package demography

import "github.com/talgya/dynasty-gen/internal/entropy"

// DrawAgeAtDeath draws an age at death in whole years from the profile.
// The early/normal branch always consumes one draw; the age consumes another
// unless the chosen range holds a single age.
func DrawAgeAtDeath(p MortalityProfile, rng *entropy.Stream) int {
	if rng.Bernoulli(p.EarlyProbability) {
		return rng.IntRange(p.EarlyRange.Low, p.EarlyRange.High)
	}
	return rng.IntRange(p.NormalRange.Low, p.NormalRange.High)
}

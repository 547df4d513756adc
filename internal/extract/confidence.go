package extract

// Confidence adjustments, one named function per validation rule. The
// multipliers are a tuned reliability heuristic, not a probabilistic model;
// keeping each behind its own function lets them move independently.
// Adjustments compound: a result violating several rules is penalized by the
// product of their multipliers.

// penalizeBelowJackRange applies when fewer pipe jacks were found than the
// roof area suggests.
func penalizeBelowJackRange(c float32) float32 { return c * 0.8 }

// penalizeAboveJackRange applies when more pipe jacks were found than the
// roof area suggests.
func penalizeAboveJackRange(c float32) float32 { return c * 0.9 }

// penalizeStructureDeficit applies when the jack count can't cover the
// detected building structures (at least 2 per structure).
func penalizeStructureDeficit(c float32) float32 { return c * 0.85 }

// penalizeRidgeOverrun applies when extracted ridge vent footage exceeds 110%
// of the measured ridge length.
func penalizeRidgeOverrun(c float32) float32 { return c * 0.85 }

package storyweave

import "github.com/tanema/gween/ease"

// Easing is a closed enum of the easing families osu! storyboard commands
// use. Fusion treats Easing purely as a comparable tag — it never evaluates
// the underlying curve — so the enum, not a bare [ease.TweenFunc], is what
// flows through [Command]. Downstream consumers that do want to sample a
// command's value at a point in time (a preview player, out of scope here)
// can get the real curve back via [Easing.Func].
type Easing int

const (
	EaseLinear Easing = iota
	EaseInQuad
	EaseOutQuad
	EaseInOutQuad
	EaseInCubic
	EaseOutCubic
	EaseInOutCubic
	EaseInQuart
	EaseOutQuart
	EaseInOutQuart
	EaseInQuint
	EaseOutQuint
	EaseInOutQuint
	EaseInSine
	EaseOutSine
	EaseInOutSine
	EaseInExpo
	EaseOutExpo
	EaseInOutExpo
	EaseInCirc
	EaseOutCirc
	EaseInOutCirc
	EaseInBack
	EaseOutBack
	EaseInOutBack
	EaseInElastic
	EaseOutElastic
	EaseInOutElastic
	EaseInBounce
	EaseOutBounce
	EaseInOutBounce
)

var easingNames = map[Easing]string{
	EaseLinear:      "Linear",
	EaseInQuad:      "InQuad",
	EaseOutQuad:     "OutQuad",
	EaseInOutQuad:   "InOutQuad",
	EaseInCubic:     "InCubic",
	EaseOutCubic:    "OutCubic",
	EaseInOutCubic:  "InOutCubic",
	EaseInQuart:     "InQuart",
	EaseOutQuart:    "OutQuart",
	EaseInOutQuart:  "InOutQuart",
	EaseInQuint:     "InQuint",
	EaseOutQuint:    "OutQuint",
	EaseInOutQuint:  "InOutQuint",
	EaseInSine:      "InSine",
	EaseOutSine:     "OutSine",
	EaseInOutSine:   "InOutSine",
	EaseInExpo:      "InExpo",
	EaseOutExpo:     "OutExpo",
	EaseInOutExpo:   "InOutExpo",
	EaseInCirc:      "InCirc",
	EaseOutCirc:     "OutCirc",
	EaseInOutCirc:   "InOutCirc",
	EaseInBack:      "InBack",
	EaseOutBack:     "OutBack",
	EaseInOutBack:   "InOutBack",
	EaseInElastic:   "InElastic",
	EaseOutElastic:  "OutElastic",
	EaseInOutElastic: "InOutElastic",
	EaseInBounce:    "InBounce",
	EaseOutBounce:   "OutBounce",
	EaseInOutBounce: "InOutBounce",
}

var easingFuncs = map[Easing]ease.TweenFunc{
	EaseLinear:       ease.Linear,
	EaseInQuad:       ease.InQuad,
	EaseOutQuad:      ease.OutQuad,
	EaseInOutQuad:    ease.InOutQuad,
	EaseInCubic:      ease.InCubic,
	EaseOutCubic:     ease.OutCubic,
	EaseInOutCubic:   ease.InOutCubic,
	EaseInQuart:      ease.InQuart,
	EaseOutQuart:     ease.OutQuart,
	EaseInOutQuart:   ease.InOutQuart,
	EaseInQuint:      ease.InQuint,
	EaseOutQuint:     ease.OutQuint,
	EaseInOutQuint:   ease.InOutQuint,
	EaseInSine:       ease.InSine,
	EaseOutSine:      ease.OutSine,
	EaseInOutSine:    ease.InOutSine,
	EaseInExpo:       ease.InExpo,
	EaseOutExpo:      ease.OutExpo,
	EaseInOutExpo:    ease.InOutExpo,
	EaseInCirc:       ease.InCirc,
	EaseOutCirc:      ease.OutCirc,
	EaseInOutCirc:    ease.InOutCirc,
	EaseInBack:       ease.InBack,
	EaseOutBack:      ease.OutBack,
	EaseInOutBack:    ease.InOutBack,
	EaseInElastic:    ease.InElastic,
	EaseOutElastic:   ease.OutElastic,
	EaseInOutElastic: ease.InOutElastic,
	EaseInBounce:     ease.InBounce,
	EaseOutBounce:    ease.OutBounce,
	EaseInOutBounce:  ease.InOutBounce,
}

// String returns the canonical osu!-storyboard-style name for the easing.
func (e Easing) String() string {
	if name, ok := easingNames[e]; ok {
		return name
	}
	return "Linear"
}

// Func returns the gween easing curve this tag refers to. Fusion never
// calls this; it exists for downstream value-sampling consumers.
func (e Easing) Func() ease.TweenFunc {
	if fn, ok := easingFuncs[e]; ok {
		return fn
	}
	return ease.Linear
}

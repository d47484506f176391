package storyweave

// RebuildSpriteTimeline replaces sprite's command list with fused and, if
// sprite also implements [DisplayRebuildable], asks it to rebuild its
// derived display state from the new list. A sprite that doesn't implement
// the capability simply gets its command list replaced — this never
// panics on absent derived state, matching the spec's "no-op for absent
// fields" failure mode.
func RebuildSpriteTimeline(sprite SpriteLike, fused []Command) {
	sprite.SetCommands(fused)
	if rebuildable, ok := sprite.(DisplayRebuildable); ok {
		rebuildable.RebuildDisplayState(fused)
	}
}

// displaySection is one contiguous run of same-kind commands as surfaced to
// a renderer: a family key, the spanned time range, and whether any member
// command within it reported MixedEasing.
type displaySection struct {
	Family      string
	StartTime   float64
	EndTime     float64
	MixedEasing bool
}

// BasicSprite is a minimal concrete [SpriteLike] implementing
// [DisplayRebuildable], usable directly in tests or as a starting point for
// a richer sprite type. It groups fused commands into per-kind-family
// display sections, tracks whether any command group carries a trigger, and
// caches the overall start/end cumulants derived from the current command
// list.
type BasicSprite struct {
	startTime float64
	endTime   float64
	commands  []Command

	Sections   []displaySection
	HasTrigger bool
	CumStart   float64
	CumEnd     float64
}

// NewBasicSprite returns a sprite with the given initial (start, end) bounds
// and no commands.
func NewBasicSprite(startTime, endTime float64) *BasicSprite {
	return &BasicSprite{startTime: startTime, endTime: endTime}
}

func (s *BasicSprite) StartTime() float64 { return s.startTime }
func (s *BasicSprite) EndTime() float64   { return s.endTime }

// Commands returns the sprite's current command list. Callers must not
// mutate the returned slice.
func (s *BasicSprite) Commands() []Command { return s.commands }

// SetCommands replaces the sprite's command list. It does not by itself
// rebuild derived display state — that's RebuildDisplayState's job, called
// separately by [RebuildSpriteTimeline].
func (s *BasicSprite) SetCommands(commands []Command) {
	s.commands = commands
}

// RebuildDisplayState regroups commands into contiguous per-kind-family
// display sections, recomputes HasTrigger and the start/end cumulants.
// Command groups (loop/trigger) contribute their own family section plus,
// recursively, sections for their Inner timeline; a trigger group also sets
// HasTrigger.
func (s *BasicSprite) RebuildDisplayState(commands []Command) {
	s.Sections = s.Sections[:0]
	s.HasTrigger = false

	if len(commands) == 0 {
		s.CumStart = 0
		s.CumEnd = 0
		return
	}

	cumStart := commands[0].StartTime
	cumEnd := commands[0].EndTime

	for _, cmd := range commands {
		if cmd.StartTime < cumStart {
			cumStart = cmd.StartTime
		}
		if cmd.EndTime > cumEnd {
			cumEnd = cmd.EndTime
		}
		s.appendSection(cmd)
	}

	s.CumStart = cumStart
	s.CumEnd = cumEnd
}

func (s *BasicSprite) appendSection(cmd Command) {
	if cmd.Kind == KindTriggerGroup {
		s.HasTrigger = true
	}
	if cmd.IsGroup() {
		for _, inner := range cmd.Inner {
			s.appendSection(inner)
		}
	}

	family := string(cmd.Kind)
	if n := len(s.Sections); n > 0 && s.Sections[n-1].Family == family {
		last := &s.Sections[n-1]
		if cmd.StartTime < last.StartTime {
			last.StartTime = cmd.StartTime
		}
		if cmd.EndTime > last.EndTime {
			last.EndTime = cmd.EndTime
		}
		last.MixedEasing = last.MixedEasing || cmd.MixedEasing
		return
	}

	s.Sections = append(s.Sections, displaySection{
		Family:      family,
		StartTime:   cmd.StartTime,
		EndTime:     cmd.EndTime,
		MixedEasing: cmd.MixedEasing,
	})
}

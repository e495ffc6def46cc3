package nanohs

import "github.com/sirupsen/logrus"

// gcBits is the one byte of mark-and-sweep metadata every Closure and
// Entry carries (original_source/rts/gc.h's GC_SEEN/GC_USED/GC_PINNED).
type gcBits byte

const (
	gcSeen   gcBits = 1 << iota // transient mark-phase visited bit
	gcUsed                      // on the call stack / being manipulated right now
	gcPinned                    // held by an external root
)

// gcReferred is the set of bits that make an object a GC root: anything
// USED or PINNED is reachable regardless of whether anything else points
// to it (original_source/rts/gc.h's GC_REFERRED).
const gcReferred = gcUsed | gcPinned

// GC owns the two live-object lists (closures and entries) and implements
// an allocation-triggered mark-and-sweep collector: it collects whenever
// the combined live count exceeds thresholdMultiplier times the size
// recorded at the last collection.
type GC struct {
	closures []*Closure
	entries  []*Entry

	lastCollection      int
	thresholdMultiplier int

	// Logger, if set, receives one structured entry per collection (size
	// before/after). The core package stays silent by default: nothing is
	// logged unless a caller sets Logger.
	Logger logrus.FieldLogger
}

// NewGC creates a GC primed from cfg's gc.threshold_multiplier and
// gc.initial_threshold settings; pass nil to use the defaults (2 and 64).
func NewGC(cfg *Config) *GC {
	mult := 2
	init := 64
	if cfg != nil {
		mult = cfg.GetInt("gc.threshold_multiplier")
		init = cfg.GetInt("gc.initial_threshold")
	}
	return &GC{thresholdMultiplier: mult, lastCollection: init}
}

// NewClosure allocates a fresh closure with the given tag, marked USED,
// first collecting if the allocation threshold has been crossed
// (original_source/rts/gc.c's new_closure).
func (gc *GC) NewClosure(tag ClosureTag) *Closure {
	gc.maybeCollect()
	c := &Closure{Tag: tag, gc: gcUsed}
	gc.closures = append(gc.closures, c)
	return c
}

// NewEntry allocates a fresh entry with the given tag, marked USED, first
// collecting if the allocation threshold has been crossed
// (original_source/rts/gc.c's new_entry).
func (gc *GC) NewEntry(tag EntryTag) *Entry {
	gc.maybeCollect()
	e := &Entry{Tag: tag, gc: gcUsed}
	gc.entries = append(gc.entries, e)
	return e
}

func (gc *GC) maybeCollect() {
	if len(gc.closures)+len(gc.entries) > gc.thresholdMultiplier*gc.lastCollection {
		gc.Collect()
	}
}

// PinClosure marks c as an external root, keeping it (and everything it
// reaches) alive across collections until UnpinClosure.
func (gc *GC) PinClosure(c *Closure) { c.gc |= gcPinned }

// UnpinClosure releases a root pinned by PinClosure.
func (gc *GC) UnpinClosure(c *Closure) { c.gc &^= gcPinned }

// UseClosure marks c as being actively manipulated (on the call stack),
// keeping it alive for the duration of that manipulation even though
// nothing in the graph points to it yet.
func (gc *GC) UseClosure(c *Closure) { c.gc |= gcUsed }

// UnuseClosure releases the USED mark set by UseClosure.
func (gc *GC) UnuseClosure(c *Closure) { c.gc &^= gcUsed }

// UseEntry and UnuseEntry are the Entry-side equivalents of UseClosure/
// UnuseClosure.
func (gc *GC) UseEntry(e *Entry)   { e.gc |= gcUsed }
func (gc *GC) UnuseEntry(e *Entry) { e.gc &^= gcUsed }

// LiveClosure reports whether c is still tracked by this GC: false once it
// has been swept. A dangling pointer to a swept object still answers this
// query correctly, which is what makes it useful as a test invariant
// (original_source/rts/gc.h's gc_live_closure).
func (gc *GC) LiveClosure(c *Closure) bool { return c.gc&gcDead == 0 }

// LiveEntry is the Entry-side equivalent of LiveClosure.
func (gc *GC) LiveEntry(e *Entry) bool { return e.gc&gcDead == 0 }

// gcDead is set on an object's metadata byte once it has been swept, so a
// stale pointer retained past a collection is still distinguishable from a
// live one by LiveClosure/LiveEntry.
const gcDead gcBits = 0x80

// Collect runs one full mark-and-sweep pass: mark from every REFERRED
// object in both lists, sweep anything left unmarked, and record the new
// live count as the basis for the next allocation threshold
// (original_source/rts/gc.c's gc_collect).
func (gc *GC) Collect() {
	before := len(gc.closures) + len(gc.entries)

	for _, c := range gc.closures {
		if c.gc&gcReferred != 0 {
			gc.walkClosure(c)
		}
	}
	for _, e := range gc.entries {
		if e.gc&gcReferred != 0 {
			gc.walkEntry(e)
		}
	}

	survivingClosures := gc.closures[:0]
	for _, c := range gc.closures {
		if c.gc&gcSeen != 0 {
			c.gc &^= gcSeen
			survivingClosures = append(survivingClosures, c)
		} else {
			c.gc = gcDead
		}
	}
	gc.closures = survivingClosures

	survivingEntries := gc.entries[:0]
	for _, e := range gc.entries {
		if e.gc&gcSeen != 0 {
			e.gc &^= gcSeen
			survivingEntries = append(survivingEntries, e)
		} else {
			e.gc = gcDead
		}
	}
	gc.entries = survivingEntries

	gc.lastCollection = len(gc.closures) + len(gc.entries)

	if gc.Logger != nil {
		gc.Logger.WithFields(logrus.Fields{
			"before": before,
			"after":  gc.lastCollection,
		}).Debug("gc: collection complete")
	}
}

func (gc *GC) walkClosure(c *Closure) {
	if c.gc&gcSeen != 0 {
		return
	}
	c.gc |= gcSeen
	switch c.Tag {
	case ClosureConstr:
		for _, f := range c.Fields {
			gc.walkClosure(f)
		}
	case ClosureThunk:
		for _, e := range c.Env {
			gc.walkClosure(e)
		}
		if c.Entry != nil {
			gc.walkEntry(c.Entry)
		}
	}
}

func (gc *GC) walkEntry(e *Entry) {
	if e.gc&gcSeen != 0 {
		return
	}
	e.gc |= gcSeen
	switch e.Tag {
	case EntryRef:
		gc.walkClosure(e.Ref)
	case EntryApply:
		gc.walkEntry(e.ApplyFun.Entry)
		gc.walkEntry(e.ApplyArg.Entry)
	case EntryCase:
		gc.walkEntry(e.CaseScrutinee.Entry)
		for _, b := range e.CaseBranches {
			gc.walkEntry(b.Entry)
		}
	case EntryLetrec:
		for _, b := range e.LetrecBindings {
			gc.walkEntry(b.Entry)
		}
		gc.walkEntry(e.LetrecBody.Entry)
	case EntryLam:
		gc.walkEntry(e.LamBody)
	}
}

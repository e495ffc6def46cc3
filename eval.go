package nanohs

import "fmt"

// Evaluator reduces closures to weak head normal form by materializing
// entries against masked environments (original_source/rts/nf.c).
type Evaluator struct {
	gc *GC
}

// NewEvaluator creates an Evaluator that allocates through gc.
func NewEvaluator(gc *GC) *Evaluator { return &Evaluator{gc: gc} }

// Reduce brings self to weak head normal form in place: a PRIM or CONSTR
// closure is already in WHNF and is left untouched; an unsaturated THUNK
// (WantArity > 0, i.e. a function value) is also already in WHNF; only a
// saturated THUNK actually materializes its entry
// (original_source/rts/nf.c's whnf_closure).
func (ev *Evaluator) Reduce(self *Closure) error {
	switch self.Tag {
	case ClosurePrim, ClosureConstr:
		return nil
	case ClosureThunk:
		if self.WantArity > 0 {
			return nil
		}
		ev.gc.UseClosure(self)
		env, ent := self.Env, self.Entry
		err := ev.materialize(self, env, ent)
		ev.gc.UnuseClosure(self)
		return err
	default:
		return EvalError{Message: fmt.Sprintf("reduce: closure with unrecognized tag %d", self.Tag)}
	}
}

// materialize evaluates ent against env, leaving the result in self in
// place. self is assumed already marked USED by the caller
// (original_source/rts/nf.c's materialize).
func (ev *Evaluator) materialize(self *Closure, env []*Closure, ent *Entry) error {
	switch ent.Tag {
	case EntryPrim:
		self.Env = env
		return ent.Prim(ev, self)

	case EntryRef:
		ref := ent.Ref
		ev.gc.UseClosure(ref)
		if err := ev.Reduce(ref); err != nil {
			return err
		}
		CopyInto(self, ref)
		ev.gc.UnuseClosure(ref)
		return nil

	case EntrySelect:
		if ent.SelectIdx >= len(env) {
			return EvalError{Message: "select: index out of range of the environment"}
		}
		target := env[ent.SelectIdx]
		ev.gc.UseClosure(target)
		if err := ev.Reduce(target); err != nil {
			return err
		}
		CopyInto(self, target)
		ev.gc.UnuseClosure(target)
		return nil

	case EntryApply:
		fun := ev.gc.NewClosure(ClosureThunk)
		fun.Env = MaskEnv(ent.ApplyFun.Mask, env)
		fun.Entry = ent.ApplyFun.Entry
		arg := ev.gc.NewClosure(ClosureThunk)
		arg.Env = MaskEnv(ent.ApplyArg.Mask, env)
		arg.Entry = ent.ApplyArg.Entry
		return ev.apply(self, fun, arg)

	case EntryCase:
		scrutinee := ev.gc.NewClosure(ClosureNull)
		ev.gc.UseClosure(scrutinee)
		scrutEnv := MaskEnv(ent.CaseScrutinee.Mask, env)
		if err := ev.materialize(scrutinee, scrutEnv, ent.CaseScrutinee.Entry); err != nil {
			return err
		}
		if scrutinee.Tag != ClosureConstr || scrutinee.WantArity != 0 {
			return EvalError{Message: "case: scrutinee is not a saturated constructor"}
		}
		if int(scrutinee.Variant) >= len(ent.CaseBranches) {
			return EvalError{Message: "case: constructor variant has no matching branch"}
		}
		branch := ent.CaseBranches[scrutinee.Variant]
		branchEnv := MaskConcatEnv(branch.Mask, env, scrutinee.Fields)
		ev.gc.UnuseClosure(scrutinee)
		return ev.materialize(self, branchEnv, branch.Entry)

	case EntryLetrec:
		bindings := make([]*Closure, len(ent.LetrecBindings))
		for i := range bindings {
			bindings[i] = ev.gc.NewClosure(ClosureNull)
		}
		for i, b := range ent.LetrecBindings {
			bindings[i].Tag = ClosureThunk
			bindings[i].WantArity = 0
			bindings[i].Env = MaskConcatEnv(b.Mask, env, bindings)
			bindings[i].Entry = b.Entry
		}
		bodyEnv := MaskConcatEnv(ent.LetrecBody.Mask, env, bindings)
		return ev.materialize(self, bodyEnv, ent.LetrecBody.Entry)

	case EntryLam:
		Erase(self)
		self.Tag = ClosureThunk
		self.WantArity = 1
		self.Entry = ent.LamBody
		self.Env = env
		return nil

	default:
		return EvalError{Message: fmt.Sprintf("materialize: entry with unrecognized tag %d", ent.Tag)}
	}
}

// apply reduces fun to WHNF and applies it to arg, leaving the result in
// self. A saturated-by-one-more-argument CONSTR or THUNK materializes
// immediately; an under-saturated one becomes a new partial application
// (original_source/rts/nf.c's apply).
func (ev *Evaluator) apply(self, fun, arg *Closure) error {
	if err := ev.Reduce(fun); err != nil {
		return err
	}
	switch fun.Tag {
	case ClosureConstr:
		if fun.WantArity == 0 {
			return EvalError{Message: "apply: constructor is already saturated"}
		}
		variant := fun.Variant
		wantArity := fun.WantArity - 1
		fields := ExtendEnv(fun.Fields, arg)
		ev.gc.UnuseClosure(fun)
		ev.gc.UnuseClosure(arg)
		Erase(self)
		self.Tag = ClosureConstr
		self.Variant = variant
		self.WantArity = wantArity
		self.Fields = fields
		return nil

	case ClosureThunk:
		if fun.WantArity == 0 {
			return EvalError{Message: "apply: function expected, got a fully reduced value"}
		}
		if fun.WantArity == 1 {
			newEnv := ExtendEnv(fun.Env, arg)
			entry := fun.Entry
			ev.gc.UnuseClosure(fun)
			ev.gc.UnuseClosure(arg)
			return ev.materialize(self, newEnv, entry)
		}
		newEnv := ExtendEnv(fun.Env, arg)
		entry := fun.Entry
		wantArity := fun.WantArity - 1
		ev.gc.UnuseClosure(fun)
		ev.gc.UnuseClosure(arg)
		Erase(self)
		self.Tag = ClosureThunk
		self.Entry = entry
		self.WantArity = wantArity
		self.Env = newEnv
		return nil

	default:
		return EvalError{Message: "apply: function expected"}
	}
}

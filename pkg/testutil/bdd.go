package testutil

import "testing"

// Scenario runs Given/When/Then steps in order as subtests of one test.
// Steps share state through the enclosing closure; once a step fails the
// remaining ones are skipped, since they depend on its outcome.
type Scenario struct {
	t      *testing.T
	failed bool
}

// Describe runs fn as a subtest named name.
func Describe(t *testing.T, name string, fn func(sc *Scenario)) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		fn(&Scenario{t: t})
	})
}

func (sc *Scenario) Given(desc string, fn func(t *testing.T)) {
	sc.t.Helper()
	sc.step("Given "+desc, fn)
}

func (sc *Scenario) When(desc string, fn func(t *testing.T)) {
	sc.t.Helper()
	sc.step("When "+desc, fn)
}

func (sc *Scenario) Then(desc string, fn func(t *testing.T)) {
	sc.t.Helper()
	sc.step("Then "+desc, fn)
}

func (sc *Scenario) step(name string, fn func(t *testing.T)) {
	sc.t.Helper()
	ok := sc.t.Run(name, func(t *testing.T) {
		if sc.failed {
			t.Skip("previous step failed")
		}
		fn(t)
	})
	if !ok {
		sc.failed = true
	}
}

package evaluator

import (
	"math"
	"testing"

	"pitlang/internal/lexer"
	"pitlang/internal/object"
	"pitlang/internal/parser"
)

func run(t *testing.T, input string) object.Object {
	t.Helper()
	p, err := parser.New(lexer.New(input), "test.pit")
	if err != nil {
		t.Fatalf("parser.New() error: %s", err)
	}
	program, err := p.ParseProgram()
	if err != nil {
		t.Fatalf("ParseProgram() error: %s", err)
	}
	env := object.NewEnvironment()
	return New("test.pit").Eval(program, env)
}

func requireNumber(t *testing.T, obj object.Object) float64 {
	t.Helper()
	n, ok := obj.(*object.Number)
	if !ok {
		t.Fatalf("expected *object.Number, got %T (%s)", obj, obj.Inspect())
	}
	return n.Value
}

func TestArithmeticAndStringConcat(t *testing.T) {
	if got := requireNumber(t, run(t, `1 + 2 * 3;`)); got != 7 {
		t.Fatalf("expected 7, got %v", got)
	}
	result := run(t, `"count: " + 5;`)
	s, ok := result.(*object.String)
	if !ok || s.Value != "count: 5" {
		t.Fatalf("expected %q, got %v", "count: 5", result)
	}
}

func TestScopeMutatesOuterBindingOnAssignment(t *testing.T) {
	input := `
let x = 1;
{
  x = 2;
}
x;
`
	if got := requireNumber(t, run(t, input)); got != 2 {
		t.Fatalf("expected outer x to be mutated to 2, got %v", got)
	}
}

func TestNewLetShadowsInsteadOfMutating(t *testing.T) {
	input := `
let x = 1;
let y = fn() {
  let x = 99;
  return x;
}();
x;
`
	if got := requireNumber(t, run(t, input)); got != 1 {
		t.Fatalf("expected outer x to remain 1 after inner shadow, got %v", got)
	}
}

func TestClosureObservesLaterWrites(t *testing.T) {
	input := `
let counter = 0;
let makeGetter = fn() {
  return fn() { return counter; };
};
let getter = makeGetter();
counter = 42;
getter();
`
	if got := requireNumber(t, run(t, input)); got != 42 {
		t.Fatalf("expected closure to observe write made after creation, got %v", got)
	}
}

func TestArrayAliasingIsObservableAcrossBindings(t *testing.T) {
	input := `
let a = [1];
let b = a;
b.push(2);
[a.length(), a.get(1)];
`
	result := run(t, input)
	arr, ok := result.(*object.Array)
	if !ok || len(arr.Elements) != 2 {
		t.Fatalf("expected a 2-element array, got %v", result)
	}
	if requireNumber(t, arr.Elements[0]) != 2 {
		t.Fatalf("expected a.length() == 2 after aliased push, got %v", arr.Elements[0])
	}
	if requireNumber(t, arr.Elements[1]) != 2 {
		t.Fatalf("expected a.get(1) == 2 after aliased push, got %v", arr.Elements[1])
	}
}

func TestObjectAliasingIsObservableAcrossBindings(t *testing.T) {
	input := `
let a = { n: 1 };
let b = a;
b.n = 2;
a.n;
`
	if got := requireNumber(t, run(t, input)); got != 2 {
		t.Fatalf("expected aliased object mutation to be visible, got %v", got)
	}
}

func TestLogicalShortCircuit(t *testing.T) {
	input := `
let calls = [0];
let side = fn() {
  calls.set(0, calls.get(0) + 1);
  return true;
};
false && side();
true || side();
calls.get(0);
`
	if got := requireNumber(t, run(t, input)); got != 0 {
		t.Fatalf("expected side() to never be called, got %v calls", got)
	}
}

func TestPowerOfTwoIsExact(t *testing.T) {
	input := `
fn pw(n) {
  let result = 1;
  let i = 0;
  while i < n {
    result = result * 2;
    i = i + 1;
  }
  return result;
}
pw(30);
`
	if got := requireNumber(t, run(t, input)); got != math.Pow(2, 30) {
		t.Fatalf("expected 2**30, got %v", got)
	}
}

func TestFunctionFallsThroughToNullWithoutExplicitReturn(t *testing.T) {
	input := `
fn noop() { let x = 1; }
noop();
`
	result := run(t, input)
	if _, ok := result.(*object.Null); !ok {
		t.Fatalf("expected Null when a function body falls through, got %v", result)
	}
}

func TestReturnUnwindsToNearestCallFrame(t *testing.T) {
	input := `
fn fib(n) {
  if n <= 1 { return n; }
  return fib(n - 1) + fib(n - 2);
}
fib(10);
`
	if got := requireNumber(t, run(t, input)); got != 55 {
		t.Fatalf("expected fib(10) == 55, got %v", got)
	}
}

func TestNegativeArrayIndexCountsFromEnd(t *testing.T) {
	if got := requireNumber(t, run(t, `[10, 20, 30][-1];`)); got != 30 {
		t.Fatalf("expected last element 30, got %v", got)
	}
}

func TestOutOfRangeIndexIsRuntimeError(t *testing.T) {
	result := run(t, `[1, 2, 3][10];`)
	errObj, ok := result.(*object.Error)
	if !ok {
		t.Fatalf("expected *object.Error, got %T", result)
	}
	if errObj.Kind != "IndexError" {
		t.Fatalf("expected IndexError, got %s", errObj.Kind)
	}
}

func TestMissingObjectKeyReturnsNull(t *testing.T) {
	result := run(t, `{ a: 1 }.missing;`)
	if _, ok := result.(*object.Null); !ok {
		t.Fatalf("expected Null for a missing object key, got %v", result)
	}
}

func TestUndefinedIdentifierIsNameError(t *testing.T) {
	result := run(t, `doesNotExist;`)
	errObj, ok := result.(*object.Error)
	if !ok || errObj.Kind != "NameError" {
		t.Fatalf("expected NameError, got %v", result)
	}
}

func TestCalculatorPrecedenceScenario(t *testing.T) {
	if got := requireNumber(t, run(t, `(1 + 2) * 3 ^ 2 % 7;`)); got != 6 {
		t.Fatalf("expected (1+2)*3^2%%7 == 6, got %v", got)
	}
}

func TestPersonObjectBirthdayMutatesThroughExplicitThis(t *testing.T) {
	input := `
let person = {
  name: "John",
  age: 30,
  greet: fn(this) {
    return "Hello, my name is " + this.name;
  },
  birthday: fn(this) {
    this.age = this.age + 1;
    return "Happy Birthday! I am now " + this.age + " years old.";
  }
};
[person.greet(person), person.birthday(person), person.birthday(person)];
`
	result := run(t, input)
	arr, ok := result.(*object.Array)
	if !ok || len(arr.Elements) != 3 {
		t.Fatalf("expected a 3-element array, got %v", result)
	}
	greet := arr.Elements[0].(*object.String).Value
	first := arr.Elements[1].(*object.String).Value
	second := arr.Elements[2].(*object.String).Value

	if greet != "Hello, my name is John" {
		t.Fatalf("unexpected greeting: %q", greet)
	}
	if first != "Happy Birthday! I am now 31 years old." {
		t.Fatalf("unexpected first birthday message: %q", first)
	}
	if second != "Happy Birthday! I am now 32 years old." {
		t.Fatalf("unexpected second birthday message: %q", second)
	}
}

package config

import (
	"testing"
)

func TestExpandEnv_SetVar(t *testing.T) {
	t.Setenv("TEST_VAR", "hello")

	got := ExpandEnv("name: ${TEST_VAR}")
	want := "name: hello"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExpandEnv_UnsetVar(t *testing.T) {
	got := ExpandEnv("name: ${UNSET_VAR_12345}")
	want := "name: "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExpandEnv_DefaultUsedWhenUnset(t *testing.T) {
	got := ExpandEnv("width: ${UNSET_VAR_12345:-16}")
	want := "width: 16"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExpandEnv_DefaultIgnoredWhenSet(t *testing.T) {
	t.Setenv("TEST_VAR", "32")

	got := ExpandEnv("width: ${TEST_VAR:-16}")
	want := "width: 32"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExpandEnv_DefaultUsedWhenEmpty(t *testing.T) {
	t.Setenv("TEST_VAR", "")

	got := ExpandEnv("width: ${TEST_VAR:-16}")
	want := "width: 16"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExpandEnv_NestedInYAML(t *testing.T) {
	t.Setenv("COUNT_WIDTH", "24")

	input := `design: toy-counter
ports:
  - name: count
    width: ${COUNT_WIDTH:-16}
    direction: out`
	want := `design: toy-counter
ports:
  - name: count
    width: 24
    direction: out`

	got := ExpandEnv(input)
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestExpandEnv_NoReferences(t *testing.T) {
	input := "plain text, no references"
	if got := ExpandEnv(input); got != input {
		t.Errorf("got %q, want %q", got, input)
	}
}

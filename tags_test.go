package stash

import (
	"reflect"
	"testing"
)

func TestTagsAdd(t *testing.T) {
	tags := NewTags()

	if got := tags.Add("api"); got != "api" {
		t.Errorf("Add returned %q, want %q", got, "api")
	}
	tags.Add("api")
	if tags.Len() != 1 {
		t.Errorf("duplicate tag stored, len = %d", tags.Len())
	}

	// Non-string tags stringify through normalization.
	if got := tags.Add(42); got != "42" {
		t.Errorf("Add(42) returned %q, want %q", got, "42")
	}
}

func TestTagsBlankDropped(t *testing.T) {
	tags := NewTags()
	for _, blank := range []any{"", "   ", "\t\n", nil} {
		if got := tags.Add(blank); got != "" {
			t.Errorf("Add(%q) returned %q, want empty", blank, got)
		}
	}
	if tags.Len() != 0 {
		t.Errorf("blank tags stored: %v", tags.List())
	}
}

func TestTagsMergeFlattens(t *testing.T) {
	tags := NewTags()
	tags.Merge("a", []string{"b", "c"}, []any{"d", []any{"e"}}, NewTags("f"))

	want := []string{"a", "b", "c", "d", "e", "f"}
	if !reflect.DeepEqual(tags.List(), want) {
		t.Errorf("List() = %v, want %v", tags.List(), want)
	}
}

func TestTagsDeferred(t *testing.T) {
	tags := NewTags()
	tags.Merge(Deferred(func() any { return []any{"x", "y"} }))

	want := []string{"x", "y"}
	if !reflect.DeepEqual(tags.List(), want) {
		t.Errorf("List() = %v, want %v", tags.List(), want)
	}
}

func TestTagsListSorted(t *testing.T) {
	tags := NewTags("zebra", "apple", "mango")
	want := []string{"apple", "mango", "zebra"}
	if !reflect.DeepEqual(tags.List(), want) {
		t.Errorf("List() = %v, want %v", tags.List(), want)
	}
}

func TestTagsContains(t *testing.T) {
	tags := NewTags("api", 42)

	tests := []struct {
		probe any
		want  bool
	}{
		{"api", true},
		{42, true},
		{"42", true}, // same normalized form
		{"web", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tags.Contains(tt.probe); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.probe, got, tt.want)
		}
	}
}

func TestTagsDelete(t *testing.T) {
	tags := NewTags("a")
	if !tags.Delete("a") {
		t.Error("Delete of present tag returned false")
	}
	if tags.Delete("a") {
		t.Error("Delete of absent tag returned true")
	}
}

func TestTagsClone(t *testing.T) {
	tags := NewTags("a")
	clone := tags.Clone()
	clone.Add("b")

	if tags.Len() != 1 {
		t.Error("mutating the clone leaked into the original")
	}
}

func TestTagsInvalidUTF8(t *testing.T) {
	tags := NewTags("bad\xfftag")
	if !tags.Contains("bad�tag") {
		t.Errorf("tag not cleaned: %v", tags.List())
	}
}

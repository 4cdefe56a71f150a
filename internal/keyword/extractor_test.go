// File path: internal/keyword/extractor_test.go
package keyword

import (
	"reflect"
	"testing"
)

func TestExtractFiltersStopWordsAndShortTokens(t *testing.T) {
	got := Extract("How many users did we have last year?")
	want := []string{"users"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected keywords: got %v want %v", got, want)
	}
}

func TestExtractDomainExpansion(t *testing.T) {
	cases := []struct {
		name     string
		question string
		expect   []string
		reject   []string
	}{
		{
			name:     "ab expands to experiment family",
			question: "show ab results",
			expect:   []string{"ab", "test", "experiment", "variant"},
		},
		{
			name:     "test expands to winner family",
			question: "test performance",
			expect:   []string{"test", "experiment", "variant", "winner", "ab"},
		},
		{
			name:     "winners expands to outcome family",
			question: "which winners converted",
			expect:   []string{"winners", "success", "conversion", "result"},
		},
		{
			name:     "slash form is kept intact",
			question: "a/b comparison",
			expect:   []string{"a/b", "test", "experiment", "variant"},
		},
		{
			name:     "gx is too short and not a trigger",
			question: "gx revenue",
			expect:   []string{"revenue"},
			reject:   []string{"gx"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Extract(tc.question)
			set := make(map[string]struct{}, len(got))
			for _, kw := range got {
				set[kw] = struct{}{}
			}
			for _, want := range tc.expect {
				if _, ok := set[want]; !ok {
					t.Fatalf("expected keyword %q in %v", want, got)
				}
			}
			for _, unwanted := range tc.reject {
				if _, ok := set[unwanted]; ok {
					t.Fatalf("unexpected keyword %q in %v", unwanted, got)
				}
			}
		})
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	question := "How many GX ab test winners did we have last year?"
	first := Extract(question)
	second := Extract(question)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("extraction not deterministic: %v vs %v", first, second)
	}
}

func TestExtractDeduplicates(t *testing.T) {
	got := Extract("revenue revenue revenue")
	if len(got) != 1 || got[0] != "revenue" {
		t.Fatalf("expected single deduplicated keyword, got %v", got)
	}
}

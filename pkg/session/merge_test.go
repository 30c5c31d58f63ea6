package session

import (
	"reflect"
	"testing"
)

func TestMerge_DedupAndOrder(t *testing.T) {
	got := Merge([]string{}, []string{"b", "a", "b"})
	want := []string{"b", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge([], [b a b]) = %v, want %v", got, want)
	}
}

func TestMerge_PreservesExistingPrefix(t *testing.T) {
	if got := Merge([]string{"x"}, []string{"y"}); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("Merge([x], [y]) = %v, want [x y]", got)
	}
	if got := Merge([]string{"x"}, []string{"x"}); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("Merge([x], [x]) = %v, want [x]", got)
	}
}

func TestMerge_TrimsAndDropsEmpty(t *testing.T) {
	got := Merge([]string{"明天交报告"}, []string{"  明天交报告  ", "", "   ", "给妈妈打电话\t"})
	want := []string{"明天交报告", "给妈妈打电话"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge = %v, want %v", got, want)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	cases := []struct {
		existing []string
		incoming []string
	}{
		{nil, nil},
		{[]string{"x"}, []string{"y", "y", " y "}},
		{[]string{"完成了周报"}, []string{"完成了周报", "跑了五公里"}},
		{[]string{"a", "b"}, []string{" c", "a", ""}},
	}

	for _, tc := range cases {
		once := Merge(tc.existing, tc.incoming)
		twice := Merge(once, tc.incoming)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("Merge not idempotent: existing=%v incoming=%v once=%v twice=%v",
				tc.existing, tc.incoming, once, twice)
		}
	}
}

func TestMerge_CaseSensitive(t *testing.T) {
	got := Merge([]string{"Call mom"}, []string{"call mom"})
	if len(got) != 2 {
		t.Errorf("Merge should be case-sensitive, got %v", got)
	}
}

func TestMergeCategories_ReportsAccepted(t *testing.T) {
	existing := Categories{
		Unsolved:     []string{"明天交报告"},
		Achievements: []string{},
		Gratitude:    []string{},
	}
	incoming := Categories{
		Unsolved:     []string{"明天交报告", "修电脑"},
		Achievements: []string{"跑了五公里"},
		Gratitude:    []string{},
	}

	merged, accepted := MergeCategories(existing, incoming)

	if !reflect.DeepEqual(merged.Unsolved, []string{"明天交报告", "修电脑"}) {
		t.Errorf("merged.Unsolved = %v", merged.Unsolved)
	}
	if !reflect.DeepEqual(accepted.Unsolved, []string{"修电脑"}) {
		t.Errorf("accepted.Unsolved = %v", accepted.Unsolved)
	}
	if len(accepted.Achievements) != 1 || len(accepted.Gratitude) != 0 {
		t.Errorf("accepted = %+v", accepted)
	}
}

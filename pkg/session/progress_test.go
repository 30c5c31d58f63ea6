package session

import "testing"

func itemList(n int, prefix string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = prefix + string(rune('a'+i))
	}
	return out
}

func TestAdvanceProgress_CountsCurrentCategoryOnly(t *testing.T) {
	p := Progress{CurrentCategory: CategoryUnsolved, CurrentStep: 2}

	got := AdvanceProgress(p, Categories{
		Unsolved:  []string{"修电脑"},
		Gratitude: []string{"朋友请吃饭"},
	})

	if got.CurrentStep != 3 {
		t.Errorf("CurrentStep = %d, want 3", got.CurrentStep)
	}
	if got.CurrentCategory != CategoryUnsolved {
		t.Errorf("CurrentCategory = %q, want unsolved", got.CurrentCategory)
	}
}

func TestAdvanceProgress_AdvancesAtCap(t *testing.T) {
	p := Progress{CurrentCategory: CategoryUnsolved, CurrentStep: 9}

	got := AdvanceProgress(p, Categories{Unsolved: []string{"最后一件事"}})

	if got.CurrentCategory != CategoryAchievements {
		t.Errorf("CurrentCategory = %q, want achievements", got.CurrentCategory)
	}
	if got.CurrentStep != 0 {
		t.Errorf("CurrentStep = %d, want 0", got.CurrentStep)
	}
	if got.IsCompleted {
		t.Error("IsCompleted should be false after first category")
	}
}

func TestAdvanceProgress_CompletesAfterGratitudeCap(t *testing.T) {
	p := Progress{CurrentCategory: CategoryGratitude, CurrentStep: 0}

	got := AdvanceProgress(p, Categories{Gratitude: itemList(MaxItemsPerCategory, "感恩")})

	if got.CurrentCategory != CategoryCompleted {
		t.Errorf("CurrentCategory = %q, want completed", got.CurrentCategory)
	}
	if !got.IsCompleted {
		t.Error("IsCompleted should be true")
	}
}

func TestAdvanceProgress_CompletedIsTerminal(t *testing.T) {
	p := Progress{CurrentCategory: CategoryCompleted, IsCompleted: true}

	got := AdvanceProgress(p, Categories{Unsolved: []string{"late item"}})

	if got.CurrentCategory != CategoryCompleted || !got.IsCompleted {
		t.Errorf("completed progress mutated: %+v", got)
	}
}

func TestAdvanceProgress_BankedItemsCountTowardNextCap(t *testing.T) {
	p := Progress{CurrentCategory: CategoryUnsolved, CurrentStep: 9}

	// One item closes out unsolved; ten achievements in the same turn
	// immediately exhaust that category too.
	got := AdvanceProgress(p, Categories{
		Unsolved:     []string{"还剩一件"},
		Achievements: itemList(MaxItemsPerCategory, "成就"),
	})

	if got.CurrentCategory != CategoryGratitude {
		t.Errorf("CurrentCategory = %q, want gratitude", got.CurrentCategory)
	}
	if got.CurrentStep != 0 {
		t.Errorf("CurrentStep = %d, want 0", got.CurrentStep)
	}
}

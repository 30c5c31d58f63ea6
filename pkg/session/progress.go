package session

// nextCategory is the fixed guided-disclosure order.
func nextCategory(category string) string {
	switch category {
	case CategoryUnsolved:
		return CategoryAchievements
	case CategoryAchievements:
		return CategoryGratitude
	default:
		return CategoryCompleted
	}
}

// itemsFor returns accepted item count for the named category.
func itemsFor(c Categories, category string) int {
	switch category {
	case CategoryUnsolved:
		return len(c.Unsolved)
	case CategoryAchievements:
		return len(c.Achievements)
	case CategoryGratitude:
		return len(c.Gratitude)
	default:
		return 0
	}
}

// AdvanceProgress moves the progress cursor after a turn accepted new items.
//
// Only the bounded part of the protocol is enforced here: CurrentStep counts
// items accepted into the current category, and once it reaches
// MaxItemsPerCategory the cursor advances to the next category. Whether the
// user is "done" with a category before the cap is a conversational
// judgment and stays with the dialogue capability, so a cursor left behind
// by the conversation is never moved backward and items classified into
// other categories are accepted without disturbing it.
func AdvanceProgress(p Progress, accepted Categories) Progress {
	if p.IsCompleted || p.CurrentCategory == CategoryCompleted {
		p.CurrentCategory = CategoryCompleted
		p.IsCompleted = true
		return p
	}

	p.CurrentStep += itemsFor(accepted, p.CurrentCategory)

	for p.CurrentStep >= MaxItemsPerCategory {
		p.CurrentCategory = nextCategory(p.CurrentCategory)
		if p.CurrentCategory == CategoryCompleted {
			p.IsCompleted = true
			p.CurrentStep = 0
			return p
		}
		// Items this turn already classified into the new current category
		// count toward its cap.
		p.CurrentStep = itemsFor(accepted, p.CurrentCategory)
	}

	return p
}

package analytics

import (
	"fmt"
	"testing"
	"time"

	"omifemcuts/pkg/domain"
)

func TestComputeDashboardScenario(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	// Shuffled creation order so the top five must come from sorting.
	order := []int{3, 11, 0, 7, 5, 9, 1, 10, 2, 8, 4, 6}
	users := make([]domain.User, 0, len(order))
	for _, day := range order {
		users = append(users, domain.User{
			ID:        fmt.Sprintf("u-%02d", day),
			CreatedAt: base.AddDate(0, 0, day),
		})
	}

	styles := make([]domain.Style, 40)
	remaining := 137
	for i := range styles {
		n := 3
		if i == 0 {
			n = remaining - 3*39
		}
		likes := make([]string, n)
		for j := range likes {
			likes[j] = fmt.Sprintf("liker-%d", j)
		}
		styles[i] = domain.Style{ID: fmt.Sprintf("s-%02d", i), Likes: likes, CreatedAt: base}
	}

	feedback := make([]domain.Feedback, 8)
	for i := range feedback {
		feedback[i] = domain.Feedback{ID: fmt.Sprintf("f-%d", i), Rating: 4, Approved: i >= 3}
	}

	got := Compute(users, styles, feedback)
	if got.TotalUsers != 12 || got.TotalStyles != 40 || got.TotalLikes != 137 || got.TotalFeedback != 8 || got.PendingFeedback != 3 {
		t.Fatalf("unexpected counters: %+v", got)
	}
	wantRecent := []string{"u-11", "u-10", "u-09", "u-08", "u-07"}
	if len(got.RecentSignups) != len(wantRecent) {
		t.Fatalf("recent signups = %d, want 5", len(got.RecentSignups))
	}
	for i, u := range got.RecentSignups {
		if u.ID != wantRecent[i] {
			t.Fatalf("recent[%d] = %s, want %s", i, u.ID, wantRecent[i])
		}
	}
	if len(got.PopularStyles) != 5 || got.PopularStyles[0].ID != "s-00" {
		t.Fatalf("popular styles = %+v", got.PopularStyles)
	}
	if users[0].ID != "u-03" {
		t.Fatalf("input users were reordered")
	}
}

func TestComputeEmpty(t *testing.T) {
	got := Compute(nil, nil, nil)
	if got.TotalLikes != 0 || got.RecentSignups == nil || got.PopularStyles == nil {
		t.Fatalf("empty input should produce zero counters and empty lists: %+v", got)
	}
}

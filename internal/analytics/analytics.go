// Package analytics derives the admin dashboard counters from the fetched collections.
package analytics

import (
	"sort"

	"omifemcuts/pkg/domain"
)

// TopN is the length of the recent-signups and popular-styles lists.
const TopN = 5

// Compute reduces users, styles and feedback into the dashboard aggregate.
// It does not modify its inputs.
func Compute(users []domain.User, styles []domain.Style, feedback []domain.Feedback) domain.Analytics {
	a := domain.Analytics{
		TotalUsers:    len(users),
		TotalStyles:   len(styles),
		TotalFeedback: len(feedback),
	}
	for _, s := range styles {
		a.TotalLikes += s.LikeCount()
	}
	for _, f := range feedback {
		if !f.Approved {
			a.PendingFeedback++
		}
	}
	a.RecentSignups = RecentSignups(users, TopN)
	a.PopularStyles = PopularStyles(styles, TopN)
	return a
}

// RecentSignups returns the n most recently created users, newest first.
func RecentSignups(users []domain.User, n int) []domain.User {
	out := append([]domain.User(nil), users...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []domain.User{}
	}
	return out
}

// PopularStyles returns the n styles with the most likes. Ties keep newest first.
func PopularStyles(styles []domain.Style, n int) []domain.Style {
	out := append([]domain.Style(nil), styles...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LikeCount() != out[j].LikeCount() {
			return out[i].LikeCount() > out[j].LikeCount()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []domain.Style{}
	}
	return out
}
